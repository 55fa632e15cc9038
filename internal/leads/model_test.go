package leads

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffVariantsDecode(t *testing.T) {
	updatedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	before := &Lead{ID: testLeadID, FullName: "Asha Rao", Status: StatusNew, UpdatedAt: updatedAt}
	after := &Lead{ID: testLeadID, FullName: "Asha Rao", Status: StatusContacted, UpdatedAt: updatedAt.Add(time.Hour)}

	tests := []struct {
		name string
		diff Diff
	}{
		{"created", CreatedDiff(before)},
		{"updated", UpdatedDiff(before, after)},
		{"deleted", DeletedDiff(before)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.diff)
			require.NoError(t, err)

			entry := &HistoryEntry{LeadID: testLeadID, Diff: payload}
			decoded, err := entry.DecodeDiff()
			require.NoError(t, err)
			assert.Equal(t, tt.diff, decoded)
		})
	}
}

func TestDiffVariantsOmitUnusedSides(t *testing.T) {
	lead := &Lead{ID: testLeadID}

	created, err := json.Marshal(CreatedDiff(lead))
	require.NoError(t, err)
	assert.NotContains(t, string(created), `"before"`)
	assert.NotContains(t, string(created), `"after"`)

	deleted, err := json.Marshal(DeletedDiff(lead))
	require.NoError(t, err)
	assert.Contains(t, string(deleted), `"action":"deleted"`)
	assert.NotContains(t, string(deleted), `"data"`)
	assert.NotContains(t, string(deleted), `"after"`)
}
