package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestFormatBudget(t *testing.T) {
	assert.Equal(t, "₹2.5L", FormatBudget(250000))
	assert.Equal(t, "₹25.0L", FormatBudget(2500000))
	assert.Equal(t, "₹50.0L", FormatBudget(5000000))
	assert.Equal(t, "₹0.5L", FormatBudget(50000))
	assert.Equal(t, "₹120.0L", FormatBudget(12000000))
	assert.Equal(t, "₹0.0L", FormatBudget(0))
}

func TestFormatBudgetRoundsHalvesUp(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{125000, "₹1.3L"},
		{25000, "₹0.3L"},
		{1375000, "₹13.8L"},
		{1234567, "₹12.3L"},
		{1249999, "₹12.5L"},
		// 0.15 and 0.35 sit just below the half in binary
		{15000, "₹0.1L"},
		{35000, "₹0.3L"},
		{45000, "₹0.5L"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBudget(tt.amount), "amount %d", tt.amount)
	}
}

func TestFormatBudgetBound(t *testing.T) {
	assert.Equal(t, "—", FormatBudgetBound(nil))
	assert.Equal(t, "₹25.0L", FormatBudgetBound(intPtr(2500000)))
}

func TestFormatBudgetRange(t *testing.T) {
	tests := []struct {
		name      string
		low, high *int
		want      string
	}{
		{"both missing", nil, nil, "N/A"},
		{"both present", intPtr(2500000), intPtr(5000000), "₹25.0L - ₹50.0L"},
		{"min only", intPtr(250000), nil, "₹2.5L"},
		{"max only", nil, intPtr(5000000), "₹50.0L"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBudgetRange(tt.low, tt.high))
		})
	}
}

func TestNewLeadView(t *testing.T) {
	lead := &Lead{
		ID:        "lead-1",
		BudgetMin: intPtr(250000),
		UpdatedAt: time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC),
	}

	view := NewLeadView(lead)

	assert.Equal(t, "₹2.5L", view.Budget)
	assert.Equal(t, "₹2.5L", view.BudgetMinDisplay)
	assert.Equal(t, "—", view.BudgetMaxDisplay)
	assert.Equal(t, "2026-03-09", view.UpdatedOn)
	assert.Equal(t, "lead-1", view.ID)
}
