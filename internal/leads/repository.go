package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	// FindByPhone returns the id of the lead holding phone, or ErrLeadNotFound.
	FindByPhone(ctx context.Context, phone string) (string, error)
	// CreateWithHistory ensures the owner row exists, inserts the lead and its
	// "created" audit entry in one unit of work. ErrDuplicatePhone reports a
	// unique-index rejection.
	CreateWithHistory(ctx context.Context, owner Owner, in *LeadInput) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListRecent(ctx context.Context, limit int) ([]*Lead, error)
	ListHistory(ctx context.Context, leadID string) ([]*HistoryEntry, error)
}

// InMemoryRepository is a Repository backed by maps, for local runs and tests
type InMemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]string
	leads   map[string]*Lead
	phones  map[string]string
	history map[string][]*HistoryEntry
	now     func() time.Time

	// historyErr makes the next audit insert fail, to exercise rollback.
	historyErr error
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:   make(map[string]string),
		leads:   make(map[string]*Lead),
		phones:  make(map[string]string),
		history: make(map[string][]*HistoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FindByPhone looks up a lead id by exact phone
func (r *InMemoryRepository) FindByPhone(ctx context.Context, phone string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.phones[phone]
	if !ok {
		return "", ErrLeadNotFound
	}
	return id, nil
}

// CreateWithHistory stages every write and only publishes them once all succeed.
func (r *InMemoryRepository) CreateWithHistory(ctx context.Context, owner Owner, in *LeadInput) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.phones[in.Phone]; taken {
		return nil, ErrDuplicatePhone
	}

	now := r.now()
	lead := newLeadFromInput(uuid.NewString(), owner, in, now)

	if r.historyErr != nil {
		err := r.historyErr
		r.historyErr = nil
		return nil, fmt.Errorf("leads: insert history: %w", err)
	}
	diff, err := json.Marshal(CreatedDiff(lead))
	if err != nil {
		return nil, fmt.Errorf("leads: marshal diff: %w", err)
	}
	entry := &HistoryEntry{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		ChangedBy: owner.ID,
		ChangedAt: now,
		Diff:      diff,
	}

	if _, ok := r.users[owner.ID]; !ok {
		r.users[owner.ID] = owner.Email
	}
	r.leads[lead.ID] = lead
	r.phones[lead.Phone] = lead.ID
	r.history[lead.ID] = append(r.history[lead.ID], entry)

	return cloneLead(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// ListRecent returns up to limit leads, most recently updated first
func (r *InMemoryRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, cloneLead(lead))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListHistory returns the audit entries of a lead, newest first
func (r *InMemoryRepository) ListHistory(ctx context.Context, leadID string) ([]*HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.history[leadID]
	out := make([]*HistoryEntry, len(entries))
	for i, entry := range entries {
		copied := *entry
		out[len(entries)-1-i] = &copied
	}
	return out, nil
}

func cloneLead(lead *Lead) *Lead {
	copied := *lead
	if lead.Tags != nil {
		copied.Tags = append([]string(nil), lead.Tags...)
	}
	return &copied
}
