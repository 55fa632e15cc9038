package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	uniqueViolation = "23505"
	phoneIndex      = "phone_idx"

	leadColumns = `id::text, full_name, email, phone, city::text, property_type::text, bhk::text,
		purpose::text, budget_min, budget_max, timeline::text, source::text, status::text,
		notes, tags, owner_id::text, updated_at`
)

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// FindByPhone returns the id of the lead with this exact phone.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id::text FROM buyers WHERE phone = $1 LIMIT 1`, phone).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLeadNotFound
		}
		return "", fmt.Errorf("leads: lookup phone: %w", err)
	}
	return id, nil
}

// CreateWithHistory upserts the owner, inserts the lead and its audit row in one transaction.
func (r *PostgresRepository) CreateWithHistory(ctx context.Context, owner Owner, in *LeadInput) (*Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, owner.ID, owner.Email); err != nil {
		return nil, fmt.Errorf("leads: ensure owner: %w", err)
	}

	var bhk *string
	if in.BHK != nil {
		s := string(*in.BHK)
		bhk = &s
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO buyers (
			full_name, email, phone, city, property_type, bhk, purpose,
			budget_min, budget_max, timeline, source, notes, tags, owner_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+leadColumns,
		in.FullName,
		in.Email,
		in.Phone,
		string(in.City),
		string(in.PropertyType),
		bhk,
		string(in.Purpose),
		in.BudgetMin,
		in.BudgetMax,
		string(in.Timeline),
		string(in.Source),
		in.Notes,
		tags,
		owner.ID,
	)
	lead, err := scanLead(row)
	if err != nil {
		if isPhoneConflict(err) {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("leads: insert buyer: %w", err)
	}

	diff, err := json.Marshal(CreatedDiff(lead))
	if err != nil {
		return nil, fmt.Errorf("leads: marshal diff: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO buyer_history (id, buyer_id, user_id, diff)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), lead.ID, owner.ID, diff); err != nil {
		return nil, fmt.Errorf("leads: insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isPhoneConflict(err) {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("leads: commit: %w", err)
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM buyers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select buyer: %w", err)
	}
	return lead, nil
}

// ListRecent returns the most recently updated leads.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM buyers
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: list buyers: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan buyer: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// ListHistory returns the audit trail of a lead, newest first.
func (r *PostgresRepository) ListHistory(ctx context.Context, leadID string) ([]*HistoryEntry, error) {
	if _, err := uuid.Parse(leadID); err != nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, buyer_id::text, user_id::text, changed_at, diff
		FROM buyer_history
		WHERE buyer_id = $1
		ORDER BY changed_at DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("leads: list history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var diff []byte
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.ChangedBy, &entry.ChangedAt, &diff); err != nil {
			return nil, fmt.Errorf("leads: scan history: %w", err)
		}
		entry.Diff = append(json.RawMessage(nil), diff...)
		out = append(out, &entry)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var city, propertyType, purpose, timeline, source, status string
	var bhk *string
	var tags []string
	var updatedAt time.Time
	if err := row.Scan(
		&lead.ID,
		&lead.FullName,
		&lead.Email,
		&lead.Phone,
		&city,
		&propertyType,
		&bhk,
		&purpose,
		&lead.BudgetMin,
		&lead.BudgetMax,
		&timeline,
		&source,
		&status,
		&lead.Notes,
		&tags,
		&lead.OwnerID,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	lead.City = City(city)
	lead.PropertyType = PropertyType(propertyType)
	if bhk != nil {
		b := BHK(*bhk)
		lead.BHK = &b
	}
	lead.Purpose = Purpose(purpose)
	lead.Timeline = Timeline(timeline)
	lead.Source = Source(source)
	lead.Status = Status(status)
	lead.Tags = tags
	lead.UpdatedAt = updatedAt.UTC()
	return &lead, nil
}

func isPhoneConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return pgErr.ConstraintName == phoneIndex
}
