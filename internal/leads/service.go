package leads

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/buyer-leads/internal/identity"
	"github.com/wolfman30/buyer-leads/internal/observability/metrics"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

var leadsTracer = otel.Tracer("buyerleads.internal.leads")

// DefaultListLimit is how many leads the list view shows.
const DefaultListLimit = 10

// Service owns the lead write path and the cached read paths.
type Service struct {
	repo      Repository
	cache     ListCache
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
	listLimit int
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithListCache sets the recent-leads cache.
func WithListCache(cache ListCache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.LeadMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithListLimit overrides how many leads ListRecent returns.
func WithListLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

// NewService wires a lead service over a repository.
func NewService(repo Repository, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:      repo,
		cache:     NoopListCache{},
		logger:    logger,
		listLimit: DefaultListLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLead validates a submission and stores it with its audit entry on behalf of actor.
//
// Errors are *ValidationError (bad input or duplicate phone, including a duplicate
// that slipped past the pre-check) or *ServiceError (anything else).
func (s *Service) CreateLead(ctx context.Context, actor identity.Actor, sub Submission) (*Lead, error) {
	ctx, span := leadsTracer.Start(ctx, "leads.create", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	start := s.now()

	lead, outcome, err := s.createLead(ctx, actor, sub)
	s.metrics.ObserveCreate(outcome, s.now().Sub(start).Seconds())
	span.SetAttributes(attribute.String("leads.outcome", outcome))
	if err != nil {
		if outcome == metrics.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create lead failed")
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("leads.id", lead.ID))
	return lead, nil
}

func (s *Service) createLead(ctx context.Context, actor identity.Actor, sub Submission) (*Lead, string, error) {
	input, err := ParseSubmission(sub)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, metrics.OutcomeInvalid, verr
		}
		s.logger.Error("failed to validate lead submission", "error", err)
		return nil, metrics.OutcomeError, &ServiceError{Message: msgCreateFailed, Err: err}
	}
	if !actor.Valid() {
		s.logger.Error("lead submission without actor")
		return nil, metrics.OutcomeError, &ServiceError{Message: msgCreateFailed, Err: errors.New("leads: actor required")}
	}

	input.Phone = normalizePhone(input.Phone)

	if _, err := s.repo.FindByPhone(ctx, input.Phone); err == nil {
		return nil, metrics.OutcomeDuplicate, duplicatePhoneError()
	} else if !errors.Is(err, ErrLeadNotFound) {
		s.logger.Error("failed to check duplicate phone", "error", err)
		return nil, metrics.OutcomeError, &ServiceError{Message: msgCreateFailed, Err: err}
	}

	owner := Owner{ID: actor.ID, Email: actor.Email}
	lead, err := s.repo.CreateWithHistory(ctx, owner, input)
	if err != nil {
		if errors.Is(err, ErrDuplicatePhone) {
			s.logger.Info("duplicate phone rejected by unique index", "actor_id", actor.ID)
			return nil, metrics.OutcomeDuplicate, duplicatePhoneError()
		}
		s.logger.Error("failed to create buyer", "error", err, "actor_id", actor.ID)
		return nil, metrics.OutcomeError, &ServiceError{Message: msgCreateFailed, Err: err}
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate lead list cache", "error", err, "lead_id", lead.ID)
	}
	s.logger.Info("lead created", "lead_id", lead.ID, "actor_id", actor.ID)
	return lead, metrics.OutcomeCreated, nil
}

// GetLead returns one lead or ErrLeadNotFound.
func (s *Service) GetLead(ctx context.Context, id string) (*Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRecent returns the newest leads by update time, served from the cache when warm.
func (s *Service) ListRecent(ctx context.Context) ([]*Lead, error) {
	cached, cacheErr := s.cache.Get(ctx)
	switch {
	case cacheErr != nil:
		s.metrics.ObserveListCache("error")
		s.logger.Warn("lead list cache read failed", "error", cacheErr)
	case cached.Hit:
		s.metrics.ObserveListCache("hit")
		return cached.Leads, nil
	default:
		s.metrics.ObserveListCache("miss")
	}

	leads, err := s.repo.ListRecent(ctx, s.listLimit)
	if err != nil {
		return nil, err
	}
	if cacheErr != nil {
		return leads, nil
	}
	if err := s.cache.Set(ctx, cached.Generation, leads); err != nil {
		s.logger.Warn("lead list cache write failed", "error", err)
	}
	return leads, nil
}

// History returns the audit entries of an existing lead.
func (s *Service) History(ctx context.Context, id string) ([]*HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

func normalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}
