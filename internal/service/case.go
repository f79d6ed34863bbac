package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/port/cache"
	"github.com/calldeck/calldeck/internal/port/database"
	"github.com/calldeck/calldeck/internal/port/eventstore"
)

// CaseService serves case reads, with a small in-process cache in front of
// the store for the single-case path.
type CaseService struct {
	store  database.Store
	events eventstore.Store
	cache  cache.Cache
	ttl    time.Duration
}

// NewCaseService creates a CaseService. cache may be nil to disable caching.
func NewCaseService(store database.Store, events eventstore.Store, c cache.Cache, ttl time.Duration) *CaseService {
	return &CaseService{store: store, events: events, cache: c, ttl: ttl}
}

func caseCacheKey(id string) string { return "case:" + id }

// GetCase returns one case by id, from cache when fresh.
func (s *CaseService) GetCase(ctx context.Context, id string) (*caserecord.Record, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, caseCacheKey(id)); err == nil && ok {
			var rec caserecord.Record
			if err := json.Unmarshal(data, &rec); err == nil {
				return &rec, nil
			}
			// Corrupt cache entry; fall through to the store.
			_ = s.cache.Delete(ctx, caseCacheKey(id))
		}
	}

	rec, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			if err := s.cache.Set(ctx, caseCacheKey(id), data, s.ttl); err != nil {
				slog.Debug("case cache set failed", "case_id", id, "error", err)
			}
		}
	}
	return rec, nil
}

// ListCases returns cases newest first, optionally filtered by status.
func (s *CaseService) ListCases(ctx context.Context, status caserecord.Status, limit int) ([]caserecord.Record, error) {
	return s.store.ListCases(ctx, status, limit)
}

// ListEvents returns the audit trail for a case, oldest first. The case must
// exist; unknown ids surface domain.ErrNotFound.
func (s *CaseService) ListEvents(ctx context.Context, caseID string) ([]event.CaseEvent, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.events.ListByCase(ctx, caseID)
}

// Dashboard aggregates case counts and score averages.
func (s *CaseService) Dashboard(ctx context.Context) (*caserecord.DashboardMetrics, error) {
	return s.store.DashboardMetrics(ctx)
}
