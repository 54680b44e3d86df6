package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bilancio/internal/core"
	"bilancio/internal/engine"
)

const (
	insightCacheTTL     = 5 * time.Minute
	insightCacheCleanup = 10 * time.Minute
)

// InsightService computes owner-scoped summaries, category trends, and
// suggestions from the current record set. Results are cached per owner
// and window for a short TTL; writes invalidate the owner's entries.
type InsightService struct {
	storage    TransactionStore
	thresholds engine.Thresholds
	rules      engine.RulePolicy
	cache      *gocache.Cache
}

func NewInsightService(storage TransactionStore, thresholds engine.Thresholds, rules engine.RulePolicy) *InsightService {
	return &InsightService{
		storage:    storage,
		thresholds: thresholds,
		rules:      rules,
		cache:      gocache.New(insightCacheTTL, insightCacheCleanup),
	}
}

// Summary reduces the owner's records to period totals over the window and
// the running balance over all records.
func (s *InsightService) Summary(ctx context.Context, ownerID string, window engine.Window) (engine.Snapshot, error) {
	key := cacheKey(ownerID, "summary", window)
	if v, ok := s.cache.Get(key); ok {
		return v.(engine.Snapshot), nil
	}

	records, err := s.storage.ListTransactions(ctx, ownerID, core.Date{}, core.Date{})
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("list transactions: %w", err)
	}

	snap, err := engine.Aggregate(records, window)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if window != engine.AllTime {
		all, err := engine.Aggregate(records, engine.AllTime)
		if err != nil {
			return engine.Snapshot{}, err
		}
		snap.TotalBalance = all.TotalBalance
	}

	s.cache.Set(key, snap, gocache.DefaultExpiration)
	return snap, nil
}

// Trends classifies the owner's per-category expense totals inside the window.
func (s *InsightService) Trends(ctx context.Context, ownerID string, window engine.Window) ([]engine.Insight, error) {
	key := cacheKey(ownerID, "trends", window)
	if v, ok := s.cache.Get(key); ok {
		return append([]engine.Insight(nil), v.([]engine.Insight)...), nil
	}

	records, err := s.storage.ListTransactions(ctx, ownerID, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	expenses := records[:0:0]
	for _, r := range records {
		if r.Kind == core.Expense {
			expenses = append(expenses, r)
		}
	}

	totals, err := engine.AggregateByCategory(expenses)
	if err != nil {
		return nil, err
	}
	insights := engine.ClassifyAll(totals, s.thresholds)

	// Cache and result must not share a backing array.
	s.cache.Set(key, insights, gocache.DefaultExpiration)
	return append([]engine.Insight(nil), insights...), nil
}

// Suggestions applies the advisory rules to the owner's window snapshot.
func (s *InsightService) Suggestions(ctx context.Context, ownerID string, window engine.Window) ([]engine.Suggestion, error) {
	key := cacheKey(ownerID, "suggestions", window)
	if v, ok := s.cache.Get(key); ok {
		return append([]engine.Suggestion(nil), v.([]engine.Suggestion)...), nil
	}

	records, err := s.storage.ListTransactions(ctx, ownerID, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	snap, err := engine.Aggregate(records, window)
	if err != nil {
		return nil, err
	}
	suggestions := engine.GenerateSuggestions(snap, len(records), s.rules)

	s.cache.Set(key, suggestions, gocache.DefaultExpiration)
	return append([]engine.Suggestion(nil), suggestions...), nil
}

// Invalidate drops every cached insight for the owner. Called after any
// write to the owner's records.
func (s *InsightService) Invalidate(ownerID string) {
	prefix := ownerID + "|"
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

func cacheKey(ownerID, kind string, window engine.Window) string {
	return ownerID + "|" + kind + "|" + window.From.String() + "|" + window.To.String()
}
