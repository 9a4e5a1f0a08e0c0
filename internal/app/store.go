package app

import (
	"sync"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

// SummaryStore holds the latest completed run for the read-only API.
// Empty until the first run finishes.
type SummaryStore struct {
	mu        sync.RWMutex
	summary   *domain.RunSummary
	decisions []domain.PricingDecision
}

func NewSummaryStore() *SummaryStore {
	return &SummaryStore{}
}

func (s *SummaryStore) Put(sum domain.RunSummary, decisions []domain.PricingDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &sum
	s.decisions = append([]domain.PricingDecision(nil), decisions...)
}

// Latest returns the most recent summary, or false before the first run.
func (s *SummaryStore) Latest() (domain.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return domain.RunSummary{}, false
	}
	return *s.summary, true
}

func (s *SummaryStore) Decisions() ([]domain.PricingDecision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, false
	}
	return append([]domain.PricingDecision(nil), s.decisions...), true
}
