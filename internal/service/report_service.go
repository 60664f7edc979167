package service

import (
	"context"

	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/pkg/cache"
	"immigration-case-portal/backend/pkg/logger"
)

// Overview is the admin dashboard payload
type Overview struct {
	CasesByStatus  []repository.StatusCount   `json:"cases_by_status"`
	AgentWorkloads []repository.AgentWorkload `json:"agent_workloads"`
	Documents      repository.DocumentStats   `json:"documents"`
}

// ReportService aggregates dashboard figures. Results are memoized; the
// dashboard tolerates a few minutes of staleness.
type ReportService struct {
	cases repository.CaseRepository
	docs  repository.DocumentRepository
	cache *cache.Cache
	log   *logger.Logger
}

// NewReportService creates the report service
func NewReportService(cases repository.CaseRepository, docs repository.DocumentRepository, c *cache.Cache, log *logger.Logger) *ReportService {
	return &ReportService{cases: cases, docs: docs, cache: c, log: log}
}

const overviewCacheKey = "reports:overview"

// Overview returns the dashboard figures, cached
func (s *ReportService) Overview(ctx context.Context) (*Overview, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(overviewCacheKey); ok {
			if overview, ok := cached.(*Overview); ok {
				return overview, nil
			}
		}
	}

	byStatus, err := s.cases.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	workloads, err := s.cases.AgentWorkloads(ctx)
	if err != nil {
		return nil, err
	}
	docStats, err := s.docs.Stats(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		CasesByStatus:  byStatus,
		AgentWorkloads: workloads,
		Documents:      docStats,
	}
	if s.cache != nil {
		s.cache.Set(overviewCacheKey, overview)
	}
	return overview, nil
}

// Invalidate drops the memoized overview, for tests and admin refresh
func (s *ReportService) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(overviewCacheKey)
	}
}
