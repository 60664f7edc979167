package repository

import (
	"context"

	"immigration-case-portal/backend/internal/models"

	"gorm.io/gorm"
)

// CaseFilter holds the optional filters for case listings
type CaseFilter struct {
	ClientID string
	AgentID  string
	Status   string
	Priority string
	Limit    int
	Offset   int
}

// StatusCount is a row of the cases-by-status report
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// AgentWorkload is a row of the per-agent caseload report
type AgentWorkload struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	OpenCases int64  `json:"open_cases"`
}

// CaseRepository is the persistence interface for cases
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id string) (*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	List(ctx context.Context, filter CaseFilter) ([]models.Case, int64, error)
	// ListAssigned pages through cases that have an agent, ordered by
	// creation time so that repeated pages are stable.
	ListAssigned(ctx context.Context, limit, offset int) ([]models.Case, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	AgentWorkloads(ctx context.Context) ([]AgentWorkload, error)
}

// GormCaseRepository implements CaseRepository with GORM
type GormCaseRepository struct {
	db *gorm.DB
}

func NewGormCaseRepository(db *gorm.DB) *GormCaseRepository {
	return &GormCaseRepository{db: db}
}

func (r *GormCaseRepository) Create(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *GormCaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	var kase models.Case
	err := r.db.WithContext(ctx).First(&kase, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &kase, nil
}

func (r *GormCaseRepository) Update(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *GormCaseRepository) List(ctx context.Context, filter CaseFilter) ([]models.Case, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Case{})

	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.AgentID != "" {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var cases []models.Case
	err := query.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&cases).Error
	return cases, total, err
}

func (r *GormCaseRepository) ListAssigned(ctx context.Context, limit, offset int) ([]models.Case, error) {
	var cases []models.Case
	err := r.db.WithContext(ctx).
		Where("agent_id IS NOT NULL").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&cases).Error
	return cases, err
}

func (r *GormCaseRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *GormCaseRepository) AgentWorkloads(ctx context.Context) ([]AgentWorkload, error) {
	var workloads []AgentWorkload
	err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("cases.agent_id, users.name as agent_name, count(*) as open_cases").
		Joins("JOIN users ON users.id = cases.agent_id").
		Where("cases.agent_id IS NOT NULL AND cases.status NOT IN ?", []string{models.CaseStatusClosed, models.CaseStatusRejected}).
		Group("cases.agent_id, users.name").
		Order("open_cases DESC").
		Scan(&workloads).Error
	return workloads, err
}
