package repository

import (
	"context"

	"immigration-case-portal/backend/internal/models"

	"gorm.io/gorm"
)

// DocumentStats is the documents report payload
type DocumentStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// DocumentRepository is the persistence interface for case documents
type DocumentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, d *models.Document) error
	ListByCase(ctx context.Context, caseID string) ([]models.Document, error)
	Stats(ctx context.Context) (DocumentStats, error)
}

// GormDocumentRepository implements DocumentRepository with GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) Create(ctx context.Context, d *models.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *GormDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *GormDocumentRepository) Update(ctx context.Context, d *models.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *GormDocumentRepository) ListByCase(ctx context.Context, caseID string) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) Stats(ctx context.Context) (DocumentStats, error) {
	var stats DocumentStats
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Document{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, rw := range rows {
		switch rw.Status {
		case models.DocumentStatusPending:
			stats.Pending = rw.Count
		case models.DocumentStatusApproved:
			stats.Approved = rw.Count
		case models.DocumentStatusRejected:
			stats.Rejected = rw.Count
		}
	}
	return stats, nil
}
