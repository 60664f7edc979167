package repository

import (
	"context"

	"immigration-case-portal/backend/internal/models"

	"gorm.io/gorm"
)

// AppointmentRepository is the persistence interface for appointments
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, a *models.Appointment) error
	ListForUser(ctx context.Context, userID string, upcomingOnly bool) ([]models.Appointment, error)
}

// GormAppointmentRepository implements AppointmentRepository with GORM
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *GormAppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *GormAppointmentRepository) ListForUser(ctx context.Context, userID string, upcomingOnly bool) ([]models.Appointment, error) {
	query := r.db.WithContext(ctx).
		Where("client_id = ? OR agent_id = ?", userID, userID)
	if upcomingOnly {
		query = query.Where("scheduled_at > NOW() AND status = ?", models.AppointmentStatusScheduled)
	}

	var appointments []models.Appointment
	err := query.Order("scheduled_at ASC").Find(&appointments).Error
	return appointments, err
}
