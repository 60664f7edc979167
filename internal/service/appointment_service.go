package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrAppointmentInPast    = errors.New("appointment must be in the future")
	ErrCaseUnassigned       = errors.New("case has no agent to meet with")
	ErrAppointmentFinalized = errors.New("appointment can no longer be changed")
)

// AppointmentService schedules meetings between a case's client and agent
type AppointmentService struct {
	appointments repository.AppointmentRepository
	cases        repository.CaseRepository
	users        repository.UserRepository
	notifier     *NotificationService
	log          *logger.Logger
}

// NewAppointmentService creates the appointment service
func NewAppointmentService(
	appointments repository.AppointmentRepository,
	cases repository.CaseRepository,
	users repository.UserRepository,
	notifier *NotificationService,
	log *logger.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		cases:        cases,
		users:        users,
		notifier:     notifier,
		log:          log,
	}
}

// Schedule books an appointment on a case. Either side of the case can
// book; the other side gets notified.
func (s *AppointmentService) Schedule(ctx context.Context, caller *jwt.Claims, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if !req.ScheduledAt.After(time.Now()) {
		return nil, ErrAppointmentInPast
	}

	kase, err := s.cases.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if kase.AgentID == nil || *kase.AgentID == "" {
		return nil, ErrCaseUnassigned
	}

	isClient := kase.ClientID == caller.UserID
	isAgent := *kase.AgentID == caller.UserID
	if !caller.HasRole(jwt.RoleAdmin) && !isClient && !isAgent {
		return nil, ErrForbiddenCase
	}

	appt := &models.Appointment{
		ID:          uuid.New().String(),
		CaseID:      kase.ID,
		ClientID:    kase.ClientID,
		AgentID:     *kase.AgentID,
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
		Purpose:     req.Purpose,
		Status:      models.AppointmentStatusScheduled,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		counterpart := kase.ClientID
		if isClient {
			counterpart = *kase.AgentID
		}
		cid := kase.ID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: counterpart,
			Type:   models.NotificationAppointment,
			Title:  "Appointment scheduled",
			Body:   fmt.Sprintf("Meeting about case %s on %s at %s.", kase.ReferenceNumber, appt.ScheduledAt.Format(time.RFC1123), appt.Location),
			CaseID: &cid,
		}, s.externalUID(ctx, counterpart))
	}

	s.log.WithCaseID(kase.ID).Info("appointment scheduled", "appointment_id", appt.ID, "at", appt.ScheduledAt)
	return appt, nil
}

// Cancel marks an appointment cancelled and tells the other participant
func (s *AppointmentService) Cancel(ctx context.Context, caller *jwt.Claims, appointmentID string) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != models.AppointmentStatusScheduled {
		return nil, ErrAppointmentFinalized
	}

	isClient := appt.ClientID == caller.UserID
	isAgent := appt.AgentID == caller.UserID
	if !caller.HasRole(jwt.RoleAdmin) && !isClient && !isAgent {
		return nil, ErrForbiddenCase
	}

	appt.Status = models.AppointmentStatusCancelled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		counterpart := appt.AgentID
		if isAgent {
			counterpart = appt.ClientID
		}
		cid := appt.CaseID
		s.notifier.Notify(ctx, &models.Notification{
			UserID: counterpart,
			Type:   models.NotificationAppointment,
			Title:  "Appointment cancelled",
			Body:   fmt.Sprintf("The meeting scheduled for %s was cancelled.", appt.ScheduledAt.Format(time.RFC1123)),
			CaseID: &cid,
		}, s.externalUID(ctx, counterpart))
	}

	return appt, nil
}

// ListForUser returns the caller's appointments
func (s *AppointmentService) ListForUser(ctx context.Context, userID string, upcomingOnly bool) ([]models.Appointment, error) {
	return s.appointments.ListForUser(ctx, userID, upcomingOnly)
}

func (s *AppointmentService) externalUID(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.ExternalUID
}
