package service

import (
	"context"
	"testing"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/rtdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApptFixture(kase *models.Case) (*AppointmentService, *fakeNotificationRepo) {
	client := &models.User{ID: "u-client", Role: "client", Email: "client@example.com", ExternalUID: "client123"}
	agent := &models.User{ID: "u-agent", Role: "agent", Email: "agent@example.com", ExternalUID: "agent456"}

	users := newFakeUserRepo(client, agent)
	log := testLogger()
	notifRepo := &fakeNotificationRepo{}
	notifier := NewNotificationService(notifRepo, users, rtdb.NewMemoryClient(), nil, NewNoopSender(log), log)

	return NewAppointmentService(newFakeApptRepo(), newFakeCaseRepo(kase), users, notifier, log), notifRepo
}

func TestScheduleAppointment(t *testing.T) {
	kase := &models.Case{ID: "case-c", ReferenceNumber: "IMM-2026-DDDDDD", ClientID: "u-client", AgentID: strPtr("u-agent")}
	svc, notifs := newApptFixture(kase)

	appt, err := svc.Schedule(context.Background(), clientClaims(), models.CreateAppointmentRequest{
		CaseID:      "case-c",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Location:    "Office 3B",
		Purpose:     "biometrics",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, "u-agent", appt.AgentID)

	// The agent, not the booking client, gets the notification
	assert.Len(t, notifs.byUser("u-agent"), 1)
	assert.Empty(t, notifs.byUser("u-client"))
}

func TestScheduleRejectsPast(t *testing.T) {
	kase := &models.Case{ID: "case-c", ClientID: "u-client", AgentID: strPtr("u-agent")}
	svc, _ := newApptFixture(kase)

	_, err := svc.Schedule(context.Background(), clientClaims(), models.CreateAppointmentRequest{
		CaseID:      "case-c",
		ScheduledAt: time.Now().Add(-time.Hour),
		Location:    "Office 3B",
	})
	assert.ErrorIs(t, err, ErrAppointmentInPast)
}

func TestScheduleRequiresAgent(t *testing.T) {
	kase := &models.Case{ID: "case-c", ClientID: "u-client"}
	svc, _ := newApptFixture(kase)

	_, err := svc.Schedule(context.Background(), clientClaims(), models.CreateAppointmentRequest{
		CaseID:      "case-c",
		ScheduledAt: time.Now().Add(time.Hour),
		Location:    "Office 3B",
	})
	assert.ErrorIs(t, err, ErrCaseUnassigned)
}

func TestCancelAppointment(t *testing.T) {
	kase := &models.Case{ID: "case-c", ClientID: "u-client", AgentID: strPtr("u-agent")}
	svc, notifs := newApptFixture(kase)

	appt, err := svc.Schedule(context.Background(), agentClaims(), models.CreateAppointmentRequest{
		CaseID:      "case-c",
		ScheduledAt: time.Now().Add(time.Hour),
		Location:    "Office 3B",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), agentClaims(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCancelled, cancelled.Status)

	// Schedule notified the client once, cancel notified again
	assert.Len(t, notifs.byUser("u-client"), 2)

	_, err = svc.Cancel(context.Background(), agentClaims(), appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentFinalized)
}
