package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"
)

var errNotFound = errors.New("record not found")

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*models.User
	deleted []string
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeUserRepo) GetByExternalUID(ctx context.Context, uid string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ExternalUID == uid {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeCaseRepo struct {
	mu    sync.Mutex
	cases map[string]*models.Case
}

func newFakeCaseRepo(cases ...*models.Case) *fakeCaseRepo {
	r := &fakeCaseRepo{cases: make(map[string]*models.Case)}
	for _, c := range cases {
		r.cases[c.ID] = c
	}
	return r
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id string) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cases[id]; ok {
		return c, nil
	}
	return nil, errNotFound
}

func (r *fakeCaseRepo) Update(ctx context.Context, c *models.Case) error {
	return r.Create(ctx, c)
}

func (r *fakeCaseRepo) List(ctx context.Context, filter repository.CaseFilter) ([]models.Case, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Case
	for _, c := range r.cases {
		if filter.ClientID != "" && c.ClientID != filter.ClientID {
			continue
		}
		if filter.AgentID != "" && (c.AgentID == nil || *c.AgentID != filter.AgentID) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCaseRepo) ListAssigned(ctx context.Context, limit, offset int) ([]models.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, c := range r.cases {
		counts[c.Status]++
	}
	var out []repository.StatusCount
	for status, count := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (r *fakeCaseRepo) AgentWorkloads(ctx context.Context) ([]repository.AgentWorkload, error) {
	return nil, nil
}

type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document

	statsCalls int
}

func newFakeDocRepo(docs ...*models.Document) *fakeDocRepo {
	r := &fakeDocRepo{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeDocRepo) Create(ctx context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		return d, nil
	}
	return nil, errNotFound
}

func (r *fakeDocRepo) Update(ctx context.Context, d *models.Document) error {
	return r.Create(ctx, d)
}

func (r *fakeDocRepo) ListByCase(ctx context.Context, caseID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if d.CaseID == caseID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) Stats(ctx context.Context) (repository.DocumentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	var stats repository.DocumentStats
	for _, d := range r.docs {
		switch d.Status {
		case models.DocumentStatusPending:
			stats.Pending++
		case models.DocumentStatusApproved:
			stats.Approved++
		case models.DocumentStatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

type fakeApptRepo struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[string]*models.Appointment)}
}

func (r *fakeApptRepo) Create(ctx context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appts[a.ID] = a
	return nil
}

func (r *fakeApptRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appts[id]; ok {
		return a, nil
	}
	return nil, errNotFound
}

func (r *fakeApptRepo) Update(ctx context.Context, a *models.Appointment) error {
	return r.Create(ctx, a)
}

func (r *fakeApptRepo) ListForUser(ctx context.Context, userID string, upcomingOnly bool) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.ClientID != userID && a.AgentID != userID {
			continue
		}
		if upcomingOnly && (a.Status != models.AppointmentStatusScheduled || !a.ScheduledAt.After(time.Now())) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id string, readAt time.Time) (bool, error) {
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) MarkReadByCase(ctx context.Context, userID, caseID string, readAt time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) byUser(userID string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// failingStore wraps the in-memory store and fails Set calls on matching
// paths, for saga compensation tests
type failingStore struct {
	*rtdb.MemoryClient
	failPrefix string
}

func (s *failingStore) Set(ctx context.Context, path string, value any) error {
	if s.failPrefix != "" && len(path) >= len(s.failPrefix) && path[:len(s.failPrefix)] == s.failPrefix {
		return errors.New("store unavailable")
	}
	return s.MemoryClient.Set(ctx, path, value)
}
