package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/pkg/logger"
)

var errNotFound = errors.New("record not found")

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
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
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
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
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCaseRepo) ListAssigned(ctx context.Context, limit, offset int) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var assigned []models.Case
	for _, c := range r.cases {
		if c.AgentID != nil && *c.AgentID != "" {
			assigned = append(assigned, *c)
		}
	}
	sort.Slice(assigned, func(i, j int) bool {
		return assigned[i].CreatedAt.Before(assigned[j].CreatedAt)
	})

	if offset >= len(assigned) {
		return nil, nil
	}
	end := offset + limit
	if end > len(assigned) {
		end = len(assigned)
	}
	return assigned[offset:end], nil
}

func (r *fakeCaseRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	return nil, nil
}

func (r *fakeCaseRepo) AgentWorkloads(ctx context.Context) ([]repository.AgentWorkload, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	rows map[string]*models.ChatMessage
}

func newFakeMessageRepo(rows ...*models.ChatMessage) *fakeMessageRepo {
	r := &fakeMessageRepo{rows: make(map[string]*models.ChatMessage)}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return r
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[msg.ID] = msg
	return nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, recipientUID string, ids []string, readAt time.Time) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated []models.ChatMessage
	for _, id := range ids {
		row, ok := r.rows[id]
		if !ok || row.RecipientID != recipientUID || row.IsRead {
			continue
		}
		row.IsRead = true
		t := readAt
		row.ReadAt = &t
		updated = append(updated, *row)
	}
	return updated, nil
}

func (r *fakeMessageRepo) MarkReadByExternalIDs(ctx context.Context, recipientUID string, extIDs []string, readAt time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var synced []string
	for _, ext := range extIDs {
		for _, row := range r.rows {
			if row.ExternalID != ext || row.RecipientID != recipientUID || row.IsRead {
				continue
			}
			row.IsRead = true
			t := readAt
			row.ReadAt = &t
			synced = append(synced, ext)
		}
	}
	return synced, nil
}

func (r *fakeMessageRepo) History(ctx context.Context, userUID string, q models.ChatHistoryQuery) ([]models.ChatMessage, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ChatMessage
	for _, row := range r.rows {
		if row.SenderID != userUID && row.RecipientID != userUID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(row.Content), strings.ToLower(q.Search)) {
			continue
		}
		if q.UnreadOnly && (row.RecipientID != userUID || row.IsRead) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, int64(len(out)), nil
}

func (r *fakeMessageRepo) UnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, row := range r.rows {
		if row.RecipientID == recipientUID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []models.Notification
	cleared []string
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id string, readAt time.Time) (bool, error) {
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) MarkReadByCase(ctx context.Context, userID, caseID string, readAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, userID+":"+caseID)
	return 1, nil
}

func (r *fakeNotificationRepo) clearedCases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cleared...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, notif *models.Notification, recipientExternalUID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *notif)
}
