package service

import (
	"context"
	"testing"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewAggregates(t *testing.T) {
	cases := newFakeCaseRepo(
		&models.Case{ID: "c1", Status: models.CaseStatusSubmitted},
		&models.Case{ID: "c2", Status: models.CaseStatusSubmitted},
		&models.Case{ID: "c3", Status: models.CaseStatusApproved},
	)
	docs := newFakeDocRepo(
		&models.Document{ID: "d1", Status: models.DocumentStatusPending},
		&models.Document{ID: "d2", Status: models.DocumentStatusApproved},
	)
	svc := NewReportService(cases, docs, nil, testLogger())

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Len(t, overview.CasesByStatus, 2)
	assert.Equal(t, int64(1), overview.Documents.Pending)
	assert.Equal(t, int64(1), overview.Documents.Approved)
}

func TestOverviewIsMemoized(t *testing.T) {
	cases := newFakeCaseRepo(&models.Case{ID: "c1", Status: models.CaseStatusSubmitted})
	docs := newFakeDocRepo()
	c := cache.NewCacheWithOptions(time.Minute, 0, 10)
	svc := NewReportService(cases, docs, c, testLogger())

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, docs.statsCalls)

	svc.Invalidate()
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, docs.statsCalls)
}
