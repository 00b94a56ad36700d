package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/models"
	"salescrm/internal/store"
	"salescrm/internal/testdata"
)

type MockLeadLister struct {
	mock.Mock
}

func (m *MockLeadLister) ListLeads(ctx context.Context, assignedTo *int, limit int) (models.LeadList, error) {
	args := m.Called(ctx, assignedTo, limit)
	list, _ := args.Get(0).(models.LeadList)
	return list, args.Error(1)
}

func TestSyncService_RefreshMergesAndSkipsInvalid(t *testing.T) {
	f := newCoordinatorFixture(t,
		testdata.Lead(1, models.StageReception, nil),
		testdata.Lead(2, models.StageReception, nil),
	)
	bad := testdata.Lead(4, models.StageQuoted, nil)
	bad.Name = " "
	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 200).Return(models.LeadList{
		Leads: []models.Lead{
			testdata.Lead(1, models.StageConsulting, nil),
			testdata.Lead(3, models.StageClosed, nil),
			bad,
		},
		Total: 3,
	}, nil)
	m := metrics.New()
	svc := NewSyncService(lister, f.coord, SyncOptions{PageLimit: 200, Logger: logger.Discard(), Metrics: m})

	report, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, store.MergeResult{Added: 1, Updated: 1, Removed: 1}, report.MergeResult)

	one, _ := f.cache.Get(1)
	assert.Equal(t, models.StageConsulting, one.Stage)
	_, ok := f.cache.Get(2)
	assert.False(t, ok)
	_, ok = f.cache.Get(4)
	assert.False(t, ok)

	assert.Equal(t, []EventKind{EventSynced}, f.pub.kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CachedLeads))
}

func TestSyncService_RefreshAppliesDefaults(t *testing.T) {
	f := newCoordinatorFixture(t)
	raw := testdata.Lead(1, "", nil)
	raw.Status = ""
	raw.Source = ""
	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 0).Return(models.LeadList{Leads: []models.Lead{raw}, Total: 1}, nil)
	svc := NewSyncService(lister, f.coord, SyncOptions{Logger: logger.Discard()})

	_, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	got, ok := f.cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.StageReception, got.Stage)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, models.SourceManual, got.Source)
}

func TestSyncService_RefreshKeepsInFlightLead(t *testing.T) {
	f := newCoordinatorFixture(t, testdata.Lead(1, models.StageReception, nil))
	release := make(chan struct{})
	f.remote.On("UpdateStage", mock.Anything, 1, models.StageQuoted).
		Run(func(mock.Arguments) { <-release }).
		Return(nil, nil)

	p, err := f.coord.Begin(context.Background(), admin, Move{LeadID: 1, ToStage: models.StageQuoted})
	require.NoError(t, err)

	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 0).Return(models.LeadList{
		Leads: []models.Lead{testdata.Lead(1, models.StageReception, nil)},
		Total: 1,
	}, nil)
	svc := NewSyncService(lister, f.coord, SyncOptions{Logger: logger.Discard()})

	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Kept)

	cached, _ := f.cache.Get(1)
	assert.Equal(t, models.StageQuoted, cached.Stage)

	close(release)
	_, err = p.Wait(context.Background())
	require.NoError(t, err)
}

func TestSyncService_RefreshKeepsMoveConfirmedDuringFetch(t *testing.T) {
	f := newCoordinatorFixture(t, testdata.Lead(1, models.StageReception, nil))
	f.remote.On("UpdateStage", mock.Anything, 1, models.StageQuoted).Return(nil, nil)

	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 0).
		Run(func(mock.Arguments) {
			// the move settles after the listing was read upstream but before it is merged
			_, err := f.coord.MoveStage(context.Background(), admin, Move{LeadID: 1, ToStage: models.StageQuoted})
			assert.NoError(t, err)
		}).
		Return(models.LeadList{
			Leads: []models.Lead{testdata.Lead(1, models.StageReception, nil)},
			Total: 1,
		}, nil)
	svc := NewSyncService(lister, f.coord, SyncOptions{Logger: logger.Discard()})

	report, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, store.MergeResult{Kept: 1}, report.MergeResult)
	cached, _ := f.cache.Get(1)
	assert.Equal(t, models.StageQuoted, cached.Stage)
	assert.Equal(t, []EventKind{EventMoved, EventConfirmed, EventSynced}, f.pub.kinds())

	// the next listing reflects the move and applies normally
	lister.ExpectedCalls = nil
	lister.On("ListLeads", mock.Anything, (*int)(nil), 0).Return(models.LeadList{
		Leads: []models.Lead{testdata.Lead(1, models.StageNegotiating, nil)},
		Total: 1,
	}, nil)
	report, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.MergeResult{Updated: 1}, report.MergeResult)
	cached, _ = f.cache.Get(1)
	assert.Equal(t, models.StageNegotiating, cached.Stage)
}

func TestSyncService_RefreshTruncatedListingRemovesNothing(t *testing.T) {
	f := newCoordinatorFixture(t,
		testdata.Lead(1, models.StageReception, nil),
		testdata.Lead(2, models.StageReception, nil),
		testdata.Lead(3, models.StageReception, nil),
	)
	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 1).Return(models.LeadList{
		Leads: []models.Lead{testdata.Lead(1, models.StageClosed, nil)},
		Total: 3,
	}, nil)
	svc := NewSyncService(lister, f.coord, SyncOptions{PageLimit: 1, Logger: logger.Discard()})

	report, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Equal(t, store.MergeResult{Updated: 1}, report.MergeResult)
	assert.Equal(t, 3, f.cache.Len())
	one, _ := f.cache.Get(1)
	assert.Equal(t, models.StageClosed, one.Stage)
}

func TestSyncService_RefreshFailureLeavesCache(t *testing.T) {
	f := newCoordinatorFixture(t, testdata.Lead(1, models.StageQuoted, nil))
	lister := new(MockLeadLister)
	lister.On("ListLeads", mock.Anything, (*int)(nil), 0).Return(nil, errors.New("upstream down"))
	m := metrics.New()
	svc := NewSyncService(lister, f.coord, SyncOptions{Logger: logger.Discard(), Metrics: m})

	_, err := svc.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, f.cache.Len())
	assert.Empty(t, f.pub.kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("error")))
}

func TestSyncService_Schedule(t *testing.T) {
	f := newCoordinatorFixture(t)
	lister := new(MockLeadLister)
	svc := NewSyncService(lister, f.coord, SyncOptions{Logger: logger.Discard()})

	assert.Error(t, svc.Start("every now and then"))

	require.NoError(t, svc.Start("@every 1h"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Stop(ctx))
	lister.AssertNotCalled(t, "ListLeads", mock.Anything, mock.Anything, mock.Anything)
}
