package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salescrm/internal/authz"
	"salescrm/internal/cache"
	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/models"
)

type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func leaderOf(id int) *int { return &id }

var orgChart = []models.User{
	{ID: 1, Role: "admin"},
	{ID: 3, Role: "leader"},
	{ID: 4, Role: "leader"},
	{ID: 5, Role: "sale", LeaderID: leaderOf(3)},
	{ID: 6, Role: "sale", LeaderID: leaderOf(3)},
	{ID: 7, Role: "sale", LeaderID: leaderOf(4)},
}

func newRosterFixture(t *testing.T) (*RosterService, *MockUserLister, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := new(MockUserLister)
	m := metrics.New()
	svc := NewRosterService(users, cache.NewRosterCache(client, time.Minute), logger.Discard(), m)
	return svc, users, mr, m
}

func TestBuildRoster(t *testing.T) {
	assert.Equal(t, []int{3, 5, 6}, BuildRoster(3, orgChart).IDs())
	assert.Equal(t, []int{4, 7}, BuildRoster(4, orgChart).IDs())
	assert.Equal(t, []int{9}, BuildRoster(9, orgChart).IDs())
}

func TestRosterService_ViewerForNonLeaders(t *testing.T) {
	svc, users, _, _ := newRosterFixture(t)

	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleCEO, authz.RoleSale, "intern"} {
		v, err := svc.ViewerFor(context.Background(), 5, role)
		require.NoError(t, err)
		assert.Equal(t, authz.Viewer{ID: 5, Role: role}, v)
	}
	users.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestRosterService_LeaderRosterIsCached(t *testing.T) {
	svc, users, mr, m := newRosterFixture(t)
	users.On("ListUsers", mock.Anything).Return(orgChart, nil).Once()

	first, err := svc.ViewerFor(context.Background(), 3, authz.RoleLeader)
	require.NoError(t, err)
	second, err := svc.ViewerFor(context.Background(), 3, authz.RoleLeader)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 5, 6}, first.Roster.IDs())
	assert.Equal(t, first.Roster, second.Roster)
	assert.True(t, mr.Exists("pipeline:roster:3"))
	users.AssertNumberOfCalls(t, "ListUsers", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RosterCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RosterCacheMisses))
}

func TestRosterService_Invalidate(t *testing.T) {
	svc, users, _, _ := newRosterFixture(t)
	users.On("ListUsers", mock.Anything).Return(orgChart, nil).Twice()

	_, err := svc.Roster(context.Background(), 4)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Roster(context.Background(), 4)
	require.NoError(t, err)

	users.AssertNumberOfCalls(t, "ListUsers", 2)
}

func TestRosterService_UpstreamFailure(t *testing.T) {
	svc, users, _, _ := newRosterFixture(t)
	users.On("ListUsers", mock.Anything).Return(nil, errors.New("boom"))

	_, err := svc.ViewerFor(context.Background(), 3, authz.RoleLeader)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader 3")
}

func TestRosterService_RedisDownFallsBackToUpstream(t *testing.T) {
	svc, users, mr, _ := newRosterFixture(t)
	mr.Close()
	users.On("ListUsers", mock.Anything).Return(orgChart, nil)

	v, err := svc.ViewerFor(context.Background(), 3, authz.RoleLeader)

	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 6}, v.Roster.IDs())
}

func TestRosterService_WithoutStore(t *testing.T) {
	users := new(MockUserLister)
	users.On("ListUsers", mock.Anything).Return(orgChart, nil)
	svc := NewRosterService(users, nil, logger.Discard(), nil)

	v, err := svc.ViewerFor(context.Background(), 4, authz.RoleLeader)

	require.NoError(t, err)
	assert.True(t, v.Roster.Contains(7))
	assert.NoError(t, svc.Invalidate(context.Background()))
}
