package services

import (
	"context"
	"fmt"

	"salescrm/internal/authz"
	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/models"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// RosterStore caches team rosters between requests. cache.RosterCache implements it over Redis.
type RosterStore interface {
	Get(ctx context.Context, leaderID int) ([]int, bool, error)
	Set(ctx context.Context, leaderID int, ids []int) error
	InvalidateAll(ctx context.Context) error
}

// RosterService builds the Viewer of a request. Only leaders need a roster; it is the
// leader plus every user whose leaderId points at them.
type RosterService struct {
	users   UserLister
	store   RosterStore
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewRosterService accepts a nil store; rosters are then fetched on every request.
func NewRosterService(users UserLister, store RosterStore, log logger.Logger, m *metrics.Metrics) *RosterService {
	if log == nil {
		log = logger.Default()
	}
	return &RosterService{users: users, store: store, log: log.With("component", "roster"), metrics: m}
}

func (s *RosterService) ViewerFor(ctx context.Context, userID int, role authz.Role) (authz.Viewer, error) {
	v := authz.Viewer{ID: userID, Role: role}
	if role != authz.RoleLeader {
		return v, nil
	}
	roster, err := s.Roster(ctx, userID)
	if err != nil {
		return authz.Viewer{}, err
	}
	v.Roster = roster
	return v, nil
}

func (s *RosterService) Roster(ctx context.Context, leaderID int) (authz.Roster, error) {
	if s.store != nil {
		ids, ok, err := s.store.Get(ctx, leaderID)
		if err != nil {
			// a broken cache must not lock leaders out of their board
			s.log.Warn("roster cache read failed", "leader_id", leaderID, "error", err)
		} else if ok {
			s.metrics.RosterLookup(true)
			return authz.NewRoster(ids...), nil
		}
	}
	s.metrics.RosterLookup(false)

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster of leader %d: %w", leaderID, err)
	}
	roster := BuildRoster(leaderID, users)

	if s.store != nil {
		if err := s.store.Set(ctx, leaderID, roster.IDs()); err != nil {
			s.log.Warn("roster cache write failed", "leader_id", leaderID, "error", err)
		}
	}
	return roster, nil
}

// Invalidate forgets every cached roster so the next request reloads GET /users.
func (s *RosterService) Invalidate(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.InvalidateAll(ctx)
}

// BuildRoster returns leaderID and the users reporting to it.
func BuildRoster(leaderID int, users []models.User) authz.Roster {
	roster := authz.NewRoster(leaderID)
	for _, u := range users {
		if u.LeaderID != nil && *u.LeaderID == leaderID {
			roster[u.ID] = struct{}{}
		}
	}
	return roster
}
