package services

import (
	"context"

	"salescrm/internal/apperr"
	"salescrm/internal/authz"
	"salescrm/internal/models"
	"salescrm/internal/store"
)

type HistoryReader interface {
	ListByLead(ctx context.Context, leadID, limit int) ([]models.StageChange, error)
}

// LeadFilter narrows a visible listing. Zero values match everything.
type LeadFilter struct {
	Stage  models.Stage
	Status models.LeadStatus
	Source models.LeadSource
	Limit  int
	Offset int
}

// LeadService answers read queries against the cached working set, always through the viewer's
// visibility.
type LeadService struct {
	Cache       *store.LeadCache
	HistoryRepo HistoryReader
}

func NewLeadService(cache *store.LeadCache, history HistoryReader) *LeadService {
	return &LeadService{Cache: cache, HistoryRepo: history}
}

func (s *LeadService) Board(viewer authz.Viewer) Board {
	return Project(s.Cache.Snapshot(), viewer)
}

func (s *LeadService) List(viewer authz.Viewer, f LeadFilter) models.LeadList {
	visible := authz.VisibleLeads(s.Cache.Snapshot(), viewer)

	matched := make([]models.Lead, 0, len(visible))
	for _, l := range visible {
		if f.Stage != "" && l.Stage != f.Stage {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Source != "" && l.Source != f.Source {
			continue
		}
		matched = append(matched, l)
	}

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return models.LeadList{Leads: matched, Total: total}
}

// Get hides leads the viewer may not see behind ErrNotFound, so ids do not leak.
func (s *LeadService) Get(viewer authz.Viewer, id int) (models.Lead, error) {
	l, ok := s.Cache.Get(id)
	if !ok || !authz.CanMutateStage(l, viewer) {
		return models.Lead{}, apperr.New("get", id, apperr.ErrNotFound)
	}
	return l, nil
}

func (s *LeadService) History(ctx context.Context, viewer authz.Viewer, id, limit int) ([]models.StageChange, error) {
	if _, err := s.Get(viewer, id); err != nil {
		return nil, err
	}
	if s.HistoryRepo == nil {
		return []models.StageChange{}, nil
	}
	return s.HistoryRepo.ListByLead(ctx, id, limit)
}
