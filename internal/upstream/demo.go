package upstream

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"salescrm/internal/apperr"
	"salescrm/internal/models"
	"salescrm/internal/testdata"
)

type DemoOptions struct {
	Seed        int64
	Leads       int
	FailureRate float64 // share of stage updates answered with an upstream error
	Latency     time.Duration
	Now         func() time.Time
}

// Demo is an in-memory stand-in for the CRM API. It serves a fixed org chart:
// user 1 is admin, 2 is ceo, 3 and 4 lead teams {5,6} and {7,8}.
type Demo struct {
	mu      sync.Mutex
	leads   map[int]models.Lead
	users   []models.User
	faker   *gofakeit.Faker
	failure float64
	latency time.Duration
	now     func() time.Time
}

func NewDemo(opts DemoOptions) *Demo {
	if opts.Leads <= 0 {
		opts.Leads = 40
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	faker := gofakeit.New(opts.Seed)

	users := []models.User{
		{ID: 1, Role: "admin"},
		{ID: 2, Role: "ceo"},
		{ID: 3, Role: "leader"},
		{ID: 4, Role: "leader"},
		{ID: 5, Role: "sale", LeaderID: intPtr(3)},
		{ID: 6, Role: "sale", LeaderID: intPtr(3)},
		{ID: 7, Role: "sale", LeaderID: intPtr(4)},
		{ID: 8, Role: "sale", LeaderID: intPtr(4)},
	}
	for i := range users {
		users[i].Name = faker.Name()
		users[i].Email = faker.Email()
	}

	generated := testdata.GenerateLeads(testdata.LeadGeneratorConfig{
		Count:          opts.Leads,
		Seed:           opts.Seed,
		Owners:         []int{3, 4, 5, 6, 7, 8},
		UnassignedRate: 0.1,
		ValueChance:    0.6,
	})
	leads := make(map[int]models.Lead, len(generated))
	for _, l := range generated {
		leads[l.ID] = l
	}

	return &Demo{
		leads:   leads,
		users:   users,
		faker:   faker,
		failure: opts.FailureRate,
		latency: opts.Latency,
		now:     opts.Now,
	}
}

func (d *Demo) ListLeads(ctx context.Context, assignedTo *int, limit int) (models.LeadList, error) {
	if err := d.wait(ctx); err != nil {
		return models.LeadList{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.Lead, 0, len(d.leads))
	for _, l := range d.leads {
		if assignedTo != nil && !l.OwnedBy(*assignedTo) {
			continue
		}
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return models.LeadList{Leads: out, Total: total}, nil
}

func (d *Demo) UpdateStage(ctx context.Context, leadID int, stage models.Stage) (*models.Lead, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.leads[leadID]
	if !ok {
		return nil, fmt.Errorf("%w: lead %d", apperr.ErrNotFound, leadID)
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", apperr.ErrValidation, stage)
	}
	if d.failure > 0 && d.faker.Float64Range(0, 1) < d.failure {
		return nil, fmt.Errorf("%w: simulated failure", apperr.ErrRemote)
	}

	at := d.now().UTC()
	if !at.After(l.UpdatedAt) {
		at = l.UpdatedAt.Add(time.Nanosecond)
	}
	l.Stage = stage
	l.UpdatedAt = at
	if stage.Rank() >= models.StageConsulting.Rank() {
		l.LastContactedAt = &at
	}
	d.leads[leadID] = l
	out := l.Clone()
	return &out, nil
}

func (d *Demo) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.User, len(d.users))
	copy(out, d.users)
	return out, nil
}

// Delete drops a lead as if another client removed it upstream.
func (d *Demo) Delete(leadID int) {
	d.mu.Lock()
	delete(d.leads, leadID)
	d.mu.Unlock()
}

func (d *Demo) wait(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", apperr.ErrNetwork, ctx.Err())
		}
		return ctx.Err()
	}
}

func intPtr(v int) *int { return &v }
