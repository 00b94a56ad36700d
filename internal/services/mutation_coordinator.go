package services

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salescrm/internal/apperr"
	"salescrm/internal/authz"
	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/models"
	"salescrm/internal/store"
)

const DefaultMutationTimeout = 30 * time.Second

// StageUpdater is the upstream PUT /leads/{id}/stage call.
// A nil lead with a nil error means the upstream accepted the change without echoing it.
type StageUpdater interface {
	UpdateStage(ctx context.Context, leadID int, stage models.Stage) (*models.Lead, error)
}

// HistoryRecorder stores confirmed stage changes.
type HistoryRecorder interface {
	Record(ctx context.Context, change models.StageChange) error
}

type EventKind string

const (
	EventMoved      EventKind = "lead.moved"
	EventConfirmed  EventKind = "lead.confirmed"
	EventRolledBack EventKind = "lead.rolled_back"
	EventSynced     EventKind = "board.synced"
)

type Event struct {
	Kind       EventKind `json:"event"`
	LeadID     int       `json:"lead_id,omitempty"`
	MutationID string    `json:"mutation_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Publisher is told about every change of the lead cache. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// Publishers fans one event out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(ev Event) {
	for _, p := range ps {
		p.Publish(ev)
	}
}

// Move is the (lead, from column, to column) triple produced by a drag on the board.
// FromStage is optional; when set it must still match the cached stage.
type Move struct {
	LeadID    int
	FromStage models.Stage
	ToStage   models.Stage
}

type CoordinatorOptions struct {
	Timeout   time.Duration
	Now       func() time.Time
	Logger    logger.Logger
	Metrics   *metrics.Metrics
	History   HistoryRecorder
	Publisher Publisher
}

// Pending is an optimistically applied stage change waiting for the upstream answer.
type Pending struct {
	ID         string
	LeadID     int
	ActorID    int
	From       models.Stage
	To         models.Stage
	Optimistic models.Lead

	snapshot models.Lead
	done     chan struct{}
	result   models.Lead
	err      error
}

// Done is closed once the change is confirmed or rolled back.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the change resolves or ctx ends. Giving up on ctx only stops waiting;
// reconciliation still happens.
func (p *Pending) Wait(ctx context.Context) (models.Lead, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return models.Lead{}, ctx.Err()
	}
}

// Coordinator applies stage changes to the cache before the upstream confirms them and
// reverts them when it does not.
type Coordinator struct {
	cache   *store.LeadCache
	remote  StageUpdater
	timeout time.Duration
	now     func() time.Time
	log     logger.Logger
	metrics *metrics.Metrics
	history HistoryRecorder
	pub     Publisher

	mu       sync.Mutex
	inflight map[int]*Pending
	wg       sync.WaitGroup
}

func NewCoordinator(cache *store.LeadCache, remote StageUpdater, opts CoordinatorOptions) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultMutationTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Coordinator{
		cache:    cache,
		remote:   remote,
		timeout:  opts.Timeout,
		now:      opts.Now,
		log:      opts.Logger.With("component", "coordinator"),
		metrics:  opts.Metrics,
		history:  opts.History,
		pub:      opts.Publisher,
		inflight: make(map[int]*Pending),
	}
}

// Begin validates mv, applies it to the cache and starts the upstream call.
// Rejections leave the cache untouched.
func (c *Coordinator) Begin(ctx context.Context, viewer authz.Viewer, mv Move) (*Pending, error) {
	// a request that is already gone must not start a mutation it cannot report on
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.apply(viewer, mv)
	if err != nil {
		c.metrics.MutationOutcome("rejected_" + outcomeKind(err))
		c.log.Info("stage change rejected",
			"lead_id", mv.LeadID, "to", mv.ToStage, "viewer_id", viewer.ID, "error", err)
		return nil, err
	}

	c.metrics.PendingInc()
	c.log.Info("stage change applied",
		"lead_id", p.LeadID, "mutation_id", p.ID, "from", p.From, "to", p.To, "viewer_id", viewer.ID)
	c.publish(Event{Kind: EventMoved, LeadID: p.LeadID, MutationID: p.ID})

	go c.reconcile(p)
	return p, nil
}

// MoveStage is Begin followed by Wait.
func (c *Coordinator) MoveStage(ctx context.Context, viewer authz.Viewer, mv Move) (models.Lead, error) {
	p, err := c.Begin(ctx, viewer, mv)
	if err != nil {
		return models.Lead{}, err
	}
	return p.Wait(ctx)
}

func (c *Coordinator) apply(viewer authz.Viewer, mv Move) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.cache.Get(mv.LeadID)
	if !ok {
		return nil, apperr.New("move", mv.LeadID, apperr.ErrNotFound)
	}
	if !CanTransition(current.Stage, mv.ToStage) {
		return nil, apperr.New("move", mv.LeadID, apperr.ErrTransition)
	}
	if !authz.CanMutateStage(current, viewer) {
		return nil, apperr.New("move", mv.LeadID, apperr.ErrAuthorization)
	}
	if _, busy := c.inflight[mv.LeadID]; busy {
		return nil, apperr.New("move", mv.LeadID, apperr.ErrConflict)
	}
	if mv.FromStage != "" && mv.FromStage != current.Stage {
		return nil, apperr.Wrap("move", mv.LeadID, apperr.ErrConflict,
			errors.New("card was dragged from "+string(mv.FromStage)+" but sits in "+string(current.Stage)))
	}

	next := ApplyTransition(current, mv.ToStage, c.now())
	c.cache.ReplaceIfPresent(next)

	p := &Pending{
		ID:         uuid.NewString(),
		LeadID:     mv.LeadID,
		ActorID:    viewer.ID,
		From:       current.Stage,
		To:         mv.ToStage,
		Optimistic: next.Clone(),
		snapshot:   current,
		done:       make(chan struct{}),
	}
	c.inflight[mv.LeadID] = p
	c.wg.Add(1)
	return p, nil
}

func (c *Coordinator) reconcile(p *Pending) {
	defer c.wg.Done()
	// waiters see the outcome only after events and history are out
	defer close(p.done)

	// detached from the request: tearing down the view must not cancel reconciliation
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	server, err := c.remote.UpdateStage(ctx, p.LeadID, p.To)
	c.metrics.ObserveRemote(err == nil, time.Since(start))

	log := c.log.With("lead_id", p.LeadID, "mutation_id", p.ID)

	c.mu.Lock()
	delete(c.inflight, p.LeadID)
	if err != nil {
		c.cache.ReplaceIfPresent(p.snapshot)
		me := apperr.Wrap("move", p.LeadID, remoteKind(err), err)
		me.RolledBack = true
		p.err = me
		p.result = p.snapshot.Clone()
	} else {
		p.result = c.confirmed(p, server, log)
		c.cache.ReplaceIfPresent(p.result)
	}
	c.mu.Unlock()
	c.metrics.PendingDec()

	if p.err != nil {
		c.metrics.MutationOutcome("rolled_back")
		log.Warn("stage change rolled back", "from", p.From, "to", p.To, "error", err)
		c.publish(Event{Kind: EventRolledBack, LeadID: p.LeadID, MutationID: p.ID, Error: p.err.Error()})
		return
	}

	c.metrics.MutationOutcome("confirmed")
	log.Info("stage change confirmed", "from", p.From, "to", p.result.Stage)
	c.publish(Event{Kind: EventConfirmed, LeadID: p.LeadID, MutationID: p.ID})

	if c.history != nil {
		hctx, hcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer hcancel()
		change := models.StageChange{
			LeadID:     p.LeadID,
			ActorID:    p.ActorID,
			MutationID: p.ID,
			FromStage:  p.From,
			ToStage:    p.result.Stage,
			CreatedAt:  p.result.UpdatedAt,
		}
		if err := c.history.Record(hctx, change); err != nil {
			log.Error("failed to record stage history", "error", err)
		}
	}
}

// confirmed picks the value to keep after a successful upstream call: the server's lead when
// it sent a usable one, the optimistic value otherwise.
func (c *Coordinator) confirmed(p *Pending, server *models.Lead, log logger.Logger) models.Lead {
	if server == nil {
		return p.Optimistic.Clone()
	}
	candidate := server.Clone()
	candidate.ID = p.LeadID
	lead, err := ValidateLead(candidate)
	if err != nil {
		log.Warn("upstream returned an invalid lead, keeping optimistic value", "error", err)
		return p.Optimistic.Clone()
	}
	return lead
}

// Epoch marks the cache state a sync listing is compared against. Take it before fetching.
func (c *Coordinator) Epoch() uint64 {
	return c.cache.Epoch()
}

// MergeSynced folds a fresh upstream listing into the cache. Leads with a change in flight
// keep their optimistic value, and leads the coordinator wrote after since keep the settled
// value the listing may predate. prune drops cached ids the listing no longer returns.
func (c *Coordinator) MergeSynced(fresh []models.Lead, since uint64, prune bool) store.MergeResult {
	c.mu.Lock()
	res := c.cache.Merge(fresh, store.MergeOptions{
		Keep: func(id int) bool {
			_, busy := c.inflight[id]
			return busy
		},
		Since: since,
		Prune: prune,
	})
	c.mu.Unlock()
	c.publish(Event{Kind: EventSynced})
	return res
}

// InFlight lists the lead ids with an unresolved change.
func (c *Coordinator) InFlight() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.inflight))
	for id := range c.inflight {
		ids = append(ids, id)
	}
	return ids
}

// Close waits for every in-flight change to resolve or for ctx to end.
func (c *Coordinator) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) publish(ev Event) {
	if c.pub != nil {
		c.pub.Publish(ev)
	}
}

// remoteKind classifies an upstream failure. Kinds already attached by the client win.
func remoteKind(err error) error {
	if k := apperr.Kind(err); k != nil {
		return k
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return apperr.ErrNetwork
	}
	return apperr.ErrRemote
}

func outcomeKind(err error) string {
	k := apperr.Kind(err)
	if k == nil {
		return "unknown"
	}
	switch k {
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrTransition:
		return "transition"
	case apperr.ErrAuthorization:
		return "authorization"
	case apperr.ErrConflict:
		return "conflict"
	}
	return strings.ReplaceAll(k.Error(), " ", "_")
}
