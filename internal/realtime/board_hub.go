package realtime

import (
	"context"
	"errors"
	"sync"

	"salescrm/internal/authz"
	"salescrm/internal/logger"
	"salescrm/internal/metrics"
	"salescrm/internal/services"
)

// EventSnapshot is the first message of every subscription.
const EventSnapshot services.EventKind = "board.snapshot"

// ErrHubStopped is returned by Register once Run has returned.
var ErrHubStopped = errors.New("board hub stopped")

// Message is what a board subscriber receives: the event that caused it and the viewer's
// re-projected board.
type Message struct {
	Event      services.EventKind        `json:"event"`
	LeadID     int                       `json:"lead_id,omitempty"`
	MutationID string                    `json:"mutation_id,omitempty"`
	Error      string                    `json:"error,omitempty"`
	Board      []services.PipelineColumn `json:"board"`
}

type BoardSource interface {
	Board(viewer authz.Viewer) services.Board
}

// Subscriber is one open board view.
type Subscriber struct {
	Viewer authz.Viewer
	send   chan Message
	once   sync.Once
}

// Messages is closed when the subscriber is unregistered or the hub stops.
func (s *Subscriber) Messages() <-chan Message {
	return s.send
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// BoardHub fans cache events out to every subscriber with a board projected for that
// subscriber's viewer. It implements services.Publisher.
type BoardHub struct {
	source  BoardSource
	log     logger.Logger
	metrics *metrics.Metrics
	events  chan services.Event
	buffer  int

	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	stopped bool
}

func NewBoardHub(source BoardSource, log logger.Logger, m *metrics.Metrics) *BoardHub {
	if log == nil {
		log = logger.Default()
	}
	return &BoardHub{
		source:  source,
		log:     log.With("component", "board_hub"),
		metrics: m,
		events:  make(chan services.Event, 256),
		buffer:  16,
		subs:    make(map[*Subscriber]struct{}),
	}
}

// Publish never blocks; when the queue is full the event is dropped, the next one carries the
// full board anyway.
func (h *BoardHub) Publish(ev services.Event) {
	select {
	case h.events <- ev:
	default:
		h.log.Warn("board event dropped, queue full", "event", ev.Kind, "lead_id", ev.LeadID)
	}
}

// Register opens a subscription and queues the current board as its first message.
// It fails with ErrHubStopped during shutdown, since nothing would close the subscription.
func (h *BoardHub) Register(viewer authz.Viewer) (*Subscriber, error) {
	sub := &Subscriber{Viewer: viewer, send: make(chan Message, h.buffer)}
	sub.send <- Message{Event: EventSnapshot, Board: h.source.Board(viewer).Columns()}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.metrics.SubscriberDelta(1)
	return sub, nil
}

// Unregister only ends the subscription; it never touches pending stage changes.
func (h *BoardHub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		sub.close()
		h.metrics.SubscriberDelta(-1)
	}
}

func (h *BoardHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run delivers events until ctx ends, then closes every subscription.
func (h *BoardHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.events:
			h.broadcast(ev)
		}
	}
}

func (h *BoardHub) broadcast(ev services.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		msg := Message{
			Event:      ev.Kind,
			LeadID:     ev.LeadID,
			MutationID: ev.MutationID,
			Error:      ev.Error,
			Board:      h.source.Board(sub.Viewer).Columns(),
		}
		select {
		case sub.send <- msg:
		default:
			h.log.Warn("slow board subscriber, message dropped", "viewer_id", sub.Viewer.ID, "event", ev.Kind)
		}
	}
}

func (h *BoardHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for sub := range h.subs {
		sub.close()
		delete(h.subs, sub)
		h.metrics.SubscriberDelta(-1)
	}
}
