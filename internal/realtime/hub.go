// Package realtime fans record change events out from the store adapters to
// in-process subscribers. The hub is a buffered-channel pub/sub with a single
// consumer goroutine; the bridge on top shares one hub subscription per
// (entity, org) pair and reconciles events into local collections.
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/model"
)

type subKey struct {
	entity model.EntityType
	orgID  string
}

type subscriber struct {
	id int
	fn func(model.ChangeEvent)
}

// Hub is the in-process change event dispatcher. Stores publish into a
// buffered channel via Notify; a single consumer goroutine dispatches each
// event to the subscribers registered for its (entity, org) pair, which
// serialises delivery order per hub.
type Hub struct {
	mu      sync.RWMutex
	subs    map[subKey][]subscriber
	nextID  int
	events  chan model.ChangeEvent
	done    chan struct{}
	running bool
	logger  *zap.Logger

	onDispatch func(model.ChangeEvent)
	onDrop     func()
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) { h.logger = logger }
}

// WithBuffer sets the event channel buffer size.
func WithBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.events = make(chan model.ChangeEvent, size)
		}
	}
}

// WithDispatchHook sets a hook invoked after each dispatched event.
func WithDispatchHook(fn func(model.ChangeEvent)) HubOption {
	return func(h *Hub) { h.onDispatch = fn }
}

// WithDropHook sets a hook invoked when an event is dropped on a full buffer.
func WithDropHook(fn func()) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

// NewHub creates a stopped Hub. Call Start before publishing.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[subKey][]subscriber),
		events: make(chan model.ChangeEvent, 256),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Notify implements model.ChangeNotifier. It never blocks the publishing
// store: when the buffer is full the event is dropped and logged, and
// subscribers recover by re-reading the collection.
func (h *Hub) Notify(event model.ChangeEvent) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("event buffer full, dropping change event",
			zap.String("entity", string(event.Entity)),
			zap.String("type", string(event.Type)),
			zap.String("record_id", event.RecordID),
		)
		if h.onDrop != nil {
			h.onDrop()
		}
	}
}

// Subscribe registers fn for events on the given (entity, org) pair and
// returns an unsubscribe func. The callback runs on the consumer goroutine
// and must not block.
func (h *Hub) Subscribe(entity model.EntityType, orgID string, fn func(model.ChangeEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	key := subKey{entity: entity, orgID: orgID}
	h.subs[key] = append(h.subs[key], subscriber{id: id, fn: fn})

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[key]
		for i, s := range list {
			if s.id == id {
				h.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
	}
}

// Running reports whether the consumer goroutine is live.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Start launches the consumer goroutine. It dispatches until the context is
// cancelled, draining buffered events on the way out.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case event := <-h.events:
				h.dispatch(event)
			case <-ctx.Done():
				for {
					select {
					case event := <-h.events:
						h.dispatch(event)
					default:
						h.mu.Lock()
						h.running = false
						h.mu.Unlock()
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the consumer goroutine has exited.
func (h *Hub) Wait() {
	h.mu.RLock()
	done := h.done
	h.mu.RUnlock()
	<-done
}

func (h *Hub) dispatch(event model.ChangeEvent) {
	h.mu.RLock()
	list := append([]subscriber(nil), h.subs[subKey{entity: event.Entity, orgID: event.OrgID}]...)
	h.mu.RUnlock()

	for _, s := range list {
		s.fn(event)
	}
	if h.onDispatch != nil {
		h.onDispatch(event)
	}
}
