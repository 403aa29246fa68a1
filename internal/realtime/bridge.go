package realtime

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/model"
)

// Status describes the bridge connection state, derived from what the bridge
// holds rather than tracked as a separate state machine.
type Status string

// Bridge statuses.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Callbacks receives events for one consumer. Any callback may be nil.
// Failures are delivered through OnError only; a panicking consumer never
// takes down its siblings.
type Callbacks struct {
	OnInsert func(model.DataRecord)
	OnUpdate func(model.DataRecord)
	OnDelete func(recordID string)
	OnError  func(error)
}

type consumerSet struct {
	unsubscribe func()
	consumers   map[int]Callbacks
}

// Bridge multiplexes hub subscriptions. All consumers of one (entity, org)
// pair share a single hub subscription, so the subscription count is bounded
// by distinct pairs rather than by view instances.
type Bridge struct {
	hub    *Hub
	logger *zap.Logger

	mu       sync.Mutex
	channels map[subKey]*consumerSet
	nextID   int
	lastErr  error
}

// NewBridge creates a Bridge over the given hub.
func NewBridge(hub *Hub, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		hub:      hub,
		logger:   logger,
		channels: make(map[subKey]*consumerSet),
	}
}

// Subscribe registers callbacks for changes on (entity, orgID) and returns an
// unsubscribe func. Unsubscribing is idempotent; when the last consumer of a
// pair leaves, the underlying hub subscription is released.
func (b *Bridge) Subscribe(entity model.EntityType, orgID string, cb Callbacks) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := subKey{entity: entity, orgID: orgID}
	set, ok := b.channels[key]
	if !ok {
		set = &consumerSet{consumers: make(map[int]Callbacks)}
		set.unsubscribe = b.hub.Subscribe(entity, orgID, func(event model.ChangeEvent) {
			b.deliver(key, event)
		})
		b.channels[key] = set
	}

	b.nextID++
	id := b.nextID
	set.consumers[id] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			set, ok := b.channels[key]
			if !ok {
				return
			}
			delete(set.consumers, id)
			if len(set.consumers) == 0 {
				set.unsubscribe()
				delete(b.channels, key)
			}
		})
	}
}

// SubscribeAll registers the callbacks for changes on every entity type in
// one call and returns a single unsubscribe releasing all of them. Each
// entity still shares its hub subscription with other consumers of the same
// (entity, org) pair.
func (b *Bridge) SubscribeAll(orgID string, cb Callbacks) func() {
	entities := model.AllEntityTypes()
	unsubs := make([]func(), 0, len(entities))
	for _, entity := range entities {
		unsubs = append(unsubs, b.Subscribe(entity, orgID, cb))
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range unsubs {
				unsub()
			}
		})
	}
}

// Status derives the connection state: disconnected with no subscriptions,
// connecting while the hub consumer is not yet running, error after a
// delivery failure, connected otherwise.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case len(b.channels) == 0:
		return StatusDisconnected
	case !b.hub.Running():
		return StatusConnecting
	case b.lastErr != nil:
		return StatusError
	default:
		return StatusConnected
	}
}

// SubscriptionCount returns the number of registered consumers across all
// (entity, org) pairs.
func (b *Bridge) SubscriptionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.channels {
		n += len(set.consumers)
	}
	return n
}

// Cleanup releases every subscription. It is idempotent, and the bridge
// stays usable: new Subscribe calls after Cleanup work normally.
func (b *Bridge) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, set := range b.channels {
		set.unsubscribe()
		delete(b.channels, key)
	}
	b.lastErr = nil
}

func (b *Bridge) deliver(key subKey, event model.ChangeEvent) {
	b.mu.Lock()
	set, ok := b.channels[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	consumers := make([]Callbacks, 0, len(set.consumers))
	for _, cb := range set.consumers {
		consumers = append(consumers, cb)
	}
	b.mu.Unlock()

	for _, cb := range consumers {
		b.dispatchOne(cb, event)
	}
}

// dispatchOne delivers one event to one consumer, converting panics into
// OnError so a broken consumer cannot crash siblings sharing the
// subscription.
func (b *Bridge) dispatchOne(cb Callbacks, event model.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("realtime callback panic: %v", r)
			b.mu.Lock()
			b.lastErr = err
			b.mu.Unlock()
			b.logger.Error("realtime callback panicked",
				zap.String("entity", string(event.Entity)),
				zap.String("type", string(event.Type)),
				zap.Any("panic", r),
			)
			if cb.OnError != nil {
				cb.OnError(err)
			}
		}
	}()

	switch event.Type {
	case model.ChangeInsert:
		if cb.OnInsert != nil {
			cb.OnInsert(event.Record)
		}
	case model.ChangeUpdate:
		if cb.OnUpdate != nil {
			cb.OnUpdate(event.Record)
		}
	case model.ChangeDelete:
		if cb.OnDelete != nil {
			cb.OnDelete(event.RecordID)
		}
	default:
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("unknown change type %q", event.Type))
		}
	}
}

// Reconcile applies one change event to a local collection and returns the
// updated collection. Inserts for unseen ids append, updates replace by id
// (an update for an unseen id appends, covering events that raced a list
// load), deletes remove by id. Filtering is a view concern: events outside
// the current filter still apply here.
func Reconcile(collection []model.DataRecord, event model.ChangeEvent) []model.DataRecord {
	switch event.Type {
	case model.ChangeInsert, model.ChangeUpdate:
		for i, rec := range collection {
			if rec.ID() == event.RecordID {
				collection[i] = event.Record
				return collection
			}
		}
		return append(collection, event.Record)
	case model.ChangeDelete:
		for i, rec := range collection {
			if rec.ID() == event.RecordID {
				return append(collection[:i], collection[i+1:]...)
			}
		}
	}
	return collection
}
