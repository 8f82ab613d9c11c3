package audit

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// secretKeys are metadata keys stripped before an event reaches a sink.
var secretKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"code":          {},
	"access_token":  {},
	"id_token":      {},
	"refresh_token": {},
	"client_secret": {},
}

// Dispatcher relays account events to a sink on its own goroutine, so signup
// and login calls never wait on sink I/O.
//
// With DropIfFull set, a full buffer loses the event. Otherwise Emit waits for
// space until ctx ends. Either way the loss is counted, in total and per event
// type.
type Dispatcher struct {
	cfg  Config
	sink Sink

	mu     sync.RWMutex // guards closed and sends on queue
	closed bool
	queue  chan Event
	idle   chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64

	lossMu sync.Mutex
	losses map[string]uint64
}

// NewDispatcher returns nil when cfg.Enabled is false. A nil *Dispatcher is
// safe to use and discards everything.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:    cfg,
		sink:   sink,
		queue:  make(chan Event, cfg.BufferSize),
		idle:   make(chan struct{}),
		losses: make(map[string]uint64),
	}
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer close(d.idle)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// Emit queues event for delivery. A zero Timestamp is stamped with the
// current time and secret-looking metadata keys are removed.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = scrub(event)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		default:
			d.lose(event.EventType)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.lose(event.EventType)
	}
}

func (d *Dispatcher) lose(eventType string) {
	d.dropped.Add(1)
	d.lossMu.Lock()
	d.losses[eventType]++
	d.lossMu.Unlock()
}

func scrub(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if len(event.Metadata) == 0 {
		return event
	}

	clean := make(map[string]string, len(event.Metadata))
	for k, v := range event.Metadata {
		if isSecretKey(k) {
			continue
		}
		clean[k] = v
	}
	event.Metadata = clean
	return event
}

func isSecretKey(key string) bool {
	_, ok := secretKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Close stops accepting events and returns once every queued event has
// reached the sink. Blocked Emit calls finish before the queue is closed.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.idle
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType returns a copy of the per-event-type loss counts.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	d.lossMu.Lock()
	defer d.lossMu.Unlock()
	for k, v := range d.losses {
		out[k] = v
	}
	return out
}

func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
