package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "signup_success"})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("delivered %d events, want 50", got)
	}
	if d.Delivered() != 50 {
		t.Fatalf("Delivered() = %d, want 50", d.Delivered())
	}

	d.Emit(context.Background(), Event{EventType: "after_close"})
	if got := sink.count.Load(); got != 50 {
		t.Fatal("events accepted after Close")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// one event held by the sink, one in the buffer, the rest dropped
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{})
	d.Emit(context.Background(), Event{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{})

	if d.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", d.Dropped())
	}
	close(sink.gate)
	d.Close()
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func TestDispatcherStripsSecretMetadata(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(context.Background(), Event{
		EventType: "federated_login_failure",
		Metadata: map[string]string{
			"stage":              "exchange",
			"Code":               "4/0Ab-auth-code",
			"id_token":           "eyJhbGciOi",
			"hash_needs_upgrade": "true",
		},
	})
	d.Close()

	if len(sink.events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(sink.events))
	}
	got := sink.events[0]
	if got.Timestamp.IsZero() {
		t.Fatal("expected Timestamp to be stamped")
	}
	if _, ok := got.Metadata["Code"]; ok {
		t.Fatal("authorization code reached the sink")
	}
	if _, ok := got.Metadata["id_token"]; ok {
		t.Fatal("id token reached the sink")
	}
	if got.Metadata["stage"] != "exchange" || got.Metadata["hash_needs_upgrade"] != "true" {
		t.Fatalf("unexpected metadata: %v", got.Metadata)
	}
}

func TestDispatcherDroppedByType(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	d.Emit(context.Background(), Event{EventType: "signup_success"})
	time.Sleep(10 * time.Millisecond) // relay now holds the first event
	d.Emit(context.Background(), Event{EventType: "signup_success"})
	d.Emit(context.Background(), Event{EventType: "login_failure"})
	d.Emit(context.Background(), Event{EventType: "login_failure"})

	byType := d.DroppedByType()
	if byType["login_failure"] != 2 || byType["signup_success"] != 0 {
		t.Fatalf("DroppedByType() = %v", byType)
	}
	if d.Dropped() != 2 {
		t.Fatalf("Dropped() = %d, want 2", d.Dropped())
	}

	close(sink.gate)
	d.Close()
	if d.Delivered() != 2 {
		t.Fatalf("Delivered() = %d, want 2", d.Delivered())
	}
	if len((*Dispatcher)(nil).DroppedByType()) != 0 {
		t.Fatal("nil dispatcher reported losses")
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 2}, &countingSink{})
	d.Close()
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher reported activity")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "signup_success", AccountID: "acc-1", Success: true})

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["event_type"] != "signup_success" || got["account_id"] != "acc-1" {
		t.Fatalf("unexpected record: %v", got)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{EventType: "login_success", Success: true})
	sink.Emit(context.Background(), Event{
		EventType: "login_failure",
		Error:     "invalid_credential",
		Metadata:  map[string]string{"reason": "password"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"level":"INFO"`) {
		t.Fatalf("success line not INFO: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"WARN"`) || !strings.Contains(lines[1], `"reason":"password"`) {
		t.Fatalf("failure line unexpected: %s", lines[1])
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	MultiSink{a, nil, b}.Emit(context.Background(), Event{})
	if a.count.Load() != 1 || b.count.Load() != 1 {
		t.Fatal("MultiSink did not reach every sink")
	}
}
