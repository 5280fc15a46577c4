package events

import (
	"context"
	"testing"
	"time"
)

func TestBus_PublishThenSubscribeReplays(t *testing.T) {
	bus := NewBus()

	bus.Publish("sess-1", Event{Type: "partial", Data: map[string]int{"chunk_index": 0}})
	bus.Publish("sess-1", Event{Type: "partial", Data: map[string]int{"chunk_index": 1}})
	bus.Publish("sess-1", Event{Type: "partial", Data: map[string]int{"chunk_index": 2}})
	bus.Complete("sess-1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var received []Event
	for e := range bus.Subscribe(ctx, "sess-1") {
		received = append(received, e)
	}

	if len(received) != 4 {
		t.Fatalf("expected 3 partials + complete, got %d events", len(received))
	}
	for i := 0; i < 3; i++ {
		idx := received[i].Data.(map[string]int)["chunk_index"]
		if idx != i {
			t.Errorf("expected chunk_index %d at position %d, got %d", i, i, idx)
		}
	}
	if received[3].Type != "complete" {
		t.Errorf("expected last event to be complete, got %s", received[3].Type)
	}
}

func TestBus_LiveSubscriberReceivesSubsequentEvents(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := bus.Subscribe(ctx, "sess-2")

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Publish("sess-2", Event{Type: "partial", Data: "hello"})
		bus.Complete("sess-2")
	}()

	var received []Event
	for e := range ch {
		received = append(received, e)
	}

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != "partial" || received[1].Type != "complete" {
		t.Errorf("unexpected event sequence: %+v", received)
	}
}

func TestBus_RingBufferDropsOldest(t *testing.T) {
	bus := &Bus{sessions: make(map[string]*session), capacity: 2}

	bus.Publish("sess-3", Event{Type: "partial", Data: 1})
	bus.Publish("sess-3", Event{Type: "partial", Data: 2})
	bus.Publish("sess-3", Event{Type: "partial", Data: 3})
	bus.Complete("sess-3")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var received []Event
	for e := range bus.Subscribe(ctx, "sess-3") {
		received = append(received, e)
	}

	// capacity 2 means only the most recent partial plus complete survive.
	if len(received) != 2 {
		t.Fatalf("expected 2 surviving events, got %d", len(received))
	}
	if received[0].Data.(int) != 3 {
		t.Errorf("expected surviving partial to be the latest (3), got %v", received[0].Data)
	}
	if received[1].Type != "complete" {
		t.Errorf("expected complete as last event, got %s", received[1].Type)
	}
}

func TestBus_SubscriberCancelStopsChannel(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx, "sess-4")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close without emitting an event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestFormat_WithAndWithoutEventType(t *testing.T) {
	out, err := Format("partial", map[string]int{"chunk_index": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "event: partial\ndata: {\"chunk_index\":1}\n\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	out, err = Format("", "ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "data: \"ping\"\n\n" {
		t.Errorf("got %q", out)
	}
}
