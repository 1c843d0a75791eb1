package events

import (
	"context"
	"testing"
	"time"

	"reelqueue/internal/task"
)

func TestPublishAssignsSequence(t *testing.T) {
	hub := NewHub(8)
	hub.Publish(Event{Kind: KindTaskAdded, TaskID: "a"})
	hub.Publish(Event{Kind: KindStatusChanged, TaskID: "a", Status: task.StatusProcessing})

	events, next := hub.Tail(10)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Sequence != 1 || events[1].Sequence != 2 || next != 2 {
		t.Fatalf("unexpected sequences: %d %d next=%d", events[0].Sequence, events[1].Sequence, next)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be stamped")
	}
}

func TestBufferRollsOver(t *testing.T) {
	hub := NewHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(Event{Kind: KindProgress})
	}
	events, _ := hub.Tail(10)
	if len(events) != 3 {
		t.Fatalf("expected capacity-bounded buffer, got %d", len(events))
	}
	if events[0].Sequence != 3 {
		t.Fatalf("oldest surviving event should be seq 3, got %d", events[0].Sequence)
	}
}

func TestFetchSince(t *testing.T) {
	hub := NewHub(8)
	for i := 0; i < 4; i++ {
		hub.Publish(Event{Kind: KindProgress})
	}
	events, next, err := hub.Fetch(context.Background(), 2, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 3 || next != 4 {
		t.Fatalf("unexpected fetch result: %d events next=%d", len(events), next)
	}
}

func TestFetchWaitsForEvent(t *testing.T) {
	hub := NewHub(8)
	done := make(chan Event, 1)
	go func() {
		events, _, _ := hub.Fetch(context.Background(), 0, 1, true)
		if len(events) == 1 {
			done <- events[0]
		}
	}()
	time.Sleep(10 * time.Millisecond)
	hub.Publish(Event{Kind: KindQueuePaused})

	select {
	case evt := <-done:
		if evt.Kind != KindQueuePaused {
			t.Fatalf("unexpected event kind: %q", evt.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch never woke up")
	}
}

func TestFetchHonorsContext(t *testing.T) {
	hub := NewHub(8)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := hub.Fetch(ctx, 0, 1, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestSinksReceiveEveryEvent(t *testing.T) {
	hub := NewHub(8)
	var got []Event
	hub.AddSink(SinkFunc(func(evt Event) { got = append(got, evt) }))
	hub.Publish(Event{Kind: KindTaskAdded})
	hub.Publish(Event{Kind: KindTaskRemoved})
	if len(got) != 2 {
		t.Fatalf("sink saw %d events, want 2", len(got))
	}
}
