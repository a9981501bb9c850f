package progress

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func TestChannel_PublishOrdering(t *testing.T) {
	c := New()
	sub := c.Subscribe(context.Background(), "s1")

	for i := 0; i < 5; i++ {
		c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventProgress, Payload: map[string]any{"i": i}})
	}
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventComplete})

	var got []mealmodel.ProgressEventKind
	for evt := range sub.Events {
		got = append(got, evt.Kind)
		if evt.Kind == mealmodel.EventClose {
			break
		}
	}

	if len(got) != 7 {
		t.Fatalf("got %d events, want 7 (5 progress + complete + close), got kinds=%v", len(got), got)
	}
	for i := 0; i < 5; i++ {
		if got[i] != mealmodel.EventProgress {
			t.Errorf("event %d = %q, want progress", i, got[i])
		}
	}
	if got[5] != mealmodel.EventComplete {
		t.Errorf("event 5 = %q, want complete", got[5])
	}
	if got[6] != mealmodel.EventClose {
		t.Errorf("event 6 = %q, want close (last event)", got[6])
	}
}

func TestChannel_BufferedUntilSubscribed(t *testing.T) {
	c := New()
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventProgress, Payload: map[string]any{"i": 1}})
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventProgress, Payload: map[string]any{"i": 2}})

	sub := c.Subscribe(context.Background(), "s1")
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventComplete})

	var kinds []mealmodel.ProgressEventKind
	for evt := range sub.Events {
		kinds = append(kinds, evt.Kind)
		if evt.Kind == mealmodel.EventClose {
			break
		}
	}
	if len(kinds) != 4 {
		t.Fatalf("got %d buffered+live events, want 4, got %v", len(kinds), kinds)
	}
}

func TestChannel_HeartbeatOnIdle(t *testing.T) {
	c := New()
	c.heartbeatInterval = 10 * time.Millisecond
	sub := c.Subscribe(context.Background(), "s1")

	select {
	case evt := <-sub.Events:
		if evt.Kind != mealmodel.EventHeartbeat {
			t.Fatalf("event = %q, want heartbeat", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for heartbeat")
	}
	sub.Cancel()
}

func TestChannel_CancelDoesNotAffectOtherSubscribers(t *testing.T) {
	c := New()
	sub1 := c.Subscribe(context.Background(), "s1")
	sub2 := c.Subscribe(context.Background(), "s1")

	sub1.Cancel()
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventProgress})

	select {
	case evt := <-sub2.Events:
		if evt.Kind != mealmodel.EventProgress {
			t.Fatalf("event = %q, want progress", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("sub2 never received event after sub1 was cancelled")
	}
}

func TestChannel_DropsOldestBeyondCap(t *testing.T) {
	c := New()
	c.bufferCap = 2
	for i := 0; i < 5; i++ {
		c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventProgress, Payload: map[string]any{"i": i}})
	}

	sub := c.Subscribe(context.Background(), "s1")
	c.Publish("s1", mealmodel.ProgressEvent{Kind: mealmodel.EventComplete})

	var payloads []any
	for evt := range sub.Events {
		if evt.Kind == mealmodel.EventProgress {
			payloads = append(payloads, evt.Payload["i"])
		}
		if evt.Kind == mealmodel.EventClose {
			break
		}
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d buffered progress events, want 2 (cap), got %v", len(payloads), payloads)
	}
	if payloads[0] != 3 || payloads[1] != 4 {
		t.Errorf("payloads = %v, want oldest dropped (3,4)", payloads)
	}
}
