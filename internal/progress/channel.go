// Package progress implements the Progress Channel (C3): a
// per-session, multi-subscriber event fan-out with bounded buffering
// and an idle heartbeat. Publishing never blocks the caller; the
// streaming shape is grounded on the teacher's agent.LLMProvider.Complete
// channel-of-chunks pattern (internal/agent/provider_types.go).
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

// DefaultBufferCap is the recommended cap on queued-but-unconsumed
// events per session before the oldest is dropped (spec.md §4.3).
const DefaultBufferCap = 64

// DefaultHeartbeatInterval is how long a subscriber may go without an
// event before a heartbeat is synthesized (spec.md §4.3).
const DefaultHeartbeatInterval = 30 * time.Second

// subscriber is one live listener on a session's channel.
type subscriber struct {
	ch     chan mealmodel.ProgressEvent
	cancel context.CancelFunc
}

// sessionChannel holds the fan-out state for one session.
type sessionChannel struct {
	mu          sync.Mutex
	buffer      []mealmodel.ProgressEvent
	subscribers map[int]*subscriber
	nextSubID   int
	closed      bool
}

// Channel is the C3 implementation: one Channel instance serves every
// session in the process.
type Channel struct {
	mu               sync.Mutex
	sessions         map[string]*sessionChannel
	bufferCap        int
	heartbeatInterval time.Duration
	now              func() time.Time
}

// New creates a Channel with the recommended defaults.
func New() *Channel {
	return &Channel{
		sessions:          make(map[string]*sessionChannel),
		bufferCap:         DefaultBufferCap,
		heartbeatInterval: DefaultHeartbeatInterval,
		now:               time.Now,
	}
}

func (c *Channel) sessionFor(sessionID string) *sessionChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.sessions[sessionID]
	if !ok {
		sc = &sessionChannel{subscribers: make(map[int]*subscriber)}
		c.sessions[sessionID] = sc
	}
	return sc
}

// Publish delivers event to every live subscriber of sessionID without
// blocking the caller. With no subscriber attached, the event is queued
// up to bufferCap, dropping the oldest beyond it (spec.md §4.3).
func (c *Channel) Publish(sessionID string, event mealmodel.ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	sc := c.sessionFor(sessionID)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}

	if len(sc.subscribers) == 0 {
		sc.buffer = append(sc.buffer, event)
		if len(sc.buffer) > c.bufferCap {
			sc.buffer = sc.buffer[len(sc.buffer)-c.bufferCap:]
		}
	}

	for _, sub := range sc.subscribers {
		select {
		case sub.ch <- event:
		default:
			// Best-effort: a slow subscriber never blocks the publisher.
		}
	}

	if event.Kind == mealmodel.EventComplete || event.Kind == mealmodel.EventError {
		closeEvt := mealmodel.ProgressEvent{Kind: mealmodel.EventClose, Timestamp: c.now()}
		for _, sub := range sc.subscribers {
			select {
			case sub.ch <- closeEvt:
			default:
			}
		}
	}
}

// Subscription is a cancelable stream of future events for one session.
type Subscription struct {
	Events <-chan mealmodel.ProgressEvent
	cancel func()
}

// Cancel removes the subscriber without affecting the publisher or
// other subscribers (spec.md §4.3).
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Subscribe attaches a new listener to sessionID. Any events buffered
// while no subscriber was attached are replayed first, in publication
// order. A background heartbeat timer emits EventHeartbeat if no event
// arrives within heartbeatInterval.
func (c *Channel) Subscribe(ctx context.Context, sessionID string) *Subscription {
	sc := c.sessionFor(sessionID)

	sc.mu.Lock()
	id := sc.nextSubID
	sc.nextSubID++
	ch := make(chan mealmodel.ProgressEvent, c.bufferCap)
	for _, buffered := range sc.buffer {
		select {
		case ch <- buffered:
		default:
		}
	}
	sc.buffer = nil
	subCtx, cancel := context.WithCancel(ctx)
	sc.subscribers[id] = &subscriber{ch: ch, cancel: cancel}
	sc.mu.Unlock()

	out := make(chan mealmodel.ProgressEvent, c.bufferCap)
	go c.pump(subCtx, sc, id, ch, out)

	return &Subscription{
		Events: out,
		cancel: func() {
			cancel()
		},
	}
}

// pump relays raw events to out, injecting synthesized heartbeats, until
// the subscriber is canceled or a close event is relayed.
func (c *Channel) pump(ctx context.Context, sc *sessionChannel, id int, ch chan mealmodel.ProgressEvent, out chan<- mealmodel.ProgressEvent) {
	defer func() {
		sc.mu.Lock()
		delete(sc.subscribers, id)
		sc.mu.Unlock()
		close(out)
	}()

	timer := time.NewTimer(c.heartbeatInterval)
	defer timer.Stop()

	counter := 0
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.heartbeatInterval)

			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
			if evt.Kind == mealmodel.EventClose {
				return
			}
		case <-timer.C:
			counter++
			hb := mealmodel.ProgressEvent{
				Kind:      mealmodel.EventHeartbeat,
				Payload:   map[string]any{"counter": counter},
				Timestamp: c.now(),
			}
			select {
			case out <- hb:
			case <-ctx.Done():
				return
			}
			timer.Reset(c.heartbeatInterval)
		}
	}
}

// CloseSession terminates every subscriber of sessionID with a terminal
// error event (used when a session is evicted, spec.md §5).
func (c *Channel) CloseSession(sessionID string, reason string) {
	c.mu.Lock()
	sc, ok := c.sessions[sessionID]
	if ok {
		delete(c.sessions, sessionID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}
	sc.closed = true
	evt := mealmodel.ProgressEvent{Kind: mealmodel.EventError, Payload: map[string]any{"message": reason}, Timestamp: c.now()}
	for _, sub := range sc.subscribers {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
