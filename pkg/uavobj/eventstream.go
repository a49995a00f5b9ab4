// pkg/uavobj/eventstream.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
)

const (
	streamCheckPeriod  = 5 * time.Second
	longStreamLength   = 1000
	staleSubscriberAge = 10 * time.Second
)

// EventStream carries object updates from the object that was Set to
// everyone who has subscribed to it. This is how a new
// ManualControlCommand or a settings change reaches the manual control
// module, and how committed FlightStatus updates reach the flight log and
// the MAVLink bridge.
//
// Each event has a position in the stream; subscribers track the position
// of the next event they haven't read, and events that every subscriber
// has read are periodically discarded.
type EventStream struct {
	mu sync.Mutex
	// events[i] is at stream position base+i.
	events        []Event
	base          int
	subscriptions map[*EventsSubscription]struct{}
	lastPost      time.Time
	warnedLong    bool
	done          chan struct{}
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	next   int
	// objects limits the subscription to the named objects; nil matches
	// everything.
	objects map[string]struct{}
	// ready is buffered so that Post never blocks; several posts before a
	// receive coalesce into one wakeup.
	ready       chan struct{}
	source      string
	lastGet     time.Time
	warnedNoGet bool
}

type Event struct {
	Object string
	Seq    uint64
	// Value is a copy of the value that was Set.
	Value any
}

func (e Event) LogValue() slog.Value {
	return slog.GroupValue(slog.String("object", e.Object), slog.Uint64("seq", e.Seq))
}

func NewEventStream(lg *log.Logger) *EventStream {
	es := &EventStream{
		subscriptions: make(map[*EventsSubscription]struct{}),
		lastPost:      time.Now(),
		done:          make(chan struct{}),
		lg:            lg,
	}
	go es.monitor()
	return es
}

// Subscribe returns a subscription that sees events posted from now on,
// limited to the given objects if any are named.
func (e *EventStream) Subscribe(objects ...string) *EventsSubscription {
	_, file, line, _ := runtime.Caller(1)

	sub := &EventsSubscription{
		stream:  e,
		ready:   make(chan struct{}, 1),
		source:  fmt.Sprintf("%s:%d", file, line),
		lastGet: time.Now(),
	}
	if len(objects) > 0 {
		sub.objects = make(map[string]struct{}, len(objects))
		for _, o := range objects {
			sub.objects[o] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sub.next = e.base + len(e.events)
	e.subscriptions[sub] = struct{}{}
	return sub
}

func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Warn("unsubscribe of unknown subscription", slog.Any("subscription", e))
		return
	}
	delete(e.stream.subscriptions, e)
}

func (e *EventsSubscription) matches(ev Event) bool {
	if e.objects == nil {
		return true
	}
	_, ok := e.objects[ev.Object]
	return ok
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("next", e.next),
		slog.String("source", e.source),
		slog.Time("last_get", e.lastGet))
}

// Post appends an event to the stream and wakes the subscribers it
// matches. Events are dropped if there are no subscribers.
func (e *EventStream) Post(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("post", slog.Any("event", ev))

	if len(e.subscriptions) == 0 {
		return
	}
	e.lastPost = time.Now()
	e.events = append(e.events, ev)

	for sub := range e.subscriptions {
		if !sub.matches(ev) {
			continue
		}
		select {
		case sub.ready <- struct{}{}:
		default:
		}
	}
}

// Ready returns a channel that is signaled after one or more matching
// events have been posted. Call Get after each receive.
func (e *EventsSubscription) Ready() <-chan struct{} {
	return e.ready
}

// Get returns the matching events posted since the previous call.
func (e *EventsSubscription) Get() []Event {
	es := e.stream
	es.mu.Lock()
	defer es.mu.Unlock()

	if _, ok := es.subscriptions[e]; !ok {
		es.lg.Warn("get on unknown subscription", slog.Any("subscription", e))
		return nil
	}

	var events []Event
	for _, ev := range es.events[e.next-es.base:] {
		if e.matches(ev) {
			events = append(events, ev)
		}
	}
	e.next = es.base + len(es.events)
	e.lastGet = time.Now()
	e.warnedNoGet = false

	return events
}

func (e *EventStream) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
	default:
		close(e.done)
	}
	clear(e.subscriptions)
}

func (e *EventStream) monitor() {
	ticker := time.NewTicker(streamCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			e.compact()
			e.checkHealth()
			e.mu.Unlock()
		}
	}
}

// checkHealth warns about subscribers that have stopped reading while
// updates are still arriving. e.mu must be held.
func (e *EventStream) checkHealth() {
	if len(e.events) > longStreamLength && !e.warnedLong {
		e.lg.Warn("event stream backlog", slog.Int("length", len(e.events)))
		e.warnedLong = true
	}

	if time.Since(e.lastPost) > streamCheckPeriod {
		return
	}
	for sub := range e.subscriptions {
		if age := time.Since(sub.lastGet); age > staleSubscriberAge && !sub.warnedNoGet {
			e.lg.Warn("subscriber is not reading events", slog.Duration("since_last_get", age),
				slog.Any("subscription", sub))
			sub.warnedNoGet = true
		}
	}
}

// compact drops events that every subscriber has read. e.mu must be held.
func (e *EventStream) compact() {
	end := e.base + len(e.events)
	low := end
	for sub := range e.subscriptions {
		// A filtered subscriber is never woken for events it doesn't
		// match, so it can't be waiting on them.
		for sub.next < end && !sub.matches(e.events[sub.next-e.base]) {
			sub.next++
		}
		low = min(low, sub.next)
	}

	drop := low - e.base
	if drop <= cap(e.events)/2 {
		return
	}
	n := copy(e.events, e.events[drop:])
	clear(e.events[n:])
	e.events = e.events[:n]
	e.base = low
	e.warnedLong = false
}

func (e *EventStream) LogValue() slog.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slog.GroupValue(
		slog.Int("base", e.base),
		slog.Int("len", len(e.events)),
		slog.Int("cap", cap(e.events)),
		slog.Int("subscriptions", len(e.subscriptions)))
}
