// pkg/uavobj/object.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"log/slog"
	"sync"

	"github.com/brunoga/deep"
)

// Object holds the current value of a shared vehicle object. Readers get
// copies of the value, so a value that is being worked on is never
// visible until it is passed to Set. Each Set increments the object's
// sequence number and posts an Event to its stream.
type Object[T any] struct {
	name   string
	mu     sync.Mutex
	value  T
	seq    uint64
	stream *EventStream
}

func NewObject[T any](name string, initial T, stream *EventStream) *Object[T] {
	return &Object[T]{
		name:   name,
		value:  deep.MustCopy(initial),
		stream: stream,
	}
}

func (o *Object[T]) Name() string {
	return o.name
}

// Get returns a copy of the object's current value.
func (o *Object[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()

	return deep.MustCopy(o.value)
}

// Seq returns the number of times the object has been set.
func (o *Object[T]) Seq() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.seq
}

// Set replaces the object's value in its entirety.
func (o *Object[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.commit(v)
}

// Update calls update with a copy of the current value; if it returns
// true, the modified value is committed as if by Set. The read and the
// write happen under the object's lock.
func (o *Object[T]) Update(update func(v *T) bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := deep.MustCopy(o.value)
	if !update(&v) {
		return false
	}
	o.commit(v)
	return true
}

func (o *Object[T]) commit(v T) {
	o.value = deep.MustCopy(v)
	o.seq++

	// Posting while still holding the lock keeps events in the same
	// order as the updates.
	if o.stream != nil {
		o.stream.Post(Event{
			Object: o.name,
			Seq:    o.seq,
			Value:  deep.MustCopy(v),
		})
	}
}

func (o *Object[T]) LogValue() slog.Value {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slog.GroupValue(
		slog.String("name", o.name),
		slog.Uint64("seq", o.seq),
		slog.Any("value", o.value))
}
