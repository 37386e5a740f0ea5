// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package queue provides an ordered queue whose members record their own
position in it.

Each member carries a Link, which is a handle into the arena owned by
the Queue holding it. Because the member knows its own slot, removing
it from the middle of the queue is O(1), and because slots are recycled
through a free list, steady-state pushes and removals do not allocate.

A value may be a member of at most one Queue at a time. A Queue is not
safe for concurrent use; it is meant to be owned by a single scheduling
goroutine.
*/
package queue

import "code.hybscloud.com/atomix"

const (
	linkedMsg = "partx/queue: value is already linked into a queue"
	nilSlot   = int32(-1)
)

// serials hands out queue identities. Identity zero is reserved for
// the detached Link.
var serials atomix.Uint32

func nextSerial() uint32 {
	return serials.Add(1)
}

// A Link is a value's position within a Queue. The zero Link is
// detached.
//
// Only Queue methods may change a Link.
type Link struct {
	queue uint32
	slot  int32
}

// Linked reports whether the link currently places its value in some
// queue.
func (l *Link) Linked() bool {
	return l.queue != 0
}

// A Linker is a value which embeds its own queue position.
type Linker interface {
	QueueLink() *Link
}

type node[T Linker] struct {
	v    T
	prev int32
	next int32
}

// A Queue is an ordered queue of Linker values backed by an arena of
// slots. The zero value is an empty queue ready to use.
type Queue[T Linker] struct {
	id    uint32
	nodes []node[T]
	head  int32
	tail  int32
	free  int32
	n     int
}

// New returns an empty queue with room for capacity members before
// its arena needs to grow.
func New[T Linker](capacity int) *Queue[T] {
	q := &Queue[T]{}
	q.init()
	q.nodes = make([]node[T], 0, capacity)
	return q
}

func (q *Queue[T]) init() {
	if q.id == 0 {
		q.id = nextSerial()
		q.head, q.tail, q.free = nilSlot, nilSlot, nilSlot
	}
}

// Len returns the number of values in the queue.
func (q *Queue[T]) Len() int {
	return q.n
}

// Contains reports whether v is a member of q.
func (q *Queue[T]) Contains(v T) bool {
	return q.id != 0 && v.QueueLink().queue == q.id
}

// PushBack appends v to the back of the queue. It panics if v is
// already linked into any queue, including q.
func (q *Queue[T]) PushBack(v T) {
	q.init()
	l := q.claim(v)
	i := q.alloc(v)
	q.nodes[i].prev = q.tail
	if q.tail != nilSlot {
		q.nodes[q.tail].next = i
	} else {
		q.head = i
	}
	q.tail = i
	*l = Link{queue: q.id, slot: i}
	q.n++
}

// PushFront inserts v at the front of the queue. It panics if v is
// already linked into any queue, including q.
func (q *Queue[T]) PushFront(v T) {
	q.init()
	l := q.claim(v)
	i := q.alloc(v)
	q.nodes[i].next = q.head
	if q.head != nilSlot {
		q.nodes[q.head].prev = i
	} else {
		q.tail = i
	}
	q.head = i
	*l = Link{queue: q.id, slot: i}
	q.n++
}

// Front returns the value at the front of the queue without removing
// it. The second return value is false if the queue is empty.
func (q *Queue[T]) Front() (T, bool) {
	if q.n == 0 {
		var zero T
		return zero, false
	}
	return q.nodes[q.head].v, true
}

// PopFront removes and returns the value at the front of the queue.
// The second return value is false if the queue is empty.
func (q *Queue[T]) PopFront() (T, bool) {
	v, ok := q.Front()
	if ok {
		q.Remove(v)
	}
	return v, ok
}

// Remove detaches v from q and reports whether it was a member. If v
// is linked into some other queue, Remove does nothing and returns
// false.
func (q *Queue[T]) Remove(v T) bool {
	if !q.Contains(v) {
		return false
	}
	l := v.QueueLink()
	q.unlink(l.slot)
	*l = Link{}
	return true
}

// Each calls f for every value in the queue, front to back, until f
// returns false. f may remove the value it was called with, but must
// not otherwise change q.
func (q *Queue[T]) Each(f func(T) bool) {
	if q.n == 0 {
		return
	}
	for i := q.head; i != nilSlot; {
		nd := q.nodes[i]
		i = nd.next
		if !f(nd.v) {
			return
		}
	}
}

func (q *Queue[T]) claim(v T) *Link {
	l := v.QueueLink()
	if l.Linked() {
		panic(linkedMsg)
	}
	return l
}

func (q *Queue[T]) alloc(v T) int32 {
	nd := node[T]{v: v, prev: nilSlot, next: nilSlot}
	if q.free != nilSlot {
		i := q.free
		q.free = q.nodes[i].next
		q.nodes[i] = nd
		return i
	}
	q.nodes = append(q.nodes, nd)
	return int32(len(q.nodes) - 1)
}

func (q *Queue[T]) unlink(i int32) {
	nd := q.nodes[i]
	if nd.prev != nilSlot {
		q.nodes[nd.prev].next = nd.next
	} else {
		q.head = nd.next
	}
	if nd.next != nilSlot {
		q.nodes[nd.next].prev = nd.prev
	} else {
		q.tail = nd.prev
	}
	q.nodes[i] = node[T]{prev: nilSlot, next: q.free}
	q.free = i
	q.n--
}
