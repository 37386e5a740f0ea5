// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	link Link
	name string
}

func (it *item) QueueLink() *Link {
	return &it.link
}

func names(q *Queue[*item]) []string {
	var s []string
	q.Each(func(it *item) bool {
		s = append(s, it.name)
		return true
	})
	return s
}

func TestQueue_ZeroValue(t *testing.T) {
	var q Queue[*item]
	assert.Equal(t, 0, q.Len())
	v, ok := q.Front()
	assert.Nil(t, v)
	assert.False(t, ok)
	v, ok = q.PopFront()
	assert.Nil(t, v)
	assert.False(t, ok)
	a := &item{name: "a"}
	assert.False(t, q.Contains(a))
	assert.False(t, q.Remove(a))
	q.PushBack(a)
	assert.True(t, q.Contains(a))
	assert.Equal(t, []string{"a"}, names(&q))
}

func TestQueue_Order(t *testing.T) {
	q := New[*item](4)
	a, b, c, d := &item{name: "a"}, &item{name: "b"}, &item{name: "c"}, &item{name: "d"}
	q.PushBack(b)
	q.PushBack(c)
	q.PushFront(a)
	q.PushBack(d)
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(q))
	t.Run("remove middle", func(t *testing.T) {
		assert.True(t, q.Remove(c))
		assert.False(t, c.link.Linked())
		assert.Equal(t, []string{"a", "b", "d"}, names(q))
	})
	t.Run("remove ends", func(t *testing.T) {
		assert.True(t, q.Remove(a))
		assert.True(t, q.Remove(d))
		assert.Equal(t, []string{"b"}, names(q))
		f, ok := q.Front()
		require.True(t, ok)
		assert.Same(t, b, f)
	})
	t.Run("pop to empty", func(t *testing.T) {
		f, ok := q.PopFront()
		require.True(t, ok)
		assert.Same(t, b, f)
		assert.Equal(t, 0, q.Len())
		assert.Nil(t, names(q))
		assert.Equal(t, nilSlot, q.head)
		assert.Equal(t, nilSlot, q.tail)
	})
}

func TestQueue_SingleMembership(t *testing.T) {
	pending := New[*item](0)
	inflight := New[*item](0)
	a := &item{name: "a"}
	pending.PushBack(a)
	assert.PanicsWithValue(t, linkedMsg, func() { inflight.PushBack(a) })
	assert.PanicsWithValue(t, linkedMsg, func() { pending.PushFront(a) })
	assert.False(t, inflight.Remove(a))
	assert.True(t, pending.Contains(a))
	assert.False(t, inflight.Contains(a))
	require.True(t, pending.Remove(a))
	inflight.PushBack(a)
	assert.True(t, inflight.Contains(a))
	assert.Equal(t, 0, pending.Len())
	assert.Equal(t, 1, inflight.Len())
}

func TestQueue_SlotReuse(t *testing.T) {
	q := New[*item](2)
	items := []*item{{name: "a"}, {name: "b"}}
	for i := 0; i < 100; i++ {
		q.PushBack(items[0])
		q.PushBack(items[1])
		require.True(t, q.Remove(items[i%2]))
		require.True(t, q.Remove(items[(i+1)%2]))
	}
	assert.Len(t, q.nodes, 2)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_EachRemoveCurrent(t *testing.T) {
	q := New[*item](0)
	for _, n := range []string{"a", "b", "c", "d"} {
		q.PushBack(&item{name: n})
	}
	var seen []string
	q.Each(func(it *item) bool {
		seen = append(seen, it.name)
		if it.name == "b" || it.name == "c" {
			q.Remove(it)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
	assert.Equal(t, []string{"a", "d"}, names(q))
	seen = seen[:0]
	q.Each(func(it *item) bool {
		seen = append(seen, it.name)
		return false
	})
	assert.Equal(t, []string{"a"}, seen)
}
