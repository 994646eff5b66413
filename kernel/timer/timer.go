// Package timer provides the kernel clock and the deadline queue used to
// wake sleeping tasks. The clock source is swappable so tests can drive
// time manually.
package timer

import (
	"container/heap"
	"time"
)

// nowFn returns the current wall-clock time. Tests may replace it through
// SetClock.
var nowFn = time.Now

// SetClock replaces the clock source used by NowMS and NowUS. Passing nil
// restores the default clock.
func SetClock(fn func() time.Time) {
	if fn == nil {
		nowFn = time.Now
		return
	}
	nowFn = fn
}

// NowMS returns the current time in milliseconds.
func NowMS() uint64 {
	return uint64(nowFn().UnixNano() / int64(time.Millisecond))
}

// NowUS returns the current time in microseconds.
func NowUS() uint64 {
	return uint64(nowFn().UnixNano() / int64(time.Microsecond))
}

// entry describes a pending wakeup. The payload is opaque to this package;
// the scheduler stores the task to be woken. Entries with equal deadlines
// expire in insertion order.
type entry struct {
	deadlineMS uint64
	seq        uint64
	payload    interface{}
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].deadlineMS != h[j].deadlineMS {
		return h[i].deadlineMS < h[j].deadlineMS
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue orders pending wakeups by deadline.
type Queue struct {
	entries entryHeap
	nextSeq uint64
}

// Add registers payload to expire at deadlineMS.
func (q *Queue) Add(deadlineMS uint64, payload interface{}) {
	heap.Push(&q.entries, entry{deadlineMS: deadlineMS, seq: q.nextSeq, payload: payload})
	q.nextSeq++
}

// Expired removes and returns the payloads of all entries whose deadline is
// at or before nowMS, in deadline order.
func (q *Queue) Expired(nowMS uint64) []interface{} {
	var due []interface{}
	for len(q.entries) > 0 && q.entries[0].deadlineMS <= nowMS {
		due = append(due, heap.Pop(&q.entries).(entry).payload)
	}
	return due
}

// NextDeadline returns the earliest pending deadline. The second return
// value is false if the queue is empty.
func (q *Queue) NextDeadline() (uint64, bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].deadlineMS, true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
