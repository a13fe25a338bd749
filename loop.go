// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"container/heap"
	"time"

	"code.hybscloud.com/lfq"
)

// readyCapacity is the bounded capacity of the ready ring. 256 keeps the
// common microtask burst inside the lock-free ring; deeper bursts overflow
// into the FIFO spill slice.
const readyCapacity = 256

// Loop is a cooperative single-goroutine scheduler with a virtual clock.
// Microtasks go through a bounded lock-free SPSC ring from lfq (the loop
// goroutine is both producer and consumer: callbacks enqueue follow-up
// turns while the loop drains); timers sit in a deadline-ordered heap.
//
// Run drains ready turns, then advances the virtual clock to the next
// timer deadline and fires it, until nothing is pending. All settlements
// scheduled on a Loop must be driven from the loop's goroutine.
type Loop struct {
	ready  lfq.SPSC[func()]
	spill  []func()
	timers timerQueue
	clock  time.Duration
	seq    uint64
}

// NewLoop creates an idle cooperative loop at virtual time zero.
func NewLoop() *Loop {
	l := &Loop{}
	l.ready.Init(readyCapacity)
	return l
}

// Now returns the loop's virtual clock. It only advances inside Run, and
// only as far as the deadline of each fired timer.
func (l *Loop) Now() time.Duration {
	return l.clock
}

// Schedule implements Scheduler on the virtual clock. A non-positive d
// posts fn as a microtask for the current drain; a positive d arms a
// timer at Now()+d.
func (l *Loop) Schedule(d time.Duration, fn func()) *Task {
	t := &Task{}
	if d <= 0 {
		l.post(func() { t.fire(fn) })
		return t
	}
	e := &timerEntry{when: l.clock + d, seq: l.seq, task: t, fn: fn}
	l.seq++
	heap.Push(&l.timers, e)
	return t
}

// post appends fn to the ready queue preserving FIFO order.
// Invariant: every element in the ring is older than every element in the
// spill, so draining ring-first keeps global FIFO.
func (l *Loop) post(fn func()) {
	if len(l.spill) == 0 {
		if err := l.ready.Enqueue(&fn); err == nil {
			return
		}
	}
	l.spill = append(l.spill, fn)
}

// take removes the oldest ready turn, or returns nil when none is ready.
func (l *Loop) take() func() {
	if fn, err := l.ready.Dequeue(); err == nil {
		return fn
	}
	if len(l.spill) > 0 {
		fn := l.spill[0]
		l.spill = l.spill[1:]
		return fn
	}
	return nil
}

// Drain runs ready turns until the ready queue is empty, without
// advancing the virtual clock. Turns posted by running turns are drained
// too.
func (l *Loop) Drain() {
	for fn := l.take(); fn != nil; fn = l.take() {
		fn()
	}
}

// Run drives the loop until no turn is ready and no timer is armed.
// Each round drains the ready queue, then advances the clock to the
// earliest live deadline and fires that timer.
func (l *Loop) Run() {
	for {
		l.Drain()
		e := l.nextTimer()
		if e == nil {
			return
		}
		if e.when > l.clock {
			l.clock = e.when
		}
		e.task.fire(e.fn)
	}
}

// nextTimer pops the earliest armed timer, discarding cancelled entries.
func (l *Loop) nextTimer() *timerEntry {
	for l.timers.Len() > 0 {
		e := heap.Pop(&l.timers).(*timerEntry)
		if e.task.state.Load() == taskCancelled {
			continue
		}
		return e
	}
	return nil
}

// timerEntry is an armed virtual timer. seq breaks deadline ties in
// arming order.
type timerEntry struct {
	when time.Duration
	seq  uint64
	task *Task
	fn   func()
}

type timerQueue []*timerEntry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].when != q[j].when {
		return q[i].when < q[j].when
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*timerEntry)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
