// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"time"

	"code.hybscloud.com/atomix"
)

// Scheduler is the external timing capability consumed by the settlement
// layer. Schedule must invoke fn exactly once, no earlier than d after the
// call, unless the returned task is cancelled first. A non-positive d
// means the next available turn.
//
// Reactions, combinator callbacks and await continuations are all
// dispatched through a Scheduler; nothing in this package invokes user
// code synchronously with the call that triggered it.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) *Task
}

// Task lifecycle values. A task moves armed→fired or armed→cancelled,
// at most once.
const (
	taskArmed uint32 = iota
	taskFired
	taskCancelled
)

// Task is the cancellable handle returned by Scheduler.Schedule.
type Task struct {
	state atomix.Uint32
	stop  func()
}

// Cancel prevents a not-yet-fired task from firing. Idempotent: calling
// it again, or after the task has fired, has no effect.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	if t.state.CompareAndSwap(taskArmed, taskCancelled) {
		if t.stop != nil {
			t.stop()
		}
	}
}

// Fired reports whether the scheduled function has already run.
func (t *Task) Fired() bool {
	return t.state.Load() == taskFired
}

// fire runs fn if the task is still armed. The armed→fired transition
// makes fire and Cancel race safely to a single winner.
func (t *Task) fire(fn func()) {
	if t.state.CompareAndSwap(taskArmed, taskFired) {
		fn()
	}
}

// systemScheduler schedules on runtime timers. Callbacks run on timer
// goroutines; ordering across distinct Schedule calls is the runtime's.
type systemScheduler struct{}

// System is the default scheduler, backed by runtime timers.
// Constructors fall back to it when passed a nil Scheduler.
var System Scheduler = systemScheduler{}

func (systemScheduler) Schedule(d time.Duration, fn func()) *Task {
	t := &Task{}
	timer := time.AfterFunc(max(d, 0), func() { t.fire(fn) })
	t.stop = func() { timer.Stop() }
	return t
}
