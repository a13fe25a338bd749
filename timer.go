// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import "time"

// Delay creates a settlement that resolves with v once d has elapsed on
// sched. A nil sched uses System.
func Delay[T any](sched Scheduler, d time.Duration, v T) *Settlement[T] {
	out := Pending[T](sched)
	out.sched.Schedule(d, func() { out.Resolve(v) })
	return out
}

// Timeout races s against a timer on s's scheduler. If the timer fires
// first the result rejects with *TimeoutError; otherwise it adopts s's
// outcome and the timer is cancelled. Losing the race does not cancel
// computation in flight behind s; its outcome merely goes unobserved.
func Timeout[T any](s *Settlement[T], d time.Duration) *Settlement[T] {
	out := Pending[T](s.sched)
	t := s.sched.Schedule(d, func() { out.Reject(&TimeoutError{After: d}) })
	s.subscribe(reaction[T]{
		onResolve: func(v T) {
			t.Cancel()
			out.Resolve(v)
		},
		onReject: func(err error) {
			t.Cancel()
			out.Reject(err)
		},
	})
	return out
}
