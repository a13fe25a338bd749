// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import "code.hybscloud.com/atomix"

// groupScheduler picks the scheduler shared by a combinator's output:
// the first input's, or System when there are no inputs.
func groupScheduler[T any](ss []*Settlement[T]) Scheduler {
	if len(ss) > 0 {
		return ss[0].sched
	}
	return nil
}

// All joins settlements into one that resolves with every input's value
// in input order, regardless of completion order, once all inputs have
// resolved. The first rejection among the inputs rejects the aggregate
// immediately; still-pending inputs are left to settle unobserved.
// No inputs resolves to an empty slice.
func All[T any](ss ...*Settlement[T]) *Settlement[[]T] {
	out := Pending[[]T](groupScheduler(ss))
	if len(ss) == 0 {
		out.Resolve([]T{})
		return out
	}
	vals := make([]T, len(ss))
	var remaining atomix.Uint32
	remaining.Store(uint32(len(ss)))
	for i, s := range ss {
		s.subscribe(reaction[T]{
			onResolve: func(v T) {
				vals[i] = v
				if remaining.Add(^uint32(0)) == 0 {
					out.Resolve(vals)
				}
			},
			onReject: out.Reject,
		})
	}
	return out
}

// Any races settlements: the first to finish wins, success or failure.
// Ties break in settlement order through the settle-once guard, not in
// input order. With no inputs the result never settles.
func Any[T any](ss ...*Settlement[T]) *Settlement[T] {
	out := Pending[T](groupScheduler(ss))
	for _, s := range ss {
		s.subscribe(reaction[T]{
			onResolve: out.Resolve,
			onReject:  out.Reject,
		})
	}
	return out
}
