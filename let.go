// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"code.hybscloud.com/kont"
)

// Scope carries the values bound by the earlier steps of a Let block, in
// binding order. Values are held by value: a later step observes what an
// earlier step produced, never a re-evaluation.
type Scope struct {
	vals []kont.Resumed
}

// Len returns the number of bound values.
func (sc Scope) Len() int {
	return len(sc.vals)
}

// At returns the value bound by the i-th binding (0-based).
func (sc Scope) At(i int) any {
	return sc.vals[i]
}

// with extends the scope without aliasing the backing array of earlier
// continuations.
func (sc Scope) with(v kont.Resumed) Scope {
	vals := sc.vals[:len(sc.vals):len(sc.vals)]
	return Scope{vals: append(vals, v)}
}

// Binding is one initializer of a Let block. It receives the values of
// all earlier bindings and returns either a plain value, an error value,
// or a settlement; the result is coerced by the Of rule and awaited.
type Binding func(Scope) any

// Let runs a bound-sequential block: every binding initializer is
// evaluated exactly once, in source order, each suspension point
// resuming on a later turn; later bindings see earlier values through
// the scope. body produces the block's final value once all bindings
// have resolved.
//
// The first error — an initializer panic, an error-valued initializer
// result, a rejected operand, or an error return from body — rejects the
// block settlement and no later step runs.
func Let[R any](sched Scheduler, body func(Scope) (R, error), bindings ...Binding) *Settlement[R] {
	block, err := buildLet(sched, body, bindings)
	if err != nil {
		out := Pending[R](sched)
		out.Reject(err)
		return out
	}
	return Async(sched, block)
}

// buildLet constructs the chain, capturing panics from the first
// initializer (which evaluates at construction time).
func buildLet[R any](sched Scheduler, body func(Scope) (R, error), bindings []Binding) (block kont.Eff[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return letStep(sched, Scope{}, bindings, body), nil
}

// letStep builds the continuation chain right-to-left through kont.Bind:
// each call evaluates exactly one initializer, awaits its coerced
// operand, then recurses with the extended scope. Initializers after the
// first evaluate inside the previous continuation, preserving source
// order and once-only evaluation.
func letStep[R any](sched Scheduler, scope Scope, bindings []Binding, body func(Scope) (R, error)) kont.Eff[R] {
	if len(bindings) == 0 {
		v, err := body(scope)
		if err != nil {
			return Raise[R](err)
		}
		return kont.Pure(v)
	}
	init := bindings[0](scope)
	return kont.Bind(awaitOperand(sched, init), func(v kont.Resumed) kont.Eff[R] {
		if v == settledNil {
			v = nil
		}
		return letStep(sched, scope.with(v), bindings[1:], body)
	})
}

// awaitOperand coerces an initializer result to a suspension operand by
// the Of rule: settlements are awaited as they are, error values reject,
// plain values are wrapped in a settlement already resolved on the
// block's scheduler, so even a plain operand yields for one turn.
func awaitOperand(sched Scheduler, v any) kont.Eff[kont.Resumed] {
	if s, ok := v.(anySettlement); ok {
		return kont.Perform(awaitAny{s: s})
	}
	if err, ok := v.(error); ok {
		return Raise[kont.Resumed](err)
	}
	s := Pending[any](sched)
	s.Resolve(v)
	return kont.Perform(awaitAny{s: s})
}
