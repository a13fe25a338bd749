// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"code.hybscloud.com/kont"
)

// Await is the effect operation for suspending a block on a settlement
// of type T. Perform(Await[T]{S: s}) yields control until s settles and
// resumes the continuation with s's resolved value; a rejection of s
// short-circuits the whole block.
type Await[T any] struct {
	kont.Phantom[T]
	S *Settlement[T]
}

// dispatchAwait registers the block continuation as a resolve-reaction
// on the operand settlement. Delivery is on a later scheduler turn.
func (a Await[T]) dispatchAwait(fn func(v kont.Resumed, err error)) {
	a.S.onSettled(func(v any, err error) { fn(v, err) })
}

// awaitAny is the dynamically-typed await operation used by Let's
// operand coercion.
type awaitAny struct {
	kont.Phantom[kont.Resumed]
	s anySettlement
}

func (a awaitAny) dispatchAwait(fn func(v kont.Resumed, err error)) {
	a.s.onSettled(func(v any, err error) { fn(v, err) })
}

// awaitDispatcher is the structural interface for await operations.
type awaitDispatcher interface {
	dispatchAwait(fn func(v kont.Resumed, err error))
}

// settledNilType marks a settled nil value crossing the resumption
// boundary. kont treats a nil Resumed as "completed with the zero
// value", so the driver substitutes this sentinel and the binding
// boundary unwraps it.
type settledNilType struct{}

var settledNil kont.Resumed = settledNilType{}

// unwrapSettled maps the nil sentinel back to the zero T at the binding
// boundary.
func unwrapSettled[T any](v T) T {
	if any(v) == settledNil {
		var zero T
		return zero
	}
	return v
}

// AwaitBind awaits s and passes its resolved value to f.
// Fuses Perform(Await[T]{S: s}) + Bind.
func AwaitBind[T, B any](s *Settlement[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await[T]{S: s}), func(v T) kont.Eff[B] {
		return f(unwrapSettled(v))
	})
}

// AwaitThen awaits s, discards its value and continues with next.
// Fuses Perform(Await[T]{S: s}) + Then.
func AwaitThen[T, B any](s *Settlement[T], next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Await[T]{S: s}), next)
}

// Done completes a block with a.
func Done[A any](a A) kont.Eff[A] {
	return kont.Pure(a)
}

// Raise short-circuits a block with err; no later step runs. The
// settlement produced by Async rejects with err.
func Raise[A any](err error) kont.Eff[A] {
	return kont.ThrowError[error, A](err)
}

// Iterate runs a recursive block (Cont-world). step returns
// Left(nextState) to loop or Right(result) to finish. Each iteration
// re-enters the chain with fresh effect operations, so no stale
// reactions are ever re-registered.
func Iterate[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Iterate(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}
