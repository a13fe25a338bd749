// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// State is the externally observable settlement state.
type State uint32

const (
	StatePending State = iota
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "<unknown state>"
	}
}

// Internal state word. stateSettling marks the settle-once slot as
// consumed while the final value may still be deferred behind a
// flattening chain; externally it is still pending.
const (
	statePending uint32 = iota
	stateSettling
	stateResolved
	stateRejected
)

// Settlement is a promise value: pending until it resolves with a value
// or rejects with an error, exactly once. The zero value is not usable;
// construct through Pending, New, Resolved, Rejected or Of.
//
// val and err are written by the single CAS winner before the state word
// stores its final value, and read only after observing that store.
type Settlement[T any] struct {
	sched  Scheduler
	serial Serial

	state atomix.Uint32
	val   T
	err   error

	// mu guards reactions against concurrent registration during the
	// settling transition. Reactions are kept in registration order.
	mu        sync.Mutex
	reactions []reaction[T]
}

// reaction is a resolve/reject callback pair registered on a settlement.
// Both callbacks are non-nil; exactly one runs, exactly once, on a later
// scheduler turn.
type reaction[T any] struct {
	onResolve func(T)
	onReject  func(error)
}

// anySettlement is the dynamically-typed view of a settlement, used by
// flattening, by collection combinators over mixed inputs and by the
// await engine's operand coercion.
type anySettlement interface {
	onSettled(fn func(v any, err error))
	scheduler() Scheduler
}

// Pending creates a new pending settlement whose reactions dispatch on
// sched. A nil sched falls back to System.
func Pending[T any](sched Scheduler) *Settlement[T] {
	if sched == nil {
		sched = System
	}
	return &Settlement[T]{sched: sched, serial: nextSerial()}
}

// New creates a pending settlement and synchronously runs fn with its
// resolve and reject capabilities. A panic inside fn rejects the
// settlement instead of unwinding into the caller.
func New[T any](sched Scheduler, fn func(resolve func(T), reject func(error))) *Settlement[T] {
	s := Pending[T](sched)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.Reject(recoveredError(r))
			}
		}()
		fn(s.Resolve, s.Reject)
	}()
	return s
}

// Resolved creates a settlement already resolved with v. Reactions
// registered on it dispatch on sched; a nil sched uses System.
func Resolved[T any](sched Scheduler, v T) *Settlement[T] {
	s := Pending[T](sched)
	s.Resolve(v)
	return s
}

// Rejected creates a settlement already rejected with err. Reactions
// registered on it dispatch on sched; a nil sched uses System.
func Rejected[T any](sched Scheduler, err error) *Settlement[T] {
	s := Pending[T](sched)
	s.Reject(err)
	return s
}

// Of is the dual-dispatch convenience constructor: an error value yields
// a rejected settlement, anything else a resolved one. It performs the
// error-type check exactly once; callers that already know which side
// they hold should use Resolved or Rejected directly.
func Of(v any) *Settlement[any] {
	if err, ok := v.(error); ok {
		return Rejected[any](nil, err)
	}
	return Resolved[any](nil, v)
}

// Serial returns the serial number assigned to this settlement.
func (s *Settlement[T]) Serial() Serial {
	return s.serial
}

// State returns the externally observable state. A settlement whose
// resolution is deferred behind a flattening chain is still pending.
func (s *Settlement[T]) State() State {
	switch s.state.Load() {
	case stateResolved:
		return StateResolved
	case stateRejected:
		return StateRejected
	default:
		return StatePending
	}
}

// Resolve transitions a pending settlement to resolved with v and
// notifies registered reactions in registration order on a later turn.
// On an already-settled settlement it is a no-op.
//
// If v is itself a settlement, resolution is deferred until the inner
// settlement settles and its outcome is adopted (one-level flattening).
// Resolving a settlement with itself rejects with ErrCircular.
func (s *Settlement[T]) Resolve(v T) {
	if !s.state.CompareAndSwap(statePending, stateSettling) {
		return
	}
	s.fulfill(v)
}

// Reject transitions a pending settlement to rejected with err and
// notifies registered reactions in registration order on a later turn.
// On an already-settled settlement it is a no-op.
func (s *Settlement[T]) Reject(err error) {
	if !s.state.CompareAndSwap(statePending, stateSettling) {
		return
	}
	var zero T
	s.finalize(zero, err, stateRejected)
}

// fulfill completes a resolution whose settle-once slot is already
// consumed, applying the flattening rule.
func (s *Settlement[T]) fulfill(v T) {
	if inner, ok := any(v).(anySettlement); ok {
		var zero T
		if inner == anySettlement(s) {
			s.finalize(zero, ErrCircular, stateRejected)
			return
		}
		inner.onSettled(func(av any, err error) {
			if err != nil {
				s.finalize(zero, err, stateRejected)
				return
			}
			// A nil resolved value never passes a type assertion;
			// adopt it as the zero T.
			if av == nil {
				s.finalize(zero, nil, stateResolved)
				return
			}
			tv, ok := av.(T)
			if !ok {
				s.finalize(zero, ErrFlatten, stateRejected)
				return
			}
			s.finalize(tv, nil, stateResolved)
		})
		return
	}
	s.finalize(v, nil, stateResolved)
}

// finalize publishes the outcome and schedules the queued reactions as a
// single turn, preserving registration order.
func (s *Settlement[T]) finalize(v T, err error, st uint32) {
	s.val, s.err = v, err
	s.mu.Lock()
	rs := s.reactions
	s.reactions = nil
	s.state.Store(st)
	s.mu.Unlock()
	if len(rs) == 0 {
		return
	}
	s.sched.Schedule(0, func() {
		for _, r := range rs {
			s.deliver(r)
		}
	})
}

// subscribe registers a reaction pair. On a pending settlement it queues
// the pair; on a settled one it schedules delivery for a later turn, so
// registration never invokes callbacks synchronously.
func (s *Settlement[T]) subscribe(r reaction[T]) {
	s.mu.Lock()
	if st := s.state.Load(); st == statePending || st == stateSettling {
		s.reactions = append(s.reactions, r)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.sched.Schedule(0, func() { s.deliver(r) })
}

// deliver invokes the matching side of a reaction pair. Only called once
// the state word holds a final value.
func (s *Settlement[T]) deliver(r reaction[T]) {
	if s.state.Load() == stateResolved {
		r.onResolve(s.val)
		return
	}
	r.onReject(s.err)
}

// onSettled implements anySettlement.
func (s *Settlement[T]) onSettled(fn func(v any, err error)) {
	s.subscribe(reaction[T]{
		onResolve: func(v T) { fn(v, nil) },
		onReject:  func(err error) { fn(nil, err) },
	})
}

// scheduler implements anySettlement.
func (s *Settlement[T]) scheduler() Scheduler {
	return s.sched
}

// Wait blocks until the settlement settles, spinning past the boundary
// with adaptive backoff (iox.Backoff), without goroutines or channels.
// Do not call it from the goroutine that drives the settlement's Loop.
func (s *Settlement[T]) Wait() {
	var bo iox.Backoff
	for {
		if st := s.state.Load(); st == stateResolved || st == stateRejected {
			return
		}
		bo.Wait()
	}
}

// Res blocks until the settlement settles, then returns its outcome.
func (s *Settlement[T]) Res() (T, error) {
	s.Wait()
	if s.state.Load() == stateResolved {
		return s.val, nil
	}
	var zero T
	return zero, s.err
}

// Poll returns the outcome without blocking. While the settlement is
// pending it returns iox.ErrWouldBlock (the I/O boundary).
func (s *Settlement[T]) Poll() (T, error) {
	switch s.state.Load() {
	case stateResolved:
		return s.val, nil
	case stateRejected:
		var zero T
		return zero, s.err
	default:
		var zero T
		return zero, iox.ErrWouldBlock
	}
}
