// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

const nilCallbackPanicMsg = "settle: nil callback"

// protect runs fn capturing panics as rejection errors.
func protect[T, U any](fn func(T) (U, error), v T) (u U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return fn(v)
}

// Then registers fn as the resolve-reaction of s and returns the
// dependent settlement. A rejection of s propagates unchanged; an error
// return (or panic) of fn rejects the result. If fn's result is itself a
// settlement it is flattened one level by Resolve.
func Then[T, U any](s *Settlement[T], fn func(T) (U, error)) *Settlement[U] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	out := Pending[U](s.sched)
	s.subscribe(reaction[T]{
		onResolve: func(v T) {
			u, err := protect(fn, v)
			if err != nil {
				out.Reject(err)
				return
			}
			out.Resolve(u)
		},
		onReject: out.Reject,
	})
	return out
}

// Map is the pure variant of Then for callbacks that cannot fail.
func Map[T, U any](s *Settlement[T], fn func(T) U) *Settlement[U] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return Then(s, func(v T) (U, error) { return fn(v), nil })
}

// Chain applies fns left to right, each consuming the previous result.
// The first rejection short-circuits: functions after it never run.
func Chain[T any](s *Settlement[T], fns ...func(T) (T, error)) *Settlement[T] {
	out := s
	for _, fn := range fns {
		out = Then(out, fn)
	}
	return out
}

// MapCat registers fn whose result settlement is flattened one level
// into the returned settlement.
//
// Deprecated: one-level flattening is a universal invariant of Resolve
// and Then; MapCat remains as a typed convenience for callers porting
// from platforms whose primitive did not auto-flatten.
func MapCat[T, U any](s *Settlement[T], fn func(T) *Settlement[U]) *Settlement[U] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	out := Pending[U](s.sched)
	s.subscribe(reaction[T]{
		onResolve: func(v T) {
			inner, err := protect(func(v T) (*Settlement[U], error) { return fn(v), nil }, v)
			if err != nil {
				out.Reject(err)
				return
			}
			inner.subscribe(reaction[U]{
				onResolve: out.Resolve,
				onReject:  out.Reject,
			})
		},
		onReject: out.Reject,
	})
	return out
}

// Catch registers h as the reject-reaction of s. When h returns without
// error the rejection is caught: the result resolves with h's return
// value. A resolution of s propagates unchanged.
func Catch[T any](s *Settlement[T], h func(error) (T, error)) *Settlement[T] {
	if h == nil {
		panic(nilCallbackPanicMsg)
	}
	out := Pending[T](s.sched)
	s.subscribe(reaction[T]{
		onResolve: out.Resolve,
		onReject: func(err error) {
			v, herr := protect(h, err)
			if herr != nil {
				out.Reject(herr)
				return
			}
			out.Resolve(v)
		},
	})
	return out
}

// Branch registers both observers without producing a dependent
// settlement; propagation of s's outcome to other reactions is
// unaffected. This is the intended hook for observing otherwise-silent
// rejections. Either observer may be nil.
func Branch[T any](s *Settlement[T], onOk func(T), onErr func(error)) {
	s.subscribe(reaction[T]{
		onResolve: func(v T) {
			if onOk != nil {
				onOk(v)
			}
		},
		onReject: func(err error) {
			if onErr != nil {
				onErr(err)
			}
		},
	})
}
