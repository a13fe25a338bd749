// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/settle"
)

func TestAsyncSequencing(t *testing.T) {
	// Each await parks the block until its operand settles, so the two
	// delays run back to back: 10ms, then 5ms from the resume point.
	l := settle.NewLoop()
	var sb strings.Builder

	block := settle.AwaitBind(settle.Delay(l, 10*time.Millisecond, "x"), func(x string) kont.Eff[string] {
		sb.WriteString(x)
		return settle.AwaitBind(settle.Delay(l, 5*time.Millisecond, "y"), func(y string) kont.Eff[string] {
			sb.WriteString(y)
			return settle.Done(sb.String())
		})
	})

	v, err := result(t, l, settle.Async(l, block))
	if err != nil || v != "xy" {
		t.Fatalf("got (%q, %v), want (xy, nil)", v, err)
	}
	if l.Now() != 15*time.Millisecond {
		t.Fatalf("clock got %v, want 15ms", l.Now())
	}
}

func TestAsyncPureBlock(t *testing.T) {
	l := settle.NewLoop()
	v, err := result(t, l, settle.Async(l, settle.Done(42)))
	if err != nil || v != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", v, err)
	}
}

func TestAsyncRejectionShortCircuits(t *testing.T) {
	l := settle.NewLoop()
	bad := settle.Pending[int](l)
	boom := errors.New("boom")
	bad.Reject(boom)

	ran := false
	block := settle.AwaitBind(bad, func(int) kont.Eff[int] {
		ran = true
		return settle.Done(0)
	})

	_, err := result(t, l, settle.Async(l, block))
	if err != boom {
		t.Fatalf("error got %v, want %v", err, boom)
	}
	if ran {
		t.Fatal("continuation ran past a rejected operand")
	}
}

func TestAsyncRaise(t *testing.T) {
	l := settle.NewLoop()
	boom := errors.New("raised")

	block := settle.AwaitBind(settle.Resolved(l, 1), func(int) kont.Eff[int] {
		return settle.Raise[int](boom)
	})

	_, err := result(t, l, settle.Async(l, block))
	if err != boom {
		t.Fatalf("error got %v, want %v", err, boom)
	}
}

func TestAsyncStepPanicRejects(t *testing.T) {
	l := settle.NewLoop()
	p := settle.Pending[int](l)
	block := settle.AwaitBind(p, func(int) kont.Eff[int] {
		panic("step blew up")
	})
	s := settle.Async(l, block)

	p.Resolve(1)
	_, err := result(t, l, s)
	var pe *settle.PanicError
	if !errors.As(err, &pe) || pe.V != "step blew up" {
		t.Fatalf("error got %v, want PanicError(step blew up)", err)
	}
}

func TestAsyncLeadingPanicRejects(t *testing.T) {
	// A panic before the first suspension is captured too.
	l := settle.NewLoop()
	block := kont.Bind(kont.Pure(1), func(int) kont.Eff[int] {
		panic("eager blow up")
	})
	_, err := result(t, l, settle.Async(l, block))
	var pe *settle.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("error got %v, want PanicError", err)
	}
}

type foreignOp struct {
	kont.Phantom[int]
}

func TestAsyncForeignEffectPanics(t *testing.T) {
	l := settle.NewLoop()
	defer func() {
		r := recover()
		if r != "settle: unhandled effect in Async" {
			t.Fatalf("recover got %v, want unhandled-effect panic", r)
		}
	}()
	settle.Async(l, kont.Perform(foreignOp{}))
	t.Fatal("foreign effect did not panic")
}

func TestAsyncAwaitNilValue(t *testing.T) {
	// Awaiting a settlement resolved with nil resumes the next step with
	// nil instead of completing the block with the zero result.
	l := settle.NewLoop()
	p := settle.Pending[any](l)

	block := settle.AwaitBind(p, func(v any) kont.Eff[string] {
		if v != nil {
			return settle.Done("first not nil")
		}
		return settle.AwaitBind(settle.Resolved[any](l, nil), func(w any) kont.Eff[string] {
			if w != nil {
				return settle.Done("second not nil")
			}
			return settle.Done("both nil")
		})
	})
	s := settle.Async(l, block)

	p.Resolve(nil)
	v, err := result(t, l, s)
	if err != nil || v != "both nil" {
		t.Fatalf("got (%q, %v), want (both nil, nil)", v, err)
	}
}

func TestAsyncExprAwaitNilValue(t *testing.T) {
	l := settle.NewLoop()
	p := settle.Pending[any](l)

	block := settle.ExprAwaitBind(p, func(v any) kont.Expr[string] {
		if v != nil {
			return settle.ExprDone("not nil")
		}
		return settle.ExprDone("got nil")
	})
	s := settle.AsyncExpr(l, block)

	p.Resolve(nil)
	v, err := result(t, l, s)
	if err != nil || v != "got nil" {
		t.Fatalf("got (%q, %v), want (got nil, nil)", v, err)
	}
}

func TestAsyncAwaitThen(t *testing.T) {
	l := settle.NewLoop()
	gate := settle.Pending[struct{}](l)

	block := settle.AwaitThen(gate, settle.Done("after gate"))
	s := settle.Async(l, block)

	gate.Resolve(struct{}{})
	v, err := result(t, l, s)
	if err != nil || v != "after gate" {
		t.Fatalf("got (%q, %v), want (after gate, nil)", v, err)
	}
}

func TestAsyncIterate(t *testing.T) {
	// Sum 3+2+1 with an awaited delay per iteration.
	l := settle.NewLoop()
	sum := 0

	block := settle.Iterate(3, func(n int) kont.Eff[kont.Either[int, int]] {
		if n == 0 {
			return settle.Done(kont.Right[int](sum))
		}
		return settle.AwaitBind(settle.Delay(l, time.Millisecond, n), func(v int) kont.Eff[kont.Either[int, int]] {
			sum += v
			return settle.Done(kont.Left[int, int](n - 1))
		})
	})

	v, err := result(t, l, settle.Async(l, block))
	if err != nil || v != 6 {
		t.Fatalf("got (%d, %v), want (6, nil)", v, err)
	}
	if l.Now() != 3*time.Millisecond {
		t.Fatalf("clock got %v, want 3ms", l.Now())
	}
}

func TestAsyncExprSequencing(t *testing.T) {
	l := settle.NewLoop()
	var sb strings.Builder

	block := settle.ExprAwaitBind(settle.Delay(l, 10*time.Millisecond, "x"), func(x string) kont.Expr[string] {
		sb.WriteString(x)
		return settle.ExprAwaitBind(settle.Delay(l, 5*time.Millisecond, "y"), func(y string) kont.Expr[string] {
			sb.WriteString(y)
			return settle.ExprDone(sb.String())
		})
	})

	v, err := result(t, l, settle.AsyncExpr(l, block))
	if err != nil || v != "xy" {
		t.Fatalf("got (%q, %v), want (xy, nil)", v, err)
	}
	if l.Now() != 15*time.Millisecond {
		t.Fatalf("clock got %v, want 15ms", l.Now())
	}
}

func TestAsyncExprAwaitThen(t *testing.T) {
	l := settle.NewLoop()
	gate := settle.Pending[int](l)

	block := settle.ExprAwaitThen(gate, settle.ExprDone("through"))
	s := settle.AsyncExpr(l, block)

	gate.Resolve(0)
	v, err := result(t, l, s)
	if err != nil || v != "through" {
		t.Fatalf("got (%q, %v), want (through, nil)", v, err)
	}
}

func TestAsyncExprIterate(t *testing.T) {
	l := settle.NewLoop()
	sum := 0

	block := settle.ExprIterate(3, func(n int) kont.Expr[kont.Either[int, int]] {
		if n == 0 {
			return settle.ExprDone(kont.Right[int](sum))
		}
		return settle.ExprAwaitBind(settle.Delay(l, time.Millisecond, n), func(v int) kont.Expr[kont.Either[int, int]] {
			sum += v
			return settle.ExprDone(kont.Left[int, int](n - 1))
		})
	})

	v, err := result(t, l, settle.AsyncExpr(l, block))
	if err != nil || v != 6 {
		t.Fatalf("got (%d, %v), want (6, nil)", v, err)
	}
}

func TestAsyncExprIterateImmediate(t *testing.T) {
	// A step that returns without suspending keeps iterating inline.
	l := settle.NewLoop()
	block := settle.ExprIterate(5, func(n int) kont.Expr[kont.Either[int, string]] {
		if n == 0 {
			return settle.ExprDone(kont.Right[int]("done"))
		}
		return settle.ExprDone(kont.Left[int, string](n - 1))
	})
	v, err := result(t, l, settle.AsyncExpr(l, block))
	if err != nil || v != "done" {
		t.Fatalf("got (%q, %v), want (done, nil)", v, err)
	}
}

func TestReifyReflectRoundTrip(t *testing.T) {
	l := settle.NewLoop()
	p := settle.Pending[int](l)

	block := settle.Reflect(settle.Reify(settle.AwaitBind(p, func(v int) kont.Eff[int] {
		return settle.Done(v * 2)
	})))
	s := settle.Async(l, block)

	p.Resolve(21)
	v, err := result(t, l, s)
	if err != nil || v != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", v, err)
	}
}
