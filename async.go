// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"code.hybscloud.com/kont"
)

// errorDispatcher matches kont's error effect operations (Throw, Catch),
// letting Raise short-circuit a block eagerly inside the driver.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// Async runs a Cont-world block, returning one settlement for the whole
// block. The block executes one resumption at a time: each Await
// suspension registers the continuation as a resolve-reaction on its
// operand and yields; rejection of an operand, a Raise, or a panic
// inside a step rejects the block settlement and no later step runs.
//
// Await operations are only valid under this driver; a block containing
// any other effect operation panics when it is reached, and an Await
// reaching any foreign kont handler panics there likewise.
func Async[R any](sched Scheduler, block kont.Eff[R]) *Settlement[R] {
	return AsyncExpr(sched, kont.Reify(block))
}

// AsyncExpr runs an Expr-world block. See Async.
func AsyncExpr[R any](sched Scheduler, block kont.Expr[R]) *Settlement[R] {
	out := Pending[R](sched)
	result, susp, err := stepSafe(block)
	advance(out, result, susp, err)
	return out
}

// stepSafe evaluates the block to its first suspension, capturing panics
// in the leading synchronous steps as rejections.
func stepSafe[R any](block kont.Expr[R]) (result R, susp *kont.Suspension[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	result, susp = kont.StepExpr(block)
	return
}

// resumeSafe resumes a suspension, capturing panics in the continuation's
// synchronous steps as rejections.
func resumeSafe[R any](susp *kont.Suspension[R], v kont.Resumed) (result R, next *kont.Suspension[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	result, next = susp.Resume(v)
	return
}

// advance drives a block from one suspension to the next. Await ops park
// the suspension on their operand settlement; error ops dispatch eagerly
// and short-circuit. The recursion through dispatchAwait callbacks runs
// on fresh scheduler turns, so chains of any length reuse constant stack.
func advance[R any](out *Settlement[R], result R, susp *kont.Suspension[R], err error) {
	for {
		if err != nil {
			out.Reject(err)
			return
		}
		if susp == nil {
			out.Resolve(result)
			return
		}
		op := susp.Op()
		if aop, ok := op.(awaitDispatcher); ok {
			pending := susp
			aop.dispatchAwait(func(v kont.Resumed, aerr error) {
				if aerr != nil {
					pending.Discard()
					out.Reject(aerr)
					return
				}
				if v == nil {
					// Resume(nil) means "completed with the zero
					// value" to kont; a settled nil must still resume
					// the next step.
					v = settledNil
				}
				r, next, rerr := resumeSafe(pending, v)
				advance(out, r, next, rerr)
			})
			return
		}
		if eop, ok := op.(errorDispatcher); ok {
			var ctx kont.ErrorContext[error]
			v, _ := eop.DispatchError(&ctx)
			if ctx.HasErr {
				susp.Discard()
				out.Reject(ctx.Err)
				return
			}
			result, susp, err = resumeSafe(susp, v)
			continue
		}
		panic("settle: unhandled effect in Async")
	}
}
