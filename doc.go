// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package settle provides single-settlement promise values and an await
// engine that rewrites sequential-looking blocks into continuation chains
// via algebraic effects on [code.hybscloud.com/kont].
//
// A [Settlement] is pending until it resolves with a value or rejects with
// an error, exactly once. Reactions registered on a settlement always run
// on a later scheduler turn, never synchronously with the settling call or
// with registration on an already-settled parent.
//
// # Architecture
//
//   - Settlement core: tri-state container with a settle-once guard
//     ([code.hybscloud.com/atomix] CAS). Resolving with a value that is
//     itself a settlement flattens one level.
//   - Combinators: [Then], [Map], [Chain], [MapCat], [Catch], [Branch]
//     compose settlements without new state.
//   - Collections: [All] joins settlements preserving input order; [Any]
//     races them, first to finish wins.
//   - Timing: [Delay], [Timeout] and [Scheduler].Schedule/[Task.Cancel]
//     against the external [Scheduler] capability. [System] schedules on
//     runtime timers; [Loop] is a cooperative single-goroutine scheduler
//     with a lock-free ready ring ([code.hybscloud.com/lfq]) and a virtual
//     clock.
//   - Await engine: [Await] is an effect operation; [Async] steps a block
//     one suspension at a time ([code.hybscloud.com/kont.StepExpr]),
//     resuming each continuation when its operand settles. [Let] is the
//     bound-sequential block form.
//
// # API Topologies
//
//   - Construction: [Pending], [New], [Resolved], [Rejected], [Of].
//   - Dependent registration of both reaction sides composes [Then] with
//     [Catch]; [Branch] is the void both-sides form.
//   - Cont-world blocks: [AwaitBind], [AwaitThen], [Done], [Raise],
//     [Iterate] for recursive blocks.
//   - Expr-world blocks: zero-allocation variants [ExprAwaitBind],
//     [ExprAwaitThen], [ExprDone], [ExprIterate]. Bridge via [Reify] and
//     [Reflect].
//   - Blocking access: [Settlement.Res] and [Settlement.Wait] use adaptive
//     backoff ([code.hybscloud.com/iox.Backoff]); [Settlement.Poll] is the
//     non-blocking variant returning [code.hybscloud.com/iox.ErrWouldBlock]
//     while pending.
//
// # Failure Semantics
//
// Rejections propagate through [Then], [Chain] and await steps untouched;
// [Catch] is the only combinator that converts a rejection back into a
// resolution. An unhandled rejection stays an inert rejected settlement;
// [Branch] is the observation hook. Panics inside callbacks and block
// steps become rejections ([PanicError] unless the value is already an
// error). Performing [Await] outside a managed block panics when the
// block is evaluated by any foreign handler.
//
// # Example
//
//	loop := settle.NewLoop()
//	block := settle.AwaitBind(settle.Delay(loop, 10*time.Millisecond, "x"),
//		func(x string) kont.Eff[string] {
//			return settle.AwaitBind(settle.Delay(loop, 5*time.Millisecond, "y"),
//				func(y string) kont.Eff[string] {
//					return settle.Done(x + y)
//				})
//		})
//	s := settle.Async(loop, block)
//	loop.Run()
//	v, _ := s.Poll() // "xy", loop.Now() == 15ms
package settle
