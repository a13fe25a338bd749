// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"code.hybscloud.com/kont"
)

// Reify converts a Cont-world block to Expr-world. The resulting Expr
// can be driven with AsyncExpr or stepped with kont.StepExpr.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(m)
}

// Reflect converts an Expr-world block to Cont-world. The resulting Eff
// can be driven with Async.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}
