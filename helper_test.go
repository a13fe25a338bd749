// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/settle"
)

// result drives l until nothing is pending and returns s's outcome.
// Fails the test if s is still pending after the loop ran dry.
func result[R any](tb testing.TB, l *settle.Loop, s *settle.Settlement[R]) (R, error) {
	tb.Helper()
	l.Run()
	v, err := s.Poll()
	if iox.IsWouldBlock(err) {
		tb.Fatal("settlement still pending after loop ran dry")
	}
	return v, err
}
