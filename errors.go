// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package settle

import (
	"errors"
	"fmt"
	"time"
)

// ErrCircular rejects a settlement that was resolved with itself.
// Resolving through an arbitrarily long flattening chain back to the same
// settlement would otherwise leave it pending forever.
var ErrCircular = errors.New("settle: settlement resolved with itself")

// ErrFlatten rejects a settlement whose flattened inner value does not
// have the settlement's value type.
var ErrFlatten = errors.New("settle: flattened value has incompatible type")

// TimeoutError rejects the settlement returned by Timeout when the timer
// wins the race against the input settlement.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "settle: timeout after " + e.After.String()
}

// IsTimeout reports whether err is a timeout rejection produced by Timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// PanicError rejects a settlement when a callback or block step panicked
// with a non-error value. The original panic value is preserved in V.
type PanicError struct {
	V any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("settle: panic: %v", e.V)
}

// recoveredError converts a recovered panic value into the rejection error.
// Error values pass through unchanged.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{V: r}
}
