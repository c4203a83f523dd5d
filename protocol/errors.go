package protocol

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is matched by every error caused by a malformed batch.
// A batch that violates the protocol is rejected as a whole.
var ErrProtocolViolation = errors.New("protocol violation")

type ViolationError struct {
	Reason string
	Length int // length of the offending input, in elements
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s (length %d)", e.Reason, e.Length)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}
