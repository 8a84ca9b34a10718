package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the link is not synchronized.
	ErrNotReady = errors.New("link not ready")
	// ErrShortFrame indicates a channel frame payload is truncated.
	ErrShortFrame = errors.New("short channel frame")
)

// UnexpectedCodeError reports a frame of an unexpected kind.
type UnexpectedCodeError struct {
	Code byte
}

// Error implements error.
func (e *UnexpectedCodeError) Error() string {
	return fmt.Sprintf("unexpected frame code 0x%02x", e.Code)
}
