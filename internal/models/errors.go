package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for segmentation units.
var (
	ErrInputNotFound   = errors.New("input not found")
	ErrDegenerateImage = errors.New("degenerate image: intensity threshold undefined")
	ErrIOFailure       = errors.New("i/o failure")
)

// IOError wraps err so that it matches both ErrIOFailure and the original cause
func IOError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
}

// IsRetryable reports whether a failed unit may succeed when run again.
// Every stage is deterministic, so only I/O failures qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIOFailure)
}
