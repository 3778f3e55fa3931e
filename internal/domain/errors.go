package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFormat reports a non-PDF or corrupt upload.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrUnsupported reports that the platform lacks a speech capability.
	ErrUnsupported = errors.New("capability not supported")

	// ErrSynthesis reports a platform speech-synthesis failure.
	ErrSynthesis = errors.New("speech synthesis failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionClosed   = errors.New("session closed")

	// ErrNotReady reports an operation invoked while the session phase does
	// not admit it.
	ErrNotReady = errors.New("session not ready")
)

// RecognitionError carries the platform-reported recognition error code.
// Callers distinguish permission denial by inspecting the textual code.
type RecognitionError struct {
	Code string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error: %s", e.Code)
}

// PermissionDenied reports whether the error looks like a microphone
// permission denial.
func (e *RecognitionError) PermissionDenied() bool {
	c := strings.ToLower(e.Code)
	return strings.Contains(c, "not-allowed") || strings.Contains(c, "permission")
}
