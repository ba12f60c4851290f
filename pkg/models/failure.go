package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a workflow failure so callers can branch on the
// category instead of parsing message text.
type ErrorKind string

const (
	// ErrInvalidInput means the caller supplied malformed data (phone,
	// OTP code, category index). Detected before any browser work.
	ErrInvalidInput ErrorKind = "invalid_input"

	// ErrAuthenticationRequired means a valid session is a precondition
	// that was not met.
	ErrAuthenticationRequired ErrorKind = "authentication_required"

	// ErrMissingRequiredField means the remote site demands data the
	// draft does not carry (no images, unset location).
	ErrMissingRequiredField ErrorKind = "missing_required_field"

	// ErrUnexpectedPageState means the live DOM matched none of the
	// expected shapes. Usually a remote UI change or an anti-bot page.
	ErrUnexpectedPageState ErrorKind = "unexpected_page_state"

	// ErrPersistenceFailure means saving the auth snapshot failed. It is
	// logged as a warning and never aborts a business operation.
	ErrPersistenceFailure ErrorKind = "persistence_failure"

	// ErrRateLimited means the user exceeded the login-attempt budget.
	ErrRateLimited ErrorKind = "rate_limited"
)

// StageError is a workflow failure tagged with the stage it happened in
// and, when a page was available, the debug artifacts captured from it.
type StageError struct {
	Stage          Stage
	Kind           ErrorKind
	ScreenshotPath string
	HTMLPath       string
	Err            error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s: %s", e.Stage, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.ScreenshotPath != "" || e.HTMLPath != "" {
		msg += fmt.Sprintf(" (screenshot: %s, html: %s)", e.ScreenshotPath, e.HTMLPath)
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError builds a StageError without debug artifacts, for
// failures detected before any page existed.
func NewStageError(stage Stage, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" if err carries no
// StageError in its chain.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
