package bot

import "errors"

// ErrPermissionDenied covers creator-only button actions pressed by someone
// else. Admin-command mismatches are not an error at all: they silently fall
// through to default handling.
var ErrPermissionDenied = errors.New("permission denied")

// ValidationError is malformed user input: bad name format, bad quiz
// definition, wrong answer alphabet or length. Always recovered locally and
// surfaced as a corrective message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func validationErr(reason string) error { return &ValidationError{Reason: reason} }
