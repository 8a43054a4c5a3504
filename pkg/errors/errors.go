// Package errors provides error wrapping utilities and the run-level failure
// taxonomy used to pick a process exit status.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Fatal run conditions. Each maps to its own exit status.
var (
	ErrSourceMissing = stderrors.New("source directory does not exist")
	ErrProvision     = stderrors.New("destination directory cannot be provisioned")
	ErrItemsFailed   = stderrors.New("one or more images failed to process")
)

// Exit statuses returned by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitSourceMissing = 2
	ExitProvision     = 3
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case Is(err, ErrSourceMissing):
		return ExitSourceMissing
	case Is(err, ErrProvision):
		return ExitProvision
	default:
		return ExitFailure
	}
}
