package main

import "fmt"

const (
	// exitCodeUsage is returned when the input cannot be submitted at all.
	exitCodeUsage    = 2
	exitCodeCanceled = 130
)

// exitError carries a process exit code. Silent errors have already been reported to the user.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func silentExit(code int, err error) error {
	return &exitError{code: code, err: err, silent: true}
}
