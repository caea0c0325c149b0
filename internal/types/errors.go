package types

import "errors"

// Native collector error taxonomy, per the fatal/temporal split: a fatal
// error stops the collection loop, a temporal one is reported and the
// loop continues.
var (
	// ErrProcessNotRunning means no process matched the requested name.
	ErrProcessNotRunning = errors.New("target process is not running")
	// ErrAttachFailed means a handle or module base address could not be
	// obtained for a process that does exist.
	ErrAttachFailed = errors.New("failed to attach to target process")
	// ErrProcessTerminated is fatal: the target exited mid-session.
	ErrProcessTerminated = errors.New("target process has terminated")
)

// PointerChainError reports a failed dereference while walking a pointer
// chain: a zero or short read at some step. Temporal — the loop continues.
type PointerChainError struct {
	Message string
}

func (e *PointerChainError) Error() string { return e.Message }

// ValueReadError reports a failed read of a terminal value (transform,
// world-origin vector) after the pointer chain resolved successfully.
// Temporal — the loop continues.
type ValueReadError struct {
	Message string
}

func (e *ValueReadError) Error() string { return e.Message }
