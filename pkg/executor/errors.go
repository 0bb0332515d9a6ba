package executor

import (
	"errors"
	"fmt"

	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
)

var (
	// ErrClosed is returned by Spawn and Run after Close.
	ErrClosed = fmt.Errorf("executor: %w", gferrors.ErrClosed)

	// ErrAlreadyRunning is returned when Run or RunContext is called while a
	// run loop is active, including from inside a task.
	ErrAlreadyRunning = errors.New("executor: run loop is already active")

	// ErrChannelOverflow is the panic value under OverflowPanic.
	ErrChannelOverflow = fmt.Errorf("executor: wake channel overflow: %w", gferrors.ErrCapacityExceeded)

	// ErrTaskPanicked matches every *PanicError.
	ErrTaskPanicked = errors.New("executor: task panicked")
)

// PanicError records a panic raised by a Future while it was polled.
type PanicError struct {
	TaskID uint64
	Value  interface{}
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: task %d panicked: %v\nStack trace:\n%s", e.TaskID, e.Value, e.Stack)
}

// Unwrap exposes ErrTaskPanicked and, when the panic value is an error, the
// value itself.
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanicked, err}
	}
	return []error{ErrTaskPanicked}
}
