package executor

import (
	"fmt"

	"github.com/vnykmshr/taskloop/pkg/common/validation"
)

// RequeuePolicy decides what happens to a task that returned Pending.
type RequeuePolicy int

const (
	// RequeueOnWake parks the task until its Waker fires. A wake that
	// arrives while the task is being polled requeues it right after the poll.
	RequeueOnWake RequeuePolicy = iota

	// RequeueEager pushes the task back to the tail of the ready queue
	// immediately, whether or not it was woken. Tasks waiting on slow events
	// are re-polled in a busy loop.
	RequeueEager
)

func (p RequeuePolicy) String() string {
	switch p {
	case RequeueOnWake:
		return "wake"
	case RequeueEager:
		return "eager"
	default:
		return fmt.Sprintf("requeue(%d)", int(p))
	}
}

// ParseRequeuePolicy parses "wake" or "eager".
func ParseRequeuePolicy(s string) (RequeuePolicy, error) {
	return parsePolicy("Requeue", s, RequeueOnWake, RequeueEager)
}

// OverflowPolicy decides what a Wake does when the wake channel is full.
type OverflowPolicy int

const (
	// OverflowSpill pushes the task straight onto the ready queue, taking
	// the queue lock instead of the channel. No wake is lost.
	OverflowSpill OverflowPolicy = iota

	// OverflowDrop discards the wake, returns the task to idle so a later
	// wake can succeed, and reports it through Config.OnOverflow.
	OverflowDrop

	// OverflowPanic panics with ErrChannelOverflow.
	OverflowPanic
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowSpill:
		return "spill"
	case OverflowDrop:
		return "drop"
	case OverflowPanic:
		return "panic"
	default:
		return fmt.Sprintf("overflow(%d)", int(p))
	}
}

// ParseOverflowPolicy parses "spill", "drop" or "panic".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	return parsePolicy("Overflow", s, OverflowSpill, OverflowDrop, OverflowPanic)
}

// PanicPolicy decides how the run loop reacts to a Future that panics.
type PanicPolicy int

const (
	// PanicFailFast stops the run loop and returns a *PanicError. Other
	// queued tasks stay queued for the next Run.
	PanicFailFast PanicPolicy = iota

	// PanicIsolate reports the panic through Config.OnPanic and keeps running
	// the remaining tasks.
	PanicIsolate
)

func (p PanicPolicy) String() string {
	switch p {
	case PanicFailFast:
		return "fail-fast"
	case PanicIsolate:
		return "isolate"
	default:
		return fmt.Sprintf("panic(%d)", int(p))
	}
}

// ParsePanicPolicy parses "fail-fast" or "isolate".
func ParsePanicPolicy(s string) (PanicPolicy, error) {
	return parsePolicy("Panics", s, PanicFailFast, PanicIsolate)
}

func parsePolicy[P fmt.Stringer](field, s string, all ...P) (P, error) {
	names := make([]string, len(all))
	for i, p := range all {
		if p.String() == s {
			return p, nil
		}
		names[i] = p.String()
	}
	var zero P
	return zero, validation.ValidateOneOf(moduleName, field, s, names...)
}
