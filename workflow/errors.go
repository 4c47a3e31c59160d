package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInterrupted is returned when a graph suspends before an interrupt
	// node. The run can be continued with Resume.
	ErrInterrupted = errors.New("workflow: interrupted")

	// ErrNodeNotFound indicates an edge or route names a node that does not exist.
	ErrNodeNotFound = errors.New("workflow: node not found")

	// ErrMaxVisits indicates a node was entered more often than the graph allows.
	ErrMaxVisits = errors.New("workflow: max node visits exceeded")

	// ErrNoCheckpointer is returned by Resume on a graph without a checkpointer.
	ErrNoCheckpointer = errors.New("workflow: no checkpointer configured")
)

// StepError wraps errors from step execution.
type StepError struct {
	StepName string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %q failed: %v", e.StepName, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ParallelError wraps errors from parallel execution.
type ParallelError struct {
	Errors map[string]error
}

func (e *ParallelError) Error() string {
	if len(e.Errors) == 0 {
		return "workflow: parallel execution failed"
	}
	if len(e.Errors) == 1 {
		for name, err := range e.Errors {
			return fmt.Sprintf("workflow: parallel step %q failed: %v", name, err)
		}
	}
	names := make([]string, 0, len(e.Errors))
	for name := range e.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("workflow: parallel execution failed with %d errors in steps: %s",
		len(e.Errors), strings.Join(names, ", "))
}

// Unwrap returns the branch errors for errors.Is/As.
func (e *ParallelError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}
	return errs
}
