package research

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyWritten is returned when a write-once field is written again.
	ErrAlreadyWritten = errors.New("research: field already written")

	// ErrRegenerate signals that feedback is pending and the analysts must be
	// generated again before interviews can start.
	ErrRegenerate = errors.New("research: feedback pending, regenerate analysts")

	// ErrRegenerationLimit is returned when feedback has sent the generator
	// back more often than allowed.
	ErrRegenerationLimit = errors.New("research: regeneration limit reached")

	// ErrNoAnalysts is returned when interviews are requested for an empty set.
	ErrNoAnalysts = errors.New("research: no analysts to interview")
)

// InterviewFailure records an interview that did not produce a section.
type InterviewFailure struct {
	Analyst Analyst `json:"analyst"`
	Err     error   `json:"-"`
	// Message keeps the error text across checkpoints.
	Message string `json:"error"`
}

func (f InterviewFailure) Error() string {
	return fmt.Sprintf("interview with %s failed: %s", f.Analyst.Name, f.Message)
}

func (f InterviewFailure) Unwrap() error { return f.Err }

// InterviewsError is returned when every interview failed.
type InterviewsError struct {
	Failures []InterviewFailure
}

func (e *InterviewsError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("research: all %d interviews failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap returns the individual interview errors.
func (e *InterviewsError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// SectionError describes how a section departs from the expected layout.
type SectionError struct {
	Problems []string
}

func (e *SectionError) Error() string {
	return "research: malformed section: " + strings.Join(e.Problems, "; ")
}
