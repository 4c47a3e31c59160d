package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/workflow"
)

// InitiateInterviews turns an approved analyst set into interview seeds.
// Pending feedback yields ErrRegenerate instead.
func InitiateInterviews(state *GenerationState, maxTurns int) ([]*InterviewState, error) {
	if state.Feedback != "" {
		return nil, ErrRegenerate
	}
	if len(state.Analysts) == 0 {
		return nil, ErrNoAnalysts
	}

	seeds := make([]*InterviewState, len(state.Analysts))
	for i, a := range state.Analysts {
		seeds[i] = &InterviewState{
			Analyst: a,
			Messages: []ai.Message{
				ai.NewUserMessage(fmt.Sprintf("So you said you were writing an article on %s?", state.Topic)),
			},
			MaxTurns: maxTurns,
		}
	}
	return seeds, nil
}

// Collected is the fan-in result of a set of interviews.
type Collected struct {
	// Sections in the order the interviews finished.
	Sections []string
	Failures []InterviewFailure
}

// Coordinator runs interviews in parallel and joins them.
type Coordinator struct {
	interviewer *Interviewer
	concurrency int
	logger      *zap.Logger
}

// NewCoordinator creates a coordinator. concurrency bounds how many
// interviews run at once (0 = all).
func NewCoordinator(iv *Interviewer, concurrency int, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		interviewer: iv,
		concurrency: concurrency,
		logger:      logger.With(zap.String("component", "coordinator")),
	}
}

// Conduct runs every seed as an independent task and waits for all of them.
// A failed interview does not stop the others; it is recorded in
// Collected.Failures. *InterviewsError is returned only if none succeeded.
func (c *Coordinator) Conduct(ctx context.Context, seeds []*InterviewState, opts ...workflow.Option) (*Collected, error) {
	if len(seeds) == 0 {
		return nil, ErrNoAnalysts
	}

	outcomes := workflow.Spawn(ctx, c.concurrency, seeds,
		func(s *InterviewState) string { return s.Analyst.Name },
		func(ctx context.Context, s *InterviewState) (*InterviewState, error) {
			return s, c.interviewer.Run(ctx, s, opts...)
		},
	)

	out := &Collected{}
	for _, o := range outcomes {
		if o.Err != nil {
			f := InterviewFailure{Analyst: seeds[o.Index].Analyst, Err: o.Err, Message: o.Err.Error()}
			c.logger.Error("interview failed", zap.String("analyst", o.Name), zap.Error(o.Err))
			out.Failures = append(out.Failures, f)
			continue
		}
		out.Sections = append(out.Sections, o.Value.Section)
	}

	if len(out.Sections) == 0 {
		return out, &InterviewsError{Failures: out.Failures}
	}
	c.logger.Info("interviews complete",
		zap.Int("sections", len(out.Sections)),
		zap.Int("failed", len(out.Failures)),
	)
	return out, nil
}
