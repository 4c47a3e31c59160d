package research

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/client"
)

// DefaultMaxRegenerations bounds feedback loops in non-interactive runs.
const DefaultMaxRegenerations = 5

// GenerationState tracks the analyst set through the approval loop.
type GenerationState struct {
	Topic       string `json:"topic"`
	MaxAnalysts int    `json:"max_analysts"`
	// Feedback is pending editorial feedback. Empty means approved.
	Feedback string    `json:"human_analyst_feedback,omitempty"`
	Analysts []Analyst `json:"analysts"`
	// Regenerations counts generations driven by feedback.
	Regenerations int `json:"regenerations"`
}

// Transition is the outcome of an approval decision.
type Transition string

const (
	// TransitionRegenerate sends the run back to the generator.
	TransitionRegenerate Transition = "regenerate"
	// TransitionRelease freezes the analyst set.
	TransitionRelease Transition = "release"
)

// AwaitApproval applies a human decision to state. Non-empty feedback is
// stored for the next generation; empty feedback approves the current set
// and clears anything pending.
func AwaitApproval(state *GenerationState, feedback string) Transition {
	feedback = strings.TrimSpace(feedback)
	if feedback != "" {
		state.Feedback = feedback
		return TransitionRegenerate
	}
	state.Feedback = ""
	return TransitionRelease
}

// Generator creates analyst personas for a topic.
type Generator struct {
	provider         ai.ChatProvider
	maxRegenerations int
	logger           *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMaxRegenerations bounds feedback-driven regenerations. Zero means
// unlimited.
func WithMaxRegenerations(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxRegenerations = n
	}
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator creates a generator backed by p.
func NewGenerator(p ai.ChatProvider, opts ...GeneratorOption) *Generator {
	g := &Generator{provider: p, maxRegenerations: DefaultMaxRegenerations}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	g.logger = g.logger.With(zap.String("component", "generator"))
	return g
}

// Generate asks the model for at most maxAnalysts analysts covering topic, guided
// by optional feedback. A response that does not match the Perspectives
// schema fails with *ai.GenerationError.
func (g *Generator) Generate(ctx context.Context, topic string, maxAnalysts int, feedback string) ([]Analyst, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("research: topic: %w", ai.ErrEmptyInput)
	}
	if maxAnalysts < 1 {
		return nil, fmt.Errorf("research: max analysts must be positive, got %d", maxAnalysts)
	}

	system := fill(analystInstructions,
		"topic", topic,
		"human_analyst_feedback", feedback,
		"max_analysts", strconv.Itoa(maxAnalysts),
	)
	msgs := []ai.Message{
		ai.NewSystemMessage(system),
		ai.NewUserMessage("Generate the set of analysts."),
	}

	p, err := client.Generate[Perspectives](ctx, g.provider, msgs)
	if err != nil {
		return nil, err
	}

	analysts := p.Analysts
	if len(analysts) > maxAnalysts {
		g.logger.Warn("model returned too many analysts, truncating",
			zap.Int("returned", len(analysts)),
			zap.Int("max", maxAnalysts),
		)
		analysts = analysts[:maxAnalysts]
	}
	g.logger.Info("analysts generated", zap.String("topic", topic), zap.Int("count", len(analysts)))
	return analysts, nil
}

// Run generates analysts for state and replaces the previous set. When
// feedback is pending a successful run counts as a regeneration.
func (g *Generator) Run(ctx context.Context, state *GenerationState) error {
	regenerate := state.Feedback != ""
	if regenerate && g.maxRegenerations > 0 && state.Regenerations >= g.maxRegenerations {
		return fmt.Errorf("%w (%d)", ErrRegenerationLimit, g.maxRegenerations)
	}

	analysts, err := g.Generate(ctx, state.Topic, state.MaxAnalysts, state.Feedback)
	if err != nil {
		var genErr *ai.GenerationError
		if errors.As(err, &genErr) {
			g.logger.Error("analyst generation returned malformed output", zap.Error(err))
		}
		return err
	}
	state.Analysts = analysts
	if regenerate {
		state.Regenerations++
	}
	return nil
}
