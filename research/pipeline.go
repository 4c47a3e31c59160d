package research

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/workflow"
)

// Pipeline nodes.
const (
	NodeCreateAnalysts    = "create_analysts"
	NodeHumanFeedback     = "human_feedback"
	NodeConductInterviews = "conduct_interviews"
	NodeAssembleReport    = "write_report"
	NodeFinalizeReport    = "finalize_report"
)

// State is the checkpointed state of a research run.
type State struct {
	GenerationState
	Sections     []string           `json:"sections"`
	Failures     []InterviewFailure `json:"failures,omitempty"`
	Introduction string             `json:"introduction,omitempty"`
	Content      string             `json:"content,omitempty"`
	Conclusion   string             `json:"conclusion,omitempty"`
	FinalReport  string             `json:"final_report,omitempty"`
}

// report returns the report view of s.
func (s *State) report() *ReportState {
	return &ReportState{
		Topic:        s.Topic,
		Sections:     s.Sections,
		Introduction: s.Introduction,
		Content:      s.Content,
		Conclusion:   s.Conclusion,
		FinalReport:  s.FinalReport,
	}
}

func (s *State) setReport(r *ReportState) {
	s.Introduction = r.Introduction
	s.Content = r.Content
	s.Conclusion = r.Conclusion
	s.FinalReport = r.FinalReport
}

// PipelineConfig tunes a Pipeline.
type PipelineConfig struct {
	MaxTurns       int
	MaxConcurrency int
	Options        []workflow.Option
	Logger         *zap.Logger
}

// Pipeline is the full research workflow: analysts are generated and held
// for approval, then interviewed in parallel, and the sections are turned
// into a report.
type Pipeline struct {
	generator   *Generator
	coordinator *Coordinator
	writer      *Writer
	maxTurns    int
	opts        []workflow.Option
	logger      *zap.Logger
	graph       *workflow.Graph[State]
}

// NewPipeline wires the workflow graph. saver persists runs between the
// approval interrupt and Resume.
func NewPipeline(gen *Generator, coord *Coordinator, writer *Writer, saver workflow.Checkpointer, cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns < 0 {
		maxTurns = DefaultMaxTurns
	}

	p := &Pipeline{
		generator:   gen,
		coordinator: coord,
		writer:      writer,
		maxTurns:    maxTurns,
		opts:        append(append([]workflow.Option{}, cfg.Options...), workflow.WithLogger(logger), workflow.WithMaxConcurrency(cfg.MaxConcurrency)),
		logger:      logger.With(zap.String("component", "pipeline")),
	}

	p.graph = workflow.NewGraph[State]("research").
		AddNodeFunc(NodeCreateAnalysts, p.createAnalysts).
		AddNodeFunc(NodeHumanFeedback, func(context.Context, *State) error { return nil }).
		AddNodeFunc(NodeConductInterviews, p.conductInterviews).
		AddNodeFunc(NodeAssembleReport, p.writeReport).
		AddNodeFunc(NodeFinalizeReport, p.finalize).
		AddEdge(NodeCreateAnalysts, NodeHumanFeedback).
		AddConditionalEdge(NodeHumanFeedback, afterFeedback).
		AddEdge(NodeConductInterviews, NodeAssembleReport).
		AddEdge(NodeAssembleReport, NodeFinalizeReport).
		AddEdge(NodeFinalizeReport, workflow.End).
		InterruptBefore(NodeHumanFeedback).
		WithCheckpointer(saver)
	return p
}

// afterFeedback returns to the generator while feedback is pending.
func afterFeedback(s *State) (string, error) {
	if s.Feedback != "" {
		return NodeCreateAnalysts, nil
	}
	return NodeConductInterviews, nil
}

type runOptionsKey struct{}

// runOptions returns the pipeline options followed by those passed to the
// current Start or Resume call.
func (p *Pipeline) runOptions(ctx context.Context) []workflow.Option {
	extra, _ := ctx.Value(runOptionsKey{}).([]workflow.Option)
	if len(extra) == 0 {
		return p.opts
	}
	return append(append([]workflow.Option{}, p.opts...), extra...)
}

// Start begins a run for topic. It normally returns workflow.ErrInterrupted
// once the first analyst set awaits approval; the analysts are in the
// returned state. opts apply to this call only, including the nested
// interview and report runs.
func (p *Pipeline) Start(ctx context.Context, threadID, topic string, maxAnalysts int, opts ...workflow.Option) (*State, error) {
	state := &State{GenerationState: GenerationState{Topic: topic, MaxAnalysts: maxAnalysts}}
	p.logger.Info("research started", zap.String("thread", threadID), zap.String("topic", topic))
	ctx = context.WithValue(ctx, runOptionsKey{}, opts)
	err := p.graph.Start(ctx, threadID, state, p.runOptions(ctx)...)
	return state, err
}

// Resume applies a human decision to the suspended run. Non-empty feedback
// regenerates the analysts and suspends again; empty feedback approves them
// and runs the rest of the pipeline.
func (p *Pipeline) Resume(ctx context.Context, threadID, feedback string, opts ...workflow.Option) (*State, error) {
	ctx = context.WithValue(ctx, runOptionsKey{}, opts)
	return p.graph.Resume(ctx, threadID, func(s *State) error {
		t := AwaitApproval(&s.GenerationState, feedback)
		p.logger.Info("approval received", zap.String("thread", threadID), zap.String("transition", string(t)))
		return nil
	}, p.runOptions(ctx)...)
}

func (p *Pipeline) createAnalysts(ctx context.Context, s *State) error {
	return p.generator.Run(ctx, &s.GenerationState)
}

func (p *Pipeline) conductInterviews(ctx context.Context, s *State) error {
	seeds, err := InitiateInterviews(&s.GenerationState, p.maxTurns)
	if err != nil {
		return err
	}
	collected, err := p.coordinator.Conduct(ctx, seeds, p.runOptions(ctx)...)
	if collected != nil {
		s.Failures = collected.Failures
	}
	if err != nil {
		return err
	}
	s.Sections = collected.Sections
	return nil
}

func (p *Pipeline) writeReport(ctx context.Context, s *State) error {
	r := s.report()
	if err := p.writer.Write(ctx, r, p.runOptions(ctx)...); err != nil {
		return err
	}
	s.setReport(r)
	return nil
}

func (p *Pipeline) finalize(_ context.Context, s *State) error {
	r := s.report()
	if err := Finalize(r, p.logger); err != nil {
		return err
	}
	s.setReport(r)
	p.logger.Info("report finalized", zap.Int("sections", len(s.Sections)), zap.Int("failed_interviews", len(s.Failures)))
	return nil
}

// IsAwaitingApproval reports whether err means the run is waiting for a
// human decision.
func IsAwaitingApproval(err error) bool {
	return errors.Is(err, workflow.ErrInterrupted)
}

// Validate checks the pipeline graph wiring.
func (p *Pipeline) Validate() error {
	if err := p.graph.Validate(); err != nil {
		return fmt.Errorf("research: %w", err)
	}
	return nil
}
