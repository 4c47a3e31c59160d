package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/workflow"
)

// Report writer nodes.
const (
	NodeWriteReport       = "write_report"
	NodeWriteIntroduction = "write_introduction"
	NodeWriteConclusion   = "write_conclusion"
)

const (
	insightsHeader   = "## Insights"
	sourcesDelimiter = "\n## Sources\n"
	partSeparator    = "\n\n---\n\n"
)

// ReportState holds the report as it is assembled. The text fields are
// written once.
type ReportState struct {
	Topic        string   `json:"topic"`
	Sections     []string `json:"sections"`
	Introduction string   `json:"introduction,omitempty"`
	Content      string   `json:"content,omitempty"`
	Conclusion   string   `json:"conclusion,omitempty"`
	FinalReport  string   `json:"final_report,omitempty"`
}

// Clone returns a deep copy that shares no slices with r.
func (r *ReportState) Clone() *ReportState {
	cp := *r
	cp.Sections = append([]string(nil), r.Sections...)
	return &cp
}

func setOnce(field *string, v string) error {
	if *field != "" {
		return ErrAlreadyWritten
	}
	*field = v
	return nil
}

// Writer drafts the body, introduction and conclusion of a report.
type Writer struct {
	provider ai.ChatProvider
	logger   *zap.Logger
	parallel *workflow.Parallel[ReportState]
}

// NewWriter creates a writer backed by p.
func NewWriter(p ai.ChatProvider, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{provider: p, logger: logger.With(zap.String("component", "report"))}

	w.parallel = workflow.NewParallel("write_drafts",
		[]workflow.Step[ReportState]{
			workflow.NewFuncStep(NodeWriteReport, w.writeBody),
			workflow.NewFuncStep(NodeWriteIntroduction, w.writeIntroduction),
			workflow.NewFuncStep(NodeWriteConclusion, w.writeConclusion),
		},
		func(r *ReportState, branches map[string]*ReportState, errs map[string]error) error {
			if len(errs) > 0 {
				return &workflow.ParallelError{Errors: errs}
			}
			for _, name := range []string{NodeWriteReport, NodeWriteIntroduction, NodeWriteConclusion} {
				if _, ok := branches[name]; !ok {
					return fmt.Errorf("research: draft %q missing", name)
				}
			}
			if err := setOnce(&r.Content, branches[NodeWriteReport].Content); err != nil {
				return err
			}
			if err := setOnce(&r.Introduction, branches[NodeWriteIntroduction].Introduction); err != nil {
				return err
			}
			return setOnce(&r.Conclusion, branches[NodeWriteConclusion].Conclusion)
		},
	)
	return w
}

// Write runs the three writers concurrently and stores their drafts in r.
func (w *Writer) Write(ctx context.Context, r *ReportState, opts ...workflow.Option) error {
	opts = append(opts, workflow.WithLogger(w.logger))
	return w.parallel.Run(ctx, r, opts...)
}

func joinSections(sections []string) string {
	return strings.Join(sections, "\n\n")
}

func (w *Writer) writeBody(ctx context.Context, r *ReportState) error {
	system := fill(reportWriterInstructions, "topic", r.Topic, "context", joinSections(r.Sections))
	resp, err := w.provider.Chat(ctx, []ai.Message{
		ai.NewSystemMessage(system),
		ai.NewUserMessage("Write a report based upon these memos."),
	})
	if err != nil {
		return err
	}
	return setOnce(&r.Content, resp.Content)
}

func (w *Writer) writeIntroduction(ctx context.Context, r *ReportState) error {
	text, err := w.introOrConclusion(ctx, r, "Write the report introduction")
	if err != nil {
		return err
	}
	return setOnce(&r.Introduction, text)
}

func (w *Writer) writeConclusion(ctx context.Context, r *ReportState) error {
	text, err := w.introOrConclusion(ctx, r, "Write the report conclusion")
	if err != nil {
		return err
	}
	return setOnce(&r.Conclusion, text)
}

func (w *Writer) introOrConclusion(ctx context.Context, r *ReportState, instruction string) (string, error) {
	system := fill(introConclusionInstructions, "topic", r.Topic, "formatted_str_sections", joinSections(r.Sections))
	resp, err := w.provider.Chat(ctx, []ai.Message{
		ai.NewSystemMessage(system),
		ai.NewUserMessage(instruction),
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// SplitSources separates the sources block from a report body. It reports
// ok only when the body contains exactly one "\n## Sources\n" delimiter.
func SplitSources(body string) (content, sources string, ok bool) {
	if strings.Count(body, sourcesDelimiter) != 1 {
		return body, "", false
	}
	content, sources, _ = strings.Cut(body, sourcesDelimiter)
	return content, sources, true
}

// DedupSources drops blank lines and repeated source lines, keeping the
// first occurrence of each.
func DedupSources(block string) string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Finalize assembles the final report from the introduction, body and
// conclusion. A leading "## Insights" title is dropped from the body and
// its sources block is moved to the end, deduplicated. A body without a
// single sources delimiter is kept whole and the report has no sources.
func Finalize(r *ReportState, logger *zap.Logger) error {
	if r.FinalReport != "" {
		return ErrAlreadyWritten
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	body := strings.TrimPrefix(r.Content, insightsHeader)
	content, sources, ok := SplitSources(body)
	if !ok && strings.Contains(body, "## Sources") {
		logger.Debug("sources block is ambiguous, leaving it in place",
			zap.Int("delimiters", strings.Count(body, sourcesDelimiter)))
	}

	final := r.Introduction + partSeparator + content + partSeparator + r.Conclusion
	if ok {
		final += "\n\n## Sources\n" + DedupSources(sources)
	}
	r.FinalReport = final
	return nil
}
