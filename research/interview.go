package research

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/client"
	"github.com/spetersoncode/scholar/search"
	"github.com/spetersoncode/scholar/workflow"
)

// Interview graph nodes.
const (
	NodeAskQuestion     = "ask_question"
	NodeRetrieveContext = "retrieve_context"
	NodeSearchWeb       = "search_web"
	NodeSearchWikipedia = "search_wikipedia"
	NodeAnswerQuestion  = "answer_question"
	NodeSaveInterview   = "save_interview"
	NodeWriteSection    = "write_section"
)

const (
	// ExpertName tags the expert's answers in the transcript.
	ExpertName = "expert"

	// CompletionPhrase is what the analyst says to end the interview.
	CompletionPhrase = "Thank you so much for your help"

	// DefaultMaxTurns bounds the number of expert answers per interview.
	DefaultMaxTurns = 2

	webResults    = 3
	knowledgeDocs = 2
)

// InterviewState is owned by a single interview for its whole life.
type InterviewState struct {
	Analyst Analyst `json:"analyst"`
	// Messages is append-only.
	Messages []ai.Message `json:"messages"`
	// Context holds one retrieval bundle per search branch and question.
	Context  []string `json:"context"`
	MaxTurns int      `json:"max_turns"`
	// Transcript and Section are written once.
	Transcript string `json:"transcript,omitempty"`
	Section    string `json:"section,omitempty"`
}

// Clone returns a deep copy that shares no slices with s.
func (s *InterviewState) Clone() *InterviewState {
	cp := *s
	cp.Messages = ai.CloneMessages(s.Messages)
	cp.Context = append([]string(nil), s.Context...)
	return &cp
}

// SetTranscript records the finished transcript.
func (s *InterviewState) SetTranscript(t string) error {
	if s.Transcript != "" {
		return ErrAlreadyWritten
	}
	s.Transcript = t
	return nil
}

// SetSection records the written section.
func (s *InterviewState) SetSection(section string) error {
	if s.Section != "" {
		return ErrAlreadyWritten
	}
	s.Section = section
	return nil
}

// Route decides what follows an answer: "save_interview" once the expert
// has answered maxTurns times or the question before the last answer
// contains the completion phrase, otherwise "ask_question".
func Route(messages []ai.Message, maxTurns int) string {
	answers := 0
	for _, m := range messages {
		if m.Role == ai.RoleAssistant && m.Name == ExpertName {
			answers++
		}
	}
	if answers >= maxTurns {
		return NodeSaveInterview
	}
	if len(messages) >= 2 && strings.Contains(messages[len(messages)-2].Content, CompletionPhrase) {
		return NodeSaveInterview
	}
	return NodeAskQuestion
}

// ValidateSection checks the layout of a written section: one "## " title,
// a "### Summary" and a "### Sources" header.
func ValidateSection(section string) error {
	var titles int
	var summary, sources bool
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "## "):
			titles++
		case line == "### Summary":
			summary = true
		case line == "### Sources":
			sources = true
		}
	}

	var problems []string
	if titles != 1 {
		problems = append(problems, "expected one ## title")
	}
	if !summary {
		problems = append(problems, "missing ### Summary")
	}
	if !sources {
		problems = append(problems, "missing ### Sources")
	}
	if len(problems) > 0 {
		return &SectionError{Problems: problems}
	}
	return nil
}

// Interviewer runs the interview sub-workflow for one analyst.
type Interviewer struct {
	provider ai.ChatProvider
	web      search.WebSearcher
	kb       search.KnowledgeBase
	logger   *zap.Logger
	graph    *workflow.Graph[InterviewState]
}

// NewInterviewer wires the interview graph to its collaborators.
func NewInterviewer(p ai.ChatProvider, web search.WebSearcher, kb search.KnowledgeBase, logger *zap.Logger) *Interviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	iv := &Interviewer{
		provider: p,
		web:      web,
		kb:       kb,
		logger:   logger.With(zap.String("component", "interview")),
	}

	retrieve := workflow.NewParallel(NodeRetrieveContext,
		[]workflow.Step[InterviewState]{
			workflow.NewFuncStep(NodeSearchWeb, iv.searchWeb),
			workflow.NewFuncStep(NodeSearchWikipedia, iv.searchWikipedia),
		},
		mergeContext,
	)

	iv.graph = workflow.NewGraph[InterviewState]("interview").
		AddNodeFunc(NodeAskQuestion, iv.askQuestion).
		AddNode(retrieve).
		AddNodeFunc(NodeAnswerQuestion, iv.answerQuestion).
		AddNodeFunc(NodeSaveInterview, saveInterview).
		AddNodeFunc(NodeWriteSection, iv.writeSection).
		AddEdge(NodeAskQuestion, NodeRetrieveContext).
		AddEdge(NodeRetrieveContext, NodeAnswerQuestion).
		AddConditionalEdge(NodeAnswerQuestion, func(s *InterviewState) (string, error) {
			return Route(s.Messages, s.MaxTurns), nil
		}).
		AddEdge(NodeSaveInterview, NodeWriteSection).
		AddEdge(NodeWriteSection, workflow.End)
	return iv
}

// Run conducts the interview seeded by state until its section is written.
func (iv *Interviewer) Run(ctx context.Context, state *InterviewState, opts ...workflow.Option) error {
	visits := state.MaxTurns + 1
	if visits < 25 {
		visits = 25
	}
	opts = append([]workflow.Option{workflow.WithMaxVisits(visits)}, opts...)
	opts = append(opts, workflow.WithScope(state.Analyst.Name), workflow.WithLogger(iv.logger))
	return iv.graph.Run(ctx, state, opts...)
}

func (iv *Interviewer) askQuestion(ctx context.Context, s *InterviewState) error {
	system := fill(questionInstructions, "goals", s.Analyst.Persona())
	msgs := append([]ai.Message{ai.NewSystemMessage(system)}, s.Messages...)

	resp, err := iv.provider.Chat(ctx, msgs)
	if err != nil {
		return err
	}
	question := resp.Message()
	s.Messages = append(s.Messages, question)
	iv.logger.Debug("question asked", zap.String("analyst", s.Analyst.Name))
	return nil
}

// query derives a search query from the transcript.
func (iv *Interviewer) query(ctx context.Context, s *InterviewState) (string, error) {
	msgs := append([]ai.Message{ai.NewSystemMessage(searchInstructions)}, s.Messages...)
	q, err := client.Generate[SearchQuery](ctx, iv.provider, msgs)
	if err != nil {
		return "", err
	}
	return q.SearchQuery, nil
}

func (iv *Interviewer) searchWeb(ctx context.Context, s *InterviewState) error {
	bundle, err := iv.retrieve(ctx, s, "web", func(q string) (string, error) {
		results, err := iv.web.Search(ctx, q, webResults)
		if err != nil {
			return "", err
		}
		return search.FormatWeb(results), nil
	})
	if err != nil {
		return err
	}
	s.Context = append(s.Context, bundle)
	return nil
}

func (iv *Interviewer) searchWikipedia(ctx context.Context, s *InterviewState) error {
	bundle, err := iv.retrieve(ctx, s, "knowledge_base", func(q string) (string, error) {
		docs, err := iv.kb.Lookup(ctx, q, knowledgeDocs)
		if err != nil {
			return "", err
		}
		return search.FormatDocuments(docs), nil
	})
	if err != nil {
		return err
	}
	s.Context = append(s.Context, bundle)
	return nil
}

// retrieve runs one retrieval branch. Failures degrade to an empty bundle;
// only cancellation of ctx is returned as an error.
func (iv *Interviewer) retrieve(ctx context.Context, s *InterviewState, source string, fetch func(query string) (string, error)) (string, error) {
	q, err := iv.query(ctx, s)
	if err == nil {
		var bundle string
		bundle, err = fetch(q)
		if err == nil {
			return bundle, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	retrievalErr := &ai.RetrievalError{Source: source, Query: q, Err: err}
	iv.logger.Warn("retrieval failed, continuing without context",
		zap.String("analyst", s.Analyst.Name),
		zap.Error(retrievalErr),
	)
	return "", nil
}

// mergeContext appends each branch's new bundles, web first.
func mergeContext(s *InterviewState, branches map[string]*InterviewState, _ map[string]error) error {
	base := len(s.Context)
	for _, name := range []string{NodeSearchWeb, NodeSearchWikipedia} {
		b, ok := branches[name]
		if !ok || len(b.Context) <= base {
			continue
		}
		s.Context = append(s.Context, b.Context[base:]...)
	}
	return nil
}

func (iv *Interviewer) answerQuestion(ctx context.Context, s *InterviewState) error {
	system := fill(answerInstructions,
		"goals", s.Analyst.Persona(),
		"context", joinContext(s.Context),
	)
	msgs := append([]ai.Message{ai.NewSystemMessage(system)}, s.Messages...)

	resp, err := iv.provider.Chat(ctx, msgs)
	if err != nil {
		return err
	}
	answer := resp.Message()
	answer.Name = ExpertName
	s.Messages = append(s.Messages, answer)
	return nil
}

func saveInterview(_ context.Context, s *InterviewState) error {
	return s.SetTranscript(ai.BufferString(s.Messages))
}

func (iv *Interviewer) writeSection(ctx context.Context, s *InterviewState) error {
	system := fill(sectionWriterInstructions, "focus", s.Analyst.Description)
	msgs := []ai.Message{
		ai.NewSystemMessage(system),
		ai.NewUserMessage("Use this source to write your section: " + joinContext(s.Context)),
	}

	resp, err := iv.provider.Chat(ctx, msgs)
	if err != nil {
		return err
	}
	if err := ValidateSection(resp.Content); err != nil {
		var secErr *SectionError
		if errors.As(err, &secErr) {
			iv.logger.Warn("section layout differs from the expected structure",
				zap.String("analyst", s.Analyst.Name),
				zap.Strings("problems", secErr.Problems),
			)
		}
	}
	return s.SetSection(resp.Content)
}

// joinContext renders the accumulated bundles for a prompt, skipping empty
// bundles left by failed retrievals.
func joinContext(bundles []string) string {
	parts := make([]string, 0, len(bundles))
	for _, b := range bundles {
		if b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, search.Separator)
}
