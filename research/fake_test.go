package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/search"
)

// fakeModel answers each prompt of the research workflow by recognizing
// its system message.
type fakeModel struct {
	mu sync.Mutex

	// generations holds the analyst sets returned by successive generations.
	generations [][]Analyst
	genCalls    int
	feedbacks   []string

	// questions maps an analyst name to the questions they ask, in order.
	// Past the end, a generic question is asked.
	questions map[string][]string
	// failAsk makes the named analyst's questions fail.
	failAsk map[string]error

	body string

	// asked records every question prompt by analyst.
	asked map[string][][]ai.Message
}

func newFakeModel(generations ...[]Analyst) *fakeModel {
	return &fakeModel{
		generations: generations,
		questions:   map[string][]string{},
		failAsk:     map[string]error{},
		asked:       map[string][][]ai.Message{},
		body:        "## Insights\nThe body.\n## Sources\n[1] https://a.example\n[2] https://b.example\n[1] https://a.example",
	}
}

func (f *fakeModel) Chat(_ context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	o := ai.ApplyOptions(opts...)
	system := msgs[0].Content

	f.mu.Lock()
	defer f.mu.Unlock()

	if o.ResponseSchema != nil {
		switch o.ResponseSchema.Name {
		case "perspectives":
			f.feedbacks = append(f.feedbacks, system)
			set := f.generations[min(f.genCalls, len(f.generations)-1)]
			f.genCalls++
			data, _ := json.Marshal(Perspectives{Analysts: set})
			return &ai.Response{Content: string(data)}, nil
		case "search_query":
			data, _ := json.Marshal(SearchQuery{SearchQuery: "about " + msgs[len(msgs)-1].Content})
			return &ai.Response{Content: string(data)}, nil
		}
		return nil, fmt.Errorf("unexpected schema %q", o.ResponseSchema.Name)
	}

	switch {
	case strings.HasPrefix(system, "You are an analyst tasked with interviewing"):
		a := f.analystIn(system)
		if err := f.failAsk[a]; err != nil {
			return nil, err
		}
		f.asked[a] = append(f.asked[a], ai.CloneMessages(msgs))
		n := len(f.asked[a]) - 1
		if qs := f.questions[a]; n < len(qs) {
			return &ai.Response{Content: qs[n]}, nil
		}
		return &ai.Response{Content: fmt.Sprintf("%s asks question %d", a, n+1)}, nil

	case strings.HasPrefix(system, "You are an expert being interviewed"):
		return &ai.Response{Content: "An expert answer."}, nil

	case strings.HasPrefix(system, "You are an expert technical writer"):
		a := f.analystIn(system)
		return &ai.Response{Content: fmt.Sprintf("## %s findings\n### Summary\nText.\n### Sources\n[1] https://%s.example", a, strings.ToLower(a))}, nil

	case strings.HasPrefix(system, "You are a technical writer creating a report"):
		return &ai.Response{Content: f.body}, nil

	case strings.HasPrefix(system, "You are a technical writer finishing a report"):
		if strings.Contains(msgs[len(msgs)-1].Content, "introduction") {
			return &ai.Response{Content: "# Report\n## Introduction\nIntro."}, nil
		}
		return &ai.Response{Content: "## Conclusion\nDone."}, nil
	}
	return nil, errors.New("unrecognized prompt")
}

// analystIn finds which known analyst a prompt was built for.
func (f *fakeModel) analystIn(system string) string {
	for _, set := range f.generations {
		for _, a := range set {
			if strings.Contains(system, a.Description) {
				return a.Name
			}
		}
	}
	return "unknown"
}

func analyst(name string) Analyst {
	return Analyst{
		Name:        name,
		Role:        "Researcher",
		Affiliation: "Institute",
		Description: "Focus area of " + name,
	}
}

func stubWeb(err error) search.WebSearchFunc {
	return func(_ context.Context, query string, _ int) ([]search.WebResult, error) {
		if err != nil {
			return nil, err
		}
		return []search.WebResult{{URL: "https://web.example", Content: "web: " + query}}, nil
	}
}

func stubKB(err error) search.LookupFunc {
	return func(_ context.Context, query string, _ int) ([]search.Document, error) {
		if err != nil {
			return nil, err
		}
		return []search.Document{{Source: "https://wiki.example", Page: "1", Content: "wiki: " + query}}, nil
	}
}
