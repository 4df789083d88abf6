package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/docindex"
	"google.golang.org/genai"
)

// Ensure Asker implements docindex.Asker at compile time.
var _ docindex.Asker = (*Asker)(nil)

// DefaultAskLimit is how many passages are retrieved for a question.
const DefaultAskLimit = 8

// Searcher retrieves ranked passages for a query.
type Searcher interface {
	Search(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error)
}

// Asker implements docindex.Asker using Google Gemini.
type Asker struct {
	client   *genai.Client
	searcher Searcher
	model    string
}

// NewAsker creates a new Asker that grounds answers in passages from searcher.
func NewAsker(client *genai.Client, searcher Searcher) *Asker {
	return &Asker{client: client, searcher: searcher, model: DefaultAskModel}
}

// Ask answers a natural language question about the indexed documentation.
func (a *Asker) Ask(ctx context.Context, question string, opts docindex.SearchOptions) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", docindex.Errorf(docindex.EINVALID, "question required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultAskLimit
	}

	results, err := a.searcher.Search(ctx, question, opts)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", docindex.Errorf(docindex.ENOTFOUND, "no passages matched %q", question)
	}
	if a.client == nil {
		return "", docindex.Errorf(docindex.EUNAVAILABLE, "gemini client not configured")
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(results, question)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", classify(err, "generate answer")
	}
	if result == nil {
		return "", docindex.Errorf(docindex.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about software documentation. Answer based only on the passages provided and cite their source URLs. If the answer is not in the passages, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing retrieved passages and the question.
func BuildUserPrompt(results []docindex.SearchResult, question string) string {
	var sb strings.Builder
	sb.WriteString("<passages>\n")
	for i, r := range results {
		meta := r.Passage.Metadata
		title := meta.SectionTitle
		if title == "" {
			title = meta.Title
		}
		sb.WriteString("<passage>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		fmt.Fprintf(&sb, "<source>%s</source>\n", meta.URL)
		fmt.Fprintf(&sb, "<content>%s</content>\n", r.Passage.Content)
		sb.WriteString("</passage>\n")
	}
	sb.WriteString("</passages>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
