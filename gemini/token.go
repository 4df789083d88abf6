package gemini

import (
	"context"

	"github.com/fwojciec/docindex"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ docindex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens locally with the Gemini tokenizer, without API calls.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultTokenizerModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, docindex.WrapError(docindex.EINVALID, err, "load tokenizer for %s", model)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, docindex.WrapError(docindex.EINTERNAL, err, "count tokens")
	}

	return int(result.TotalTokens), nil
}
