// Package gemini implements docindex services on the Google Gemini API:
// embeddings, question answering over search results and token counting.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/docindex"
	"google.golang.org/genai"
)

// Model names.
const (
	DefaultAskModel       = "gemini-2.5-flash"
	DefaultEmbeddingModel = "gemini-embedding-001"
	DefaultTokenizerModel = "gemini-2.0-flash"
)

// NewClient creates a Gemini API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, docindex.Errorf(docindex.EINVALID, "GEMINI_API_KEY required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, docindex.WrapError(docindex.EINTERNAL, err, "create gemini client")
	}
	return client, nil
}

// classify maps a Gemini API error to an application error.
func classify(err error, msg string) error {
	status := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}

	code := docindex.EUNAVAILABLE
	switch {
	case status == 0:
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		code = docindex.EFORBIDDEN
	case status == http.StatusBadRequest:
		code = docindex.EINVALID
	case status == http.StatusNotFound:
		code = docindex.ENOTFOUND
	case status == http.StatusTooManyRequests, status >= 500:
		code = docindex.EUNAVAILABLE
	default:
		code = docindex.EINTERNAL
	}
	return docindex.WrapError(code, err, "%s", msg)
}
