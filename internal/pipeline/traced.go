package pipeline

import (
	"context"
	"fmt"

	"github.com/city-brain/enterprise-cli/internal/trace"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

// tracedSearchClient records every search against the resolution's call
// trace. Calls without a recorder in the context pass through untouched.
type tracedSearchClient struct {
	inner bocha.Client
}

// NewTracedSearchClient wraps a search client with call recording.
func NewTracedSearchClient(inner bocha.Client) bocha.Client {
	return &tracedSearchClient{inner: inner}
}

func (c *tracedSearchClient) Search(ctx context.Context, query string, count int) (*bocha.SearchResponse, error) {
	rec := trace.FromContext(ctx)
	if rec == nil {
		return c.inner.Search(ctx, query, count)
	}
	var resp *bocha.SearchResponse
	err := rec.Observe("bocha", "search", query, func() (string, error) {
		var err error
		resp, err = c.inner.Search(ctx, query, count)
		if resp == nil {
			return "", err
		}
		return fmt.Sprintf("%d results", len(resp.Results)), err
	})
	return resp, err
}

// tracedLLMClient records every completion against the resolution's call
// trace.
type tracedLLMClient struct {
	inner llm.Client
}

// NewTracedLLMClient wraps a completion client with call recording.
func NewTracedLLMClient(inner llm.Client) llm.Client {
	return &tracedLLMClient{inner: inner}
}

func (c *tracedLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	rec := trace.FromContext(ctx)
	if rec == nil {
		return c.inner.Complete(ctx, prompt)
	}
	var out string
	err := rec.Observe("anthropic", "complete", prompt, func() (string, error) {
		var err error
		out, err = c.inner.Complete(ctx, prompt)
		return out, err
	})
	return out, err
}
