// Package llm wraps the Anthropic API behind the single-turn completion
// capability the resolution pipeline consumes.
package llm

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
)

// Client produces a text completion for a single prompt. No conversation
// state is kept between calls.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the default completion budget.
func WithMaxTokens(n int) Option {
	return func(c *sdkClient) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *sdkClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClient creates a completion client backed by the official SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
