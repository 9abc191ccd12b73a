// Package bocha provides a thin client for the Bocha web-search API.
package bocha

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.bochaai.com/v1/web-search"

// Client performs web searches.
type Client interface {
	Search(ctx context.Context, query string, count int) (*SearchResponse, error)
}

// Result is a single normalized search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Summary string `json:"summary,omitempty"`
}

// SearchResponse is the normalized search payload. Raw preserves the
// provider's data section for consumers that feed it to an LLM verbatim.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []Result        `json:"results"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bocha API client. The default timeout covers the
// search budget expected by the resolution pipeline.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchRequest struct {
	Query   string `json:"query"`
	Summary bool   `json:"summary"`
	Count   int    `json:"count"`
}

type searchEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *httpClient) Search(ctx context.Context, query string, count int) (*SearchResponse, error) {
	if count <= 0 {
		count = 10
	}

	body, err := json.Marshal(searchRequest{Query: query, Summary: true, Count: count})
	if err != nil {
		return nil, eris.Wrap(err, "bocha: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "bocha: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "bocha: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "bocha: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("bocha: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, eris.Wrap(err, "bocha: unmarshal response")
	}

	result := &SearchResponse{
		Query:   query,
		Results: ParseResults(envelope.Data),
		Raw:     envelope.Data,
	}
	return result, nil
}

// webPagesData mirrors the provider's structured payload shape.
type webPagesData struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			Title   string `json:"title"`
			URL     string `json:"url"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Summary string `json:"summary"`
		} `json:"value"`
	} `json:"webPages"`
}

// ParseResults normalizes the provider's structured shapes: a webPages
// object or a flat result list. The API has also shipped a bare-string
// shape; it carries no per-result structure, so it stays in Raw for
// consumers that extract URLs from it directly.
func ParseResults(data json.RawMessage) []Result {
	if len(data) == 0 {
		return nil
	}

	var structured webPagesData
	if err := json.Unmarshal(data, &structured); err == nil && len(structured.WebPages.Value) > 0 {
		results := make([]Result, 0, len(structured.WebPages.Value))
		for _, v := range structured.WebPages.Value {
			title := v.Name
			if title == "" {
				title = v.Title
			}
			url := v.URL
			if url == "" {
				url = v.Link
			}
			results = append(results, Result{Title: title, URL: url, Snippet: v.Snippet, Summary: v.Summary})
		}
		return results
	}

	var flat []Result
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) > 0 {
		return flat
	}

	return nil
}
