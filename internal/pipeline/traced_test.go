package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/city-brain/enterprise-cli/internal/trace"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
)

func TestTracedSearchRecordsCall(t *testing.T) {
	inner := new(mockSearchClient)
	inner.On("Search", mock.Anything, "青岛啤酒 行业", 5).Return(searchResponse(
		bocha.Result{Title: "简介", Snippet: "食品饮料制造业"},
	), nil)

	rec := trace.NewRecorder()
	ctx := trace.WithRecorder(context.Background(), rec)

	resp, err := NewTracedSearchClient(inner).Search(ctx, "青岛啤酒 行业", 5)
	require.NoError(t, err)
	require.NotNil(t, resp)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bocha", calls[0].Service)
	assert.Equal(t, "search", calls[0].Operation)
	assert.Equal(t, "青岛啤酒 行业", calls[0].Input)
	assert.Equal(t, "1 results", calls[0].Output)
	assert.True(t, calls[0].OK)
}

func TestTracedSearchRecordsFailure(t *testing.T) {
	inner := new(mockSearchClient)
	inner.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, eris.New("bocha: unexpected status 500"))

	rec := trace.NewRecorder()
	ctx := trace.WithRecorder(context.Background(), rec)

	_, err := NewTracedSearchClient(inner).Search(ctx, "青岛啤酒", 5)
	require.Error(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].OK)
	assert.Contains(t, calls[0].Err, "500")
}

func TestTracedSearchPassthroughWithoutRecorder(t *testing.T) {
	inner := new(mockSearchClient)
	inner.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(searchResponse(), nil)

	resp, err := NewTracedSearchClient(inner).Search(context.Background(), "青岛啤酒", 5)
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestTracedLLMRecordsCall(t *testing.T) {
	inner := new(mockLLMClient)
	inner.On("Complete", mock.Anything, "概括以下企业信息").Return("青岛啤酒股份有限公司概况。", nil)

	rec := trace.NewRecorder()
	ctx := trace.WithRecorder(context.Background(), rec)

	out, err := NewTracedLLMClient(inner).Complete(ctx, "概括以下企业信息")
	require.NoError(t, err)
	assert.Equal(t, "青岛啤酒股份有限公司概况。", out)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "anthropic", calls[0].Service)
	assert.Equal(t, "complete", calls[0].Operation)
	assert.Equal(t, "青岛啤酒股份有限公司概况。", calls[0].Output)
	assert.True(t, calls[0].OK)
}

func TestTracedLLMRecordsFailure(t *testing.T) {
	inner := new(mockLLMClient)
	inner.On("Complete", mock.Anything, mock.Anything).Return("", eris.New("llm: create message"))

	rec := trace.NewRecorder()
	ctx := trace.WithRecorder(context.Background(), rec)

	_, err := NewTracedLLMClient(inner).Complete(ctx, "概括")
	require.Error(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].OK)
}
