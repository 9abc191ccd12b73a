package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/resilience"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: 1,
		ShouldRetry:    func(error) bool { return true },
	}
}

func TestRankingTop500WithExtractedRank(t *testing.T) {
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, "青岛啤酒 中国500强 排名", 5).Return(searchResponse(
		bocha.Result{Title: "中国500强榜单", Snippet: "青岛啤酒位列中国500强第245名"},
	), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("第245名", nil)

	r := NewRankingResolver(search, completer, fastRetry())

	got := r.Resolve(context.Background(), "青岛啤酒", "食品饮料制造业")
	assert.Equal(t, "中国五百强企业，第245名", got)
}

func TestRankingTop500GenericWhenLLMLacksRankToken(t *testing.T) {
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, "青岛啤酒 中国500强 排名", 5).Return(searchResponse(
		bocha.Result{Title: "榜单", Snippet: "青岛啤酒入选财富中国500强"},
	), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("未知", nil)

	r := NewRankingResolver(search, completer, fastRetry())

	got := r.Resolve(context.Background(), "青岛啤酒", "")
	assert.Equal(t, "中国五百强企业", got)
}

func TestRankingIndustryTopFive(t *testing.T) {
	search := new(mockSearchClient)
	// All top-500 queries miss; the first industry query hits.
	search.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return q != "某某公司 某行业 行业排名"
	}), 5).Return(searchResponse(), nil)
	search.On("Search", mock.Anything, "某某公司 某行业 行业排名", 5).Return(searchResponse(
		bocha.Result{Title: "行业分析", Snippet: "某某公司是某行业的龙头企业"},
	), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("行业龙头", nil)

	r := NewRankingResolver(search, completer, fastRetry())

	got := r.Resolve(context.Background(), "某某公司", "某行业")
	assert.Equal(t, "行业龙头", got)
}

func TestRankingNoEvidenceSentinel(t *testing.T) {
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything, 5).Return(searchResponse(
		bocha.Result{Title: "无关结果", Snippet: "毫不相关的内容"},
	), nil)

	r := NewRankingResolver(search, new(mockLLMClient), fastRetry())

	got := r.Resolve(context.Background(), "某某公司", "某行业")
	assert.Equal(t, model.PlaceholderNoRanking, got)
}

func TestRankingSearchFailureNeverErrors(t *testing.T) {
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything, 5).Return(nil, eris.New("timeout"))

	r := NewRankingResolver(search, new(mockLLMClient), fastRetry())

	got := r.Resolve(context.Background(), "某某公司", "某行业")
	assert.Equal(t, model.PlaceholderNoRanking, got)
}

func TestRankingLLMFailureFallsBackToGenericLabel(t *testing.T) {
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, "青岛啤酒 中国500强 排名", 5).Return(searchResponse(
		bocha.Result{Title: "榜单", Snippet: "青岛啤酒入选中国五百强"},
	), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", eris.New("llm down"))

	r := NewRankingResolver(search, completer, fastRetry())

	got := r.Resolve(context.Background(), "青岛啤酒", "")
	assert.Equal(t, "中国五百强企业", got)
}
