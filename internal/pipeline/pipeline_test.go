package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/city-brain/enterprise-cli/internal/braintable"
	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/trace"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
)

func newTestPipeline(reg *mockRegistry, search *mockSearchClient, completer *mockLLMClient) *Pipeline {
	matcher := NewMatcher(reg, 2)
	static := NewStaticResolver(braintable.Default())
	tracedSearch := NewTracedSearchClient(search)
	tracedLLM := NewTracedLLMClient(completer)
	return New(Deps{
		Matcher:    matcher,
		Industry:   NewIndustryResolver(tracedSearch),
		BrainChain: static,
		Ranking:    NewRankingResolver(tracedSearch, tracedLLM, fastRetry()),
		News:       NewNewsResolver(tracedSearch, tracedLLM),
		Revenue:    NewRevenueResolver(tracedSearch, tracedLLM),
		LLM:        tracedLLM,
	})
}

func promptContains(sub string) any {
	return mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, sub)
	})
}

func TestProcessLocalHitHighConfidence(t *testing.T) {
	reg := new(mockRegistry)
	record := &model.EnterpriseRecord{
		ID:          1,
		Name:        "青岛啤酒股份有限公司",
		Industry:    "食品饮料制造业",
		Region:      "青岛市",
		BrainName:   "青岛食品饮料产业大脑",
		SourceTable: model.TableCustomer,
	}
	reg.On("FindCustomerByExactName", mock.Anything, "青岛啤酒").Return(record, nil)

	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "500强") || strings.Contains(q, "五百强")
	}), 5).Return(searchResponse(
		bocha.Result{Title: "榜单", Snippet: "青岛啤酒股份有限公司入选中国500强"},
	), nil)
	search.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "财报") || strings.Contains(q, "年报") || strings.Contains(q, "收入")
	}), 5).Return(searchResponse(
		bocha.Result{Title: "青岛啤酒股份有限公司年报", Snippet: "营业收入339亿元"},
	), nil)
	search.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "新闻")
	}), 10).Return(searchResponse(
		bocha.Result{Title: "青啤签约", URL: "https://news.example.com/1", Snippet: "合作"},
	), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, promptContains("500强")).Return("第245名", nil)
	completer.On("Complete", mock.Anything, promptContains("营业收入情况")).Return("2024年营收339亿元", nil)
	completer.On("Complete", mock.Anything, promptContains("商业资讯")).Return("一、业务动态：签约[1]", nil)
	completer.On("Complete", mock.Anything, promptContains("概括")).Return("青岛啤酒股份有限公司是青岛市食品饮料龙头。", nil)

	p := newTestPipeline(reg, search, completer)

	profile, err := p.Process(context.Background(), "查询青岛啤酒的信息", model.DefaultResolveOptions())
	require.NoError(t, err)

	assert.Equal(t, "青岛啤酒股份有限公司", profile.CompanyName)
	assert.Equal(t, model.SourceLocalDB, profile.DataSource)
	assert.GreaterOrEqual(t, profile.ConfidenceScore, 0.9)
	assert.Equal(t, "食品饮料制造业，链主", profile.Details.ChainStatus)
	assert.NotEmpty(t, profile.Summary)
}

func TestProcessNoLocalNetworkDisabled(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("FindCustomerByExactName", mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindChainLeaderByExactName", mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindCustomerByFuzzyName", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindChainLeaderByFuzzyName", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	p := newTestPipeline(reg, new(mockSearchClient), new(mockLLMClient))

	profile, err := p.Process(context.Background(), "阿里巴巴集团", model.ResolveOptions{EnableNetwork: false})
	require.NoError(t, err)

	assert.Equal(t, model.SourceSearchEngine, profile.DataSource)
	assert.Equal(t, model.PlaceholderNetworkDisabled, profile.Details.Industry)
	assert.Equal(t, model.PlaceholderNetworkDisabled, profile.Details.RankingStatus)
	assert.Equal(t, model.PlaceholderNetworkDisabled, profile.Details.RevenueInfo)
	assert.Equal(t, model.PlaceholderNetworkDisabled, profile.News.Content)
	assert.Zero(t, profile.ConfidenceScore)
	assert.Empty(t, profile.Error)
}

func TestProcessEmptyInput(t *testing.T) {
	p := newTestPipeline(new(mockRegistry), new(mockSearchClient), new(mockLLMClient))

	_, err := p.Process(context.Background(), "   ", model.DefaultResolveOptions())
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProcessExtractionFailureProfile(t *testing.T) {
	p := newTestPipeline(new(mockRegistry), new(mockSearchClient), new(mockLLMClient))

	profile, err := p.Process(context.Background(), "???!!!", model.DefaultResolveOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, profile.Error)
	assert.Empty(t, profile.CompanyName)
}

func TestProcessSimilarIndustryBackfill(t *testing.T) {
	reg := new(mockRegistry)
	record := &model.EnterpriseRecord{
		ID:          2,
		Name:        "金锣集团有限公司",
		Industry:    "食品加工业",
		Region:      "青岛市",
		SourceTable: model.TableCustomer,
	}
	reg.On("FindCustomerByExactName", mock.Anything, "金锣集团有限公司").Return(record, nil)

	p := newTestPipeline(reg, new(mockSearchClient), new(mockLLMClient))

	profile, err := p.Process(context.Background(), "金锣集团有限公司", model.ResolveOptions{EnableNetwork: false})
	require.NoError(t, err)

	// The similar-industry tier maps 食品加工业 onto the canonical brain.
	assert.Equal(t, "青岛食品饮料产业大脑", profile.Details.BrainName)
	assert.Equal(t, model.SourceLocalDB, profile.DataSource)
}

func TestProcessVariantRetryFindsRecord(t *testing.T) {
	reg := new(mockRegistry)
	record := &model.EnterpriseRecord{
		ID:          3,
		Name:        "万科股份有限公司",
		Industry:    "房地产业",
		Region:      "青岛市",
		SourceTable: model.TableCustomer,
	}
	// The bare brand misses every tier; the first suffix variant hits.
	reg.On("FindCustomerByExactName", mock.Anything, "万科").Return(nil, nil)
	reg.On("FindChainLeaderByExactName", mock.Anything, "万科").Return(nil, nil)
	reg.On("FindCustomerByExactName", mock.Anything, "万科股份有限公司").Return(record, nil)

	p := newTestPipeline(reg, new(mockSearchClient), new(mockLLMClient))

	profile, err := p.Process(context.Background(), "万科", model.ResolveOptions{EnableNetwork: false})
	require.NoError(t, err)

	assert.Equal(t, "万科股份有限公司", profile.CompanyName)
	assert.Equal(t, model.SourceLocalDB, profile.DataSource)
}

func TestProcessResolverFailuresDegrade(t *testing.T) {
	reg := new(mockRegistry)
	reg.On("FindCustomerByExactName", mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindChainLeaderByExactName", mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindCustomerByFuzzyName", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	reg.On("FindChainLeaderByFuzzyName", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(searchResponse(), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("概括摘要", nil)

	p := newTestPipeline(reg, search, completer)

	profile, err := p.Process(context.Background(), "山东某某集团", model.DefaultResolveOptions())
	require.NoError(t, err)

	assert.Equal(t, model.SourceSearchEngine, profile.DataSource)
	assert.Equal(t, model.PlaceholderNoRanking, profile.Details.RankingStatus)
	assert.Equal(t, model.PlaceholderNoRevenue, profile.Details.RevenueInfo)
	assert.Equal(t, model.PlaceholderNoNews, profile.News.Content)
	assert.LessOrEqual(t, profile.ConfidenceScore, 0.5)
}

func TestProcessRecordsExternalCalls(t *testing.T) {
	reg := new(mockRegistry)
	record := &model.EnterpriseRecord{
		ID:          1,
		Name:        "青岛啤酒股份有限公司",
		Industry:    "食品饮料制造业",
		Region:      "青岛市",
		BrainName:   "青岛食品饮料产业大脑",
		SourceTable: model.TableCustomer,
	}
	reg.On("FindCustomerByExactName", mock.Anything, "青岛啤酒").Return(record, nil)

	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(searchResponse(), nil)

	completer := new(mockLLMClient)
	completer.On("Complete", mock.Anything, mock.Anything).Return("青岛啤酒股份有限公司概况。", nil)

	p := newTestPipeline(reg, search, completer)

	rec := trace.NewRecorder()
	ctx := trace.WithRecorder(context.Background(), rec)
	_, err := p.Process(ctx, "查询青岛啤酒的信息", model.DefaultResolveOptions())
	require.NoError(t, err)

	services := make(map[string]int)
	for _, call := range rec.Calls() {
		services[call.Service]++
	}
	assert.Positive(t, services["registry"], "registry lookups belong in the call trace")
	assert.Positive(t, services["bocha"], "search calls belong in the call trace")
	assert.Positive(t, services["anthropic"], "completions belong in the call trace")
}

func TestClamp01(t *testing.T) {
	assert.Zero(t, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.5, clamp01(0.5))
}
