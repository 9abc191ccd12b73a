package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/resilience"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

var top500Keywords = []string{"中国500强", "中国五百强", "财富中国500强", "财富500强"}

var industryTopKeywords = []string{
	"行业前十", "行业前五", "行业领先", "行业龙头", "龙头企业",
	"领军企业", "行业第一", "市场份额第一", "排名第一", "领先地位",
}

// rankTokens and industryRankTokens validate LLM rank extraction output. An
// answer without them is treated as a miss, not as a ranking.
var rankTokens = []string{"第", "排名", "位"}

var industryRankTokens = []string{"行业前", "行业第", "龙头", "领军", "领先"}

// RankingResolver walks top-500 evidence first, then industry top-5
// evidence. Every failure path lands on the no-ranking sentinel; the
// resolver never returns an error.
type RankingResolver struct {
	search bocha.Client
	llm    llm.Client
	retry  resilience.RetryConfig
}

func NewRankingResolver(search bocha.Client, completer llm.Client, retry resilience.RetryConfig) *RankingResolver {
	return &RankingResolver{search: search, llm: completer, retry: retry}
}

func (r *RankingResolver) Resolve(ctx context.Context, name, industry string) string {
	if status := r.checkTop500(ctx, name); status != "" {
		return status
	}
	if status := r.checkIndustryTop(ctx, name, industry); status != "" {
		return status
	}
	return model.PlaceholderNoRanking
}

func (r *RankingResolver) checkTop500(ctx context.Context, name string) string {
	queries := []string{
		fmt.Sprintf("%s 中国500强 排名", name),
		fmt.Sprintf("%s 财富中国500强", name),
		fmt.Sprintf("中国五百强 %s", name),
	}
	for _, query := range queries {
		results := r.searchWithRetry(ctx, query, "ranking top500")
		if !evidenceContains(results, name, top500Keywords) {
			continue
		}
		prompt := fmt.Sprintf(
			"根据以下搜索结果，%s在中国500强中的排名是多少？如果结果中有明确排名，回答格式为\"第N名\"；如果没有明确排名，回答\"未知\"。\n\n%s",
			name, evidenceText(results))
		answer := r.complete(ctx, prompt)
		if containsAny(answer, rankTokens) && !strings.Contains(answer, "未知") {
			return fmt.Sprintf("中国五百强企业，%s", strings.TrimSpace(answer))
		}
		return "中国五百强企业"
	}
	return ""
}

func (r *RankingResolver) checkIndustryTop(ctx context.Context, name, industry string) string {
	queries := []string{
		fmt.Sprintf("%s %s 行业排名", name, industry),
		fmt.Sprintf("%s 行业地位 龙头", name),
		fmt.Sprintf("%s %s 市场份额", name, industry),
		fmt.Sprintf("%s 行业前五", name),
	}
	for _, query := range queries {
		results := r.searchWithRetry(ctx, query, "ranking industry")
		if !evidenceContains(results, name, industryTopKeywords) {
			continue
		}
		prompt := fmt.Sprintf(
			"根据以下搜索结果，判断%s是否为%s的行业前五企业。如果是，回答格式为\"行业第N\"或\"行业龙头\"；如果无法判断，回答\"未知\"。\n\n%s",
			name, industry, evidenceText(results))
		answer := r.complete(ctx, prompt)
		if containsAny(answer, industryRankTokens) && !strings.Contains(answer, "未知") {
			return strings.TrimSpace(answer)
		}
	}
	return ""
}

func (r *RankingResolver) searchWithRetry(ctx context.Context, query, operation string) []bocha.Result {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("bocha", operation)
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*bocha.SearchResponse, error) {
		return r.search.Search(ctx, query, 5)
	})
	if err != nil {
		zap.L().Warn("ranking search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	results := resp.Results
	if len(results) > 5 {
		results = results[:5]
	}
	return results
}

func (r *RankingResolver) complete(ctx context.Context, prompt string) string {
	if r.llm == nil {
		return ""
	}
	answer, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("ranking llm extraction failed", zap.Error(err))
		return ""
	}
	return answer
}

// evidenceContains reports whether any result mentions the company together
// with one of the keywords in the same title+snippet.
func evidenceContains(results []bocha.Result, name string, keywords []string) bool {
	for _, res := range results {
		text := res.Title + " " + res.Snippet
		if !strings.Contains(text, name) {
			continue
		}
		if containsAny(text, keywords) {
			return true
		}
	}
	return false
}

func evidenceText(results []bocha.Result) string {
	var b strings.Builder
	for i, res := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, res.Title, res.Snippet)
	}
	return b.String()
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
