package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

var revenueKeywords = []string{"营收", "营业收入", "财报", "年报", "亿元", "万元", "收入"}

// RevenueResolver looks up recent revenue figures from financial-report
// search results. A miss is the no-revenue sentinel, never an error.
type RevenueResolver struct {
	search bocha.Client
	llm    llm.Client
}

func NewRevenueResolver(search bocha.Client, completer llm.Client) *RevenueResolver {
	return &RevenueResolver{search: search, llm: completer}
}

func (r *RevenueResolver) Resolve(ctx context.Context, name string) string {
	queries := []string{
		fmt.Sprintf("%s 营业收入 财报", name),
		fmt.Sprintf("%s 年报 营收", name),
		fmt.Sprintf("%s 年度 收入 亿元", name),
	}
	for _, query := range queries {
		resp, err := r.search.Search(ctx, query, 5)
		if err != nil {
			zap.L().Warn("revenue search failed", zap.String("query", query), zap.Error(err))
			continue
		}

		var evidence strings.Builder
		for _, res := range resp.Results {
			text := res.Title + " " + res.Snippet
			if !strings.Contains(text, name) || !containsAny(text, revenueKeywords) {
				continue
			}
			fmt.Fprintf(&evidence, "%s\n%s\n\n", res.Title, res.Snippet)
		}
		if evidence.Len() == 0 {
			continue
		}

		prompt := fmt.Sprintf(
			"根据以下搜索结果，总结%s近三年的营业收入情况，包含具体年份和金额。如果没有可靠的营收数据，只回答\"%s\"。\n\n%s",
			name, model.PlaceholderNoRevenue, evidence.String())
		answer, err := r.llm.Complete(ctx, prompt)
		if err != nil {
			zap.L().Warn("revenue llm summary failed", zap.String("company", name), zap.Error(err))
			continue
		}
		answer = strings.TrimSpace(answer)
		if answer == "" || strings.Contains(answer, model.PlaceholderNoRevenue) {
			continue
		}
		return answer
	}
	return model.PlaceholderNoRevenue
}
