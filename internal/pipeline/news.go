package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/pkg/bocha"
	"github.com/city-brain/enterprise-cli/pkg/llm"
)

const maxNewsSources = 5

const maxSnippetRunes = 100

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+`)

// NewsResolver fetches recent business news and asks the LLM for a cited
// digest. A miss is the no-news sentinel with no sources, never an error.
type NewsResolver struct {
	search bocha.Client
	llm    llm.Client
}

func NewNewsResolver(search bocha.Client, completer llm.Client) *NewsResolver {
	return &NewsResolver{search: search, llm: completer}
}

func (r *NewsResolver) Fetch(ctx context.Context, name string) model.NewsDigest {
	resp, err := r.search.Search(ctx, fmt.Sprintf("%s 新闻 订单 产品 合作 投资 业务 最新", name), 10)
	if err != nil {
		zap.L().Warn("news search failed", zap.String("company", name), zap.Error(err))
		return model.NewsDigest{Content: model.PlaceholderNoNews}
	}

	sources := extractSources(resp)
	if len(sources) == 0 {
		return model.NewsDigest{Content: model.PlaceholderNoNews}
	}

	digest, err := r.summarize(ctx, name, sources)
	if err != nil {
		zap.L().Warn("news digest failed", zap.String("company", name), zap.Error(err))
		return model.NewsDigest{Content: model.PlaceholderNoNews}
	}
	if strings.Contains(digest, model.PlaceholderNoNews) {
		return model.NewsDigest{Content: model.PlaceholderNoNews}
	}
	return model.NewsDigest{Content: digest, Sources: sources}
}

func (r *NewsResolver) summarize(ctx context.Context, name string, sources []model.NewsSource) (string, error) {
	var evidence strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&evidence, "[%d] %s\n%s\n\n", src.ID, src.Title, src.Snippet)
	}

	prompt := fmt.Sprintf(`根据以下编号的搜索结果，整理%s的最新商业资讯，分为四个部分：
1. 业务动态（订单、产品）
2. 合作与投资
3. 经营情况
4. 其他要闻

每条信息后用[编号]标注来源。如果搜索结果中没有与该企业相关的资讯，只回答"%s"。

%s`, name, model.PlaceholderNoNews, evidence.String())

	digest, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(digest), nil
}

// extractSources builds the numbered source list, tolerating the search
// API's schema drift. Structured results win; otherwise bare URLs are pulled
// from the raw payload.
func extractSources(resp *bocha.SearchResponse) []model.NewsSource {
	var sources []model.NewsSource
	for _, res := range resp.Results {
		if res.URL == "" {
			continue
		}
		sources = append(sources, model.NewsSource{
			ID:      len(sources) + 1,
			Title:   res.Title,
			URL:     res.URL,
			Snippet: truncateRunes(firstNonEmpty(res.Summary, res.Snippet), maxSnippetRunes),
		})
		if len(sources) == maxNewsSources {
			return sources
		}
	}
	if len(sources) > 0 {
		return sources
	}

	seen := make(map[string]struct{})
	for _, url := range urlPattern.FindAllString(string(resp.Raw), -1) {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		sources = append(sources, model.NewsSource{ID: len(sources) + 1, URL: url})
		if len(sources) == maxNewsSources {
			break
		}
	}
	return sources
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
