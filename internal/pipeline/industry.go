package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/pkg/bocha"
)

// nameHeuristics maps tokens inside a company name straight to an industry,
// skipping the search round-trip for obvious cases.
var nameHeuristics = []struct {
	token    string
	industry string
}{
	{"啤酒", "食品饮料制造业"},
	{"白酒", "酒类制造业"},
	{"银行", "金融业"},
	{"保险", "金融业"},
	{"证券", "金融业"},
	{"科技", "科技服务业"},
	{"技术", "科技服务业"},
	{"地产", "房地产业"},
	{"置业", "房地产业"},
	{"汽车", "汽车制造业"},
	{"医药", "医药制造业"},
	{"电子", "电子信息制造业"},
	{"食品", "食品饮料制造业"},
	{"物流", "物流运输业"},
}

// industryPatterns are grouped regex families scanned over search titles and
// snippets, most specific groups first.
var industryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([\p{Han}]{2,10}(?:制造业|加工业))`),
	regexp.MustCompile(`(金融业|银行业|保险业|证券业)`),
	regexp.MustCompile(`(房地产业|房地产开发)`),
	regexp.MustCompile(`(批发零售业|商贸流通业|电子商务)`),
	regexp.MustCompile(`(物流运输业|交通运输业|仓储业)`),
	regexp.MustCompile(`(软件和信息技术服务业|信息技术服务业|科技服务业|互联网行业)`),
	regexp.MustCompile(`(电力行业|能源行业|采矿业|石油化工)`),
	regexp.MustCompile(`(农业|畜牧业|渔业|林业)`),
	regexp.MustCompile(`(?:主要从事|属于|所属行业为?|是一家)([\p{Han}]{2,15}?(?:行业|产业|业))`),
	regexp.MustCompile(`([\p{Han}]{2,10}行业)(?:的?龙头|领军)`),
}

// industryNormalization folds pattern hits onto the canonical names used by
// the brain tables.
var industryNormalization = map[string]string{
	"银行业":        "金融业",
	"保险业":        "金融业",
	"证券业":        "金融业",
	"房地产开发":      "房地产业",
	"互联网行业":      "软件和信息技术服务业",
	"信息技术服务业":    "软件和信息技术服务业",
	"商贸流通业":      "批发零售业",
	"电子商务":       "批发零售业",
	"交通运输业":      "物流运输业",
	"仓储业":        "物流运输业",
	"啤酒制造业":      "食品饮料制造业",
	"饮料制造业":      "食品饮料制造业",
	"食品制造业":      "食品饮料制造业",
	"白酒制造业":      "酒类制造业",
	"石油化工":       "化工行业",
}

// IndustryResolver determines a company's industry from its name or from
// web-search evidence. A miss is an empty string, never an error.
type IndustryResolver struct {
	search bocha.Client
}

func NewIndustryResolver(search bocha.Client) *IndustryResolver {
	return &IndustryResolver{search: search}
}

func (r *IndustryResolver) Resolve(ctx context.Context, name string) string {
	for _, h := range nameHeuristics {
		if strings.Contains(name, h.token) {
			return h.industry
		}
	}

	if r.search == nil {
		return ""
	}
	resp, err := r.search.Search(ctx, fmt.Sprintf("%s 行业 主营业务", name), 5)
	if err != nil {
		zap.L().Warn("industry search failed", zap.String("company", name), zap.Error(err))
		return ""
	}

	results := resp.Results
	if len(results) > 5 {
		results = results[:5]
	}
	for _, res := range results {
		text := res.Title + " " + res.Snippet
		for _, pattern := range industryPatterns {
			groups := pattern.FindStringSubmatch(text)
			if groups == nil {
				continue
			}
			hit := groups[len(groups)-1]
			if canonical, ok := industryNormalization[hit]; ok {
				return canonical
			}
			if n := utf8.RuneCountInString(hit); n >= 2 && n <= 15 {
				if !strings.HasSuffix(hit, "业") {
					hit += "业"
				}
				return hit
			}
		}
	}
	return ""
}
