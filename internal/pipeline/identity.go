package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/city-brain/enterprise-cli/internal/model"
)

// legalSuffixes are entity suffixes that mark a mention as a complete
// registered name, ordered longest first so the most specific form wins.
var legalSuffixes = []string{
	"集团股份有限公司",
	"集团有限公司",
	"股份有限公司",
	"有限责任公司",
	"控股有限公司",
	"集团公司",
	"股份公司",
	"有限公司",
	"公司",
	"集团",
	"企业",
	"厂",
	"店",
	"中心",
	"协会",
	"学会",
}

// knownBrands are well-known short names that stand alone without a legal
// suffix. A bare match still yields an incomplete identity so the lookup
// falls through the fuzzy tiers.
var knownBrands = []string{
	"阿里巴巴", "腾讯", "百度", "京东", "华为", "小米", "美团", "滴滴", "字节跳动",
	"青岛啤酒", "海尔", "海信", "茅台", "五粮液", "格力", "比亚迪", "宁德时代",
	"中石油", "中石化", "国家电网", "招商银行", "平安", "万科",
}

// queryWords are query phrasing stripped from the text before any pattern
// runs, ordered longest first so compounds are removed whole. Entity words
// like 公司 are deliberately absent; they are part of names.
var queryWords = []string{
	"为什么", "怎么样", "请帮我", "查一下", "了解一下",
	"查询", "请问", "什么", "怎么", "哪里", "如何", "谢谢", "你好",
	"介绍", "一下", "帮我", "信息", "资讯", "最新", "情况",
	"请", "的",
}

// stopWords are words that must never be mistaken for a company name on
// their own.
var stopWords = map[string]struct{}{
	"公司": {}, "企业": {}, "集团": {}, "行业": {}, "产业": {},
}

var (
	// suffixedNamePattern captures a Han run ending in a legal suffix.
	suffixedNamePattern = regexp.MustCompile(
		`[\p{Han}a-zA-Z0-9（）()]{2,30}?(?:` + strings.Join(legalSuffixQuoted(), "|") + `)`)

	// brandPattern captures a known brand mentioned without a legal suffix.
	brandPattern = regexp.MustCompile(`(?:` + strings.Join(knownBrands, "|") + `)`)

	// hanRunPattern is the last-resort generic capture of a plausible name.
	hanRunPattern = regexp.MustCompile(`[\p{Han}]{2,10}`)
)

func legalSuffixQuoted() []string {
	out := make([]string, len(legalSuffixes))
	for i, s := range legalSuffixes {
		out[i] = regexp.QuoteMeta(s)
	}
	return out
}

// IdentityExtractor pulls a candidate company name out of free text.
type IdentityExtractor struct{}

func NewIdentityExtractor() *IdentityExtractor {
	return &IdentityExtractor{}
}

// Extract normalizes the input and applies the capture patterns in priority
// order. A name carrying a legal suffix is complete; a bare brand or generic
// Han run is not.
func (e *IdentityExtractor) Extract(raw string) model.CompanyIdentity {
	identity := model.CompanyIdentity{RawText: raw}

	text := stripQueryWords(normalizeText(raw))
	if text == "" {
		return identity
	}

	if name := suffixedNamePattern.FindString(text); name != "" {
		identity.CandidateName = name
		identity.IsComplete = true
		return identity
	}

	if name := brandPattern.FindString(text); name != "" {
		identity.CandidateName = name
		identity.IsComplete = false
		return identity
	}

	for _, run := range hanRunPattern.FindAllString(text, -1) {
		if _, stop := stopWords[run]; stop {
			continue
		}
		identity.CandidateName = run
		identity.IsComplete = false
		return identity
	}
	return identity
}

// normalizeText folds fullwidth characters to their halfwidth forms and
// collapses whitespace so the patterns see canonical text.
func normalizeText(s string) string {
	s = width.Narrow.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// stripQueryWords replaces query phrasing with separators so captures break
// at word boundaries instead of absorbing the surrounding request.
func stripQueryWords(s string) string {
	for _, word := range queryWords {
		s = strings.ReplaceAll(s, word, "|")
	}
	return s
}
