package model

import "strings"

// DataSource tags the provenance of a resolved profile.
type DataSource string

const (
	// SourceLocalDB marks profiles built from a local registry hit.
	SourceLocalDB DataSource = "LOCAL_DB"
	// SourceSearchEngine marks profiles assembled purely from web search.
	SourceSearchEngine DataSource = "SEARCH_ENGINE"
	// SourceMixed marks search-assembled profiles that still drew brain or
	// chain fields from local tables.
	SourceMixed DataSource = "MIXED"
)

// SourceTable identifies which registry table a record came from.
type SourceTable string

const (
	TableCustomer    SourceTable = "customer"
	TableChainLeader SourceTable = "chain_leader"
)

// CompanyIdentity is the candidate company name extracted from free text.
// It is immutable and discarded once a resolution completes.
type CompanyIdentity struct {
	RawText       string `json:"raw_text"`
	CandidateName string `json:"candidate_name"`
	IsComplete    bool   `json:"is_complete"`
}

// EnterpriseRecord is a row from one of the two local registries. Read-only
// to the pipeline.
type EnterpriseRecord struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Industry        string      `json:"industry"`
	Region          string      `json:"region"`
	Address         string      `json:"address"`
	BrainName       string      `json:"brain_name"`
	ChainLeaderName string      `json:"chain_leader_name"`
	SourceTable     SourceTable `json:"source_table"`
}

// EnrichmentResult accumulates resolver output across pipeline stages.
// Each field is set at most once per resolution; the first resolver to
// produce a non-empty value wins.
type EnrichmentResult struct {
	Industry      string     `json:"industry"`
	Region        string     `json:"region"`
	BrainName     string     `json:"industry_brain"`
	ChainStatus   string     `json:"chain_status"`
	RevenueInfo   string     `json:"revenue_info"`
	RankingStatus string     `json:"company_status"`
	News          NewsDigest `json:"news"`
}

// FilledRatio reports how many enrichment fields carry a real value.
// Placeholder sentinels do not count as filled.
func (e *EnrichmentResult) FilledRatio() float64 {
	fields := []string{
		e.Industry, e.Region, e.BrainName,
		e.ChainStatus, e.RevenueInfo, e.RankingStatus,
	}
	filled := 0
	for _, f := range fields {
		if f != "" && !IsPlaceholder(f) {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// NewsDigest is the cited business-news summary for a company.
type NewsDigest struct {
	Content string       `json:"content"`
	Sources []NewsSource `json:"sources"`
}

// NewsSource is one citation backing a news digest.
type NewsSource struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// CompanyProfile is the final assembled output of one resolution. It is
// created once and never mutated afterwards.
type CompanyProfile struct {
	CompanyName     string           `json:"company_name"`
	Summary         string           `json:"summary"`
	Details         EnrichmentResult `json:"details"`
	News            NewsDigest       `json:"news"`
	ConfidenceScore float64          `json:"confidence_score"`
	DataSource      DataSource       `json:"data_source"`
	Error           string           `json:"error,omitempty"`
}

// ResolveOptions are the boundary flags honored by callers of the pipeline.
type ResolveOptions struct {
	// DisableCache asks surrounding collaborators to skip any cache layer.
	// The pipeline itself keeps no cross-request state.
	DisableCache bool `json:"disable_cache"`
	// EnableNetwork gates the external search/LLM stages.
	EnableNetwork bool `json:"enable_network"`
}

// DefaultResolveOptions returns the options used when the caller passes none.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{EnableNetwork: true}
}

// Well-known placeholder sentinels. Absence is meaningful output in this
// domain, so misses surface as descriptive strings rather than nulls.
const (
	PlaceholderNoRanking       = "暂无排名信息"
	PlaceholderNoRevenue       = "暂无营收数据"
	PlaceholderNoNews          = "暂无最新商业资讯"
	PlaceholderUnclassified    = "暂未归类"
	PlaceholderNoBrainSuffix   = "暂无相应产业大脑"
	PlaceholderNoChainSuffix   = "暂无相应产业链主企业"
	PlaceholderNetworkDisabled = "网络查询已禁用"
)

var placeholders = []string{
	PlaceholderNoRanking,
	PlaceholderNoRevenue,
	PlaceholderNoNews,
	PlaceholderUnclassified,
	PlaceholderNoBrainSuffix,
	PlaceholderNoChainSuffix,
	PlaceholderNetworkDisabled,
}

// IsPlaceholder reports whether v is a miss sentinel rather than real data.
func IsPlaceholder(v string) bool {
	for _, p := range placeholders {
		if v == p || strings.HasSuffix(v, p) {
			return true
		}
	}
	return false
}
