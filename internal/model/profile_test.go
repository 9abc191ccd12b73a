package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilledRatio(t *testing.T) {
	e := EnrichmentResult{}
	assert.Zero(t, e.FilledRatio())

	e.Industry = "食品饮料制造业"
	e.Region = "青岛市"
	e.BrainName = "青岛食品饮料产业大脑"
	assert.InDelta(t, 0.5, e.FilledRatio(), 1e-9)

	e.ChainStatus = "食品饮料制造业，链主"
	e.RevenueInfo = "2024年营收339亿元"
	e.RankingStatus = "中国五百强企业"
	assert.InDelta(t, 1.0, e.FilledRatio(), 1e-9)
}

func TestFilledRatioIgnoresPlaceholders(t *testing.T) {
	e := EnrichmentResult{
		Industry:      "食品饮料制造业",
		RankingStatus: PlaceholderNoRanking,
		RevenueInfo:   PlaceholderNoRevenue,
		BrainName:     "青岛市" + PlaceholderNoBrainSuffix,
	}
	assert.InDelta(t, 1.0/6.0, e.FilledRatio(), 1e-9)
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(PlaceholderNoRanking))
	assert.True(t, IsPlaceholder(PlaceholderNetworkDisabled))
	assert.True(t, IsPlaceholder("临沂市"+PlaceholderNoChainSuffix))
	assert.False(t, IsPlaceholder("食品饮料制造业"))
	assert.False(t, IsPlaceholder(""))
}

func TestDefaultResolveOptions(t *testing.T) {
	opts := DefaultResolveOptions()
	assert.True(t, opts.EnableNetwork)
	assert.False(t, opts.DisableCache)
}
