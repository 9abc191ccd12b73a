package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSuffixedName(t *testing.T) {
	e := NewIdentityExtractor()

	id := e.Extract("请帮我查询青岛啤酒股份有限公司的信息")
	assert.Equal(t, "青岛啤酒股份有限公司", id.CandidateName)
	assert.True(t, id.IsComplete)
}

func TestExtractLongestSuffixWins(t *testing.T) {
	e := NewIdentityExtractor()

	id := e.Extract("海尔集团股份有限公司怎么样")
	assert.Equal(t, "海尔集团股份有限公司", id.CandidateName)
	assert.True(t, id.IsComplete)
}

func TestExtractBareBrandIsIncomplete(t *testing.T) {
	e := NewIdentityExtractor()

	id := e.Extract("查询青岛啤酒的最新信息")
	assert.Equal(t, "青岛啤酒", id.CandidateName)
	assert.False(t, id.IsComplete)
}

func TestExtractGenericHanRun(t *testing.T) {
	e := NewIdentityExtractor()

	id := e.Extract("请问海天味业怎么样")
	assert.Equal(t, "海天味业", id.CandidateName)
	assert.False(t, id.IsComplete)
}

func TestExtractStopWordsOnly(t *testing.T) {
	e := NewIdentityExtractor()

	id := e.Extract("请问 什么 信息")
	assert.Empty(t, id.CandidateName)
}

func TestExtractEmptyInput(t *testing.T) {
	e := NewIdentityExtractor()

	assert.Empty(t, e.Extract("").CandidateName)
	assert.Empty(t, e.Extract("   ").CandidateName)
}

func TestExtractNormalizesFullwidth(t *testing.T) {
	e := NewIdentityExtractor()

	// Fullwidth ASCII in the mention must not break suffix detection.
	id := e.Extract("ＴＣＬ科技集团股份有限公司")
	assert.True(t, id.IsComplete)
	assert.Contains(t, id.CandidateName, "科技集团股份有限公司")
}

func TestExtractKeepsRawText(t *testing.T) {
	e := NewIdentityExtractor()

	raw := "查一下腾讯"
	id := e.Extract(raw)
	assert.Equal(t, raw, id.RawText)
	assert.Equal(t, "腾讯", id.CandidateName)
}
