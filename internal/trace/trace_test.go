package trace

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRecordsSuccess(t *testing.T) {
	r := NewRecorder()

	err := r.Observe("bocha", "search", "青岛啤酒 行业", func() (string, error) {
		return "3 results", nil
	})
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bocha", calls[0].Service)
	assert.Equal(t, "search", calls[0].Operation)
	assert.True(t, calls[0].OK)
	assert.Empty(t, calls[0].Err)
}

func TestObserveRecordsFailure(t *testing.T) {
	r := NewRecorder()

	err := r.Observe("llm", "complete", "prompt", func() (string, error) {
		return "", eris.New("rate limited")
	})
	require.Error(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].OK)
	assert.Contains(t, calls[0].Err, "rate limited")
}

func TestObserveTruncatesLargePayloads(t *testing.T) {
	r := NewRecorder()

	_ = r.Observe("bocha", "search", strings.Repeat("长", 300), func() (string, error) {
		return strings.Repeat("果", 900), nil
	})

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Less(t, len([]rune(calls[0].Input)), 300)
	assert.Less(t, len([]rune(calls[0].Output)), 900)
}

func TestRecorderIDStable(t *testing.T) {
	r := NewRecorder()
	assert.NotEmpty(t, r.ID())
	assert.Equal(t, r.ID(), r.ID())
}

func TestCallsReturnsCopy(t *testing.T) {
	r := NewRecorder()
	_ = r.Observe("a", "b", "c", func() (string, error) { return "", nil })

	calls := r.Calls()
	calls[0].Service = "mutated"
	assert.Equal(t, "a", r.Calls()[0].Service)
}
