package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindTableIsComplete(t *testing.T) {
	assert.Equal(t, []string{"TEXT", "DATAFRAME", "GEODATAFRAME", "PLOT", "MAP"}, Labels())
	for _, k := range AllKinds() {
		assert.NotEmpty(t, k.Phrase(), k.Label())
		assert.NotEmpty(t, k.GoType(), k.Label())

		parsed, err := ParseResultKind(k.Label())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestParseResultKindRejectsUnknownLabels(t *testing.T) {
	_, err := ParseResultKind("text")
	assert.Error(t, err)
	_, err = ParseResultKind("TABLE")
	assert.Error(t, err)
}

func TestResultKindJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Kind ResultKind `json:"kind"`
	}{KindGeoDataFrame})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"GEODATAFRAME"}`, string(data))

	var decoded struct {
		Kind ResultKind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"MAP"}`), &decoded))
	assert.Equal(t, KindMap, decoded.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"CHART"}`), &decoded))

	_, err = json.Marshal(ResultKind(42))
	assert.Error(t, err)
}

func TestInvalidKindPanics(t *testing.T) {
	assert.Panics(t, func() { _ = ResultKind(-1).Label() })
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	u.Add(&TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	u.Add(nil)
	assert.Equal(t, TokenUsage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33}, u)
}
