package geoai_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geoai "github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/cache"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/llm/llmtest"
	"github.com/soundprediction/go-geoai/pkg/types"
)

const averageSnippet = "```go\n" + `package main

import (
	"fmt"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) string {
	return fmt.Sprintf("%g", df_1.Col("value").Mean())
}
` + "```"

const withinSnippet = `package main

import (
	"github.com/paulmach/orb"
	"github.com/soundprediction/go-geoai/pkg/geo"
)

func execute(df_1 *geo.GeoDataFrame) *geo.GeoDataFrame {
	return df_1.Within(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}})
}
`

func valuesTable() *frame.DataFrame {
	return frame.MustNew(
		frame.NewStrings("name", []string{"A", "B", "C"}),
		frame.NewInts("value", []int64{10, 20, 30}),
	)
}

func places() *geo.GeoDataFrame {
	return geo.MustNew(
		frame.MustNew(frame.NewStrings("name", []string{"in", "out"})),
		[]orb.Geometry{orb.Point{5, 5}, orb.Point{50, 50}},
		geo.DefaultCRS,
	)
}

func newClient(t *testing.T, model *llmtest.ScriptedClient, config *geoai.Config) *geoai.Client {
	t.Helper()
	if config == nil {
		config = &geoai.Config{}
	}
	config.TempDir = t.TempDir()
	c, err := geoai.NewClient(model, config)
	require.NoError(t, err)
	return c
}

func TestAskAverageValue(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", averageSnippet)
	c := newClient(t, model, nil)

	res, err := c.Ask(context.Background(), "What is the average value?", []frame.Dataset{valuesTable()})
	require.NoError(t, err)

	assert.Equal(t, types.KindText, res.Kind)
	text, ok := res.Text()
	require.True(t, ok)
	assert.Equal(t, "20", text)
	assert.False(t, res.Cached)
	assert.NotEmpty(t, res.RequestID)
	assert.Contains(t, res.Code, "func execute(df_1 *frame.DataFrame) string")
	assert.Len(t, model.Calls(), 2)
}

func TestAskServesRepeatsFromCache(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", averageSnippet)
	backend := cache.NewFileSystemBackend(t.TempDir())
	c := newClient(t, model, &geoai.Config{Cache: backend})

	first, err := c.Ask(context.Background(), "What is the average value?", []frame.Dataset{valuesTable()})
	require.NoError(t, err)
	require.NotEmpty(t, first.CacheKey)

	second, err := c.Ask(context.Background(), "What is the average value?", []frame.Dataset{valuesTable()})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Code, second.Code)
	assert.Len(t, model.Calls(), 2)

	require.NoError(t, c.ClearCache(first.CacheKey))
	_, ok, err := backend.Get(first.CacheKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAskWithDeclaredKindSkipsClassification(t *testing.T) {
	model := llmtest.NewScriptedClient(averageSnippet)
	c := newClient(t, model, nil)

	res, err := c.Ask(context.Background(), "average", []frame.Dataset{valuesTable()}, geoai.WithKind(types.KindText))
	require.NoError(t, err)
	assert.Equal(t, "20", res.Value)
	assert.Len(t, model.Calls(), 1)
}

func TestAskTypeMismatch(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>DATAFRAME</Type>", averageSnippet)
	c := newClient(t, model, nil)

	_, err := c.Ask(context.Background(), "average", []frame.Dataset{valuesTable()})
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestAskRepairsFailingSnippet(t *testing.T) {
	broken := "package main\n\nfunc execute(df_1 *frame.DataFrame) string {"
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", broken, averageSnippet)
	c := newClient(t, model, &geoai.Config{MaxFixAttempts: 1})

	res, err := c.Ask(context.Background(), "average", []frame.Dataset{valuesTable()})
	require.NoError(t, err)
	assert.Equal(t, "20", res.Value)

	calls := model.Calls()
	require.Len(t, calls, 3)
	last := calls[2].Messages
	assert.Equal(t, broken, last[len(last)-2].Content)
}

func TestAskWithoutRepairSurfacesExecutionError(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", "package main\n\nfunc execute(")
	c := newClient(t, model, nil)

	_, err := c.Ask(context.Background(), "average", []frame.Dataset{valuesTable()})
	assert.ErrorIs(t, err, types.ErrExecution)
	assert.Len(t, model.Calls(), 2)
}

func TestGeoFrameResultsSupportFollowUps(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>GEODATAFRAME</Type>", withinSnippet, "<Type>TEXT</Type>", `package main

import "github.com/soundprediction/go-geoai/pkg/geo"

func execute(df_1 *geo.GeoDataFrame) string { return df_1.Col("name").Str(0) }
`)
	backend, err := cache.NewInMemoryBadgerBackend()
	require.NoError(t, err)
	defer backend.Close()
	c := newClient(t, model, &geoai.Config{Cache: backend})

	res, err := c.Ask(context.Background(), "Which places are inside the square?", []frame.Dataset{places()})
	require.NoError(t, err)
	gf, ok := res.GeoFrame()
	require.True(t, ok)
	assert.Equal(t, 1, gf.NumRows())

	follow, err := gf.Chat(context.Background(), "What is its name?", nil)
	require.NoError(t, err)
	assert.Equal(t, "in", follow.Value)

	cached, err := c.Ask(context.Background(), "Which places are inside the square?", []frame.Dataset{places()})
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	cachedFrame, ok := cached.GeoFrame()
	require.True(t, ok)
	assert.Equal(t, geo.DefaultCRS, cachedFrame.CRS())
	assert.Equal(t, 1, cachedFrame.NumRows())
}

func TestDetachedGeoFrame(t *testing.T) {
	_, err := geoai.NewGeoFrame(places(), nil).Chat(context.Background(), "x", nil)
	assert.ErrorIs(t, err, geoai.ErrDetached)
}

func TestAskRunTimeoutBoundsSnippet(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", `package main

import (
	"time"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) string {
	time.Sleep(5 * time.Second)
	return "late"
}
`)
	c := newClient(t, model, &geoai.Config{RunTimeout: 50 * time.Millisecond})

	_, err := c.Ask(context.Background(), "Slow question", []frame.Dataset{valuesTable()})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExecution)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAskCachesNonFiniteValues(t *testing.T) {
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", averageSnippet)
	c := newClient(t, model, &geoai.Config{Cache: cache.NewFileSystemBackend(t.TempDir())})
	ratios := frame.MustNew(
		frame.NewStrings("name", []string{"A", "B", "C"}),
		frame.NewInts("value", []int64{10, 20, 30}),
		frame.NewFloats("ratio", []float64{1, math.Inf(1), math.Inf(-1)}),
	)

	first, err := c.Ask(context.Background(), "What is the average value?", []frame.Dataset{ratios})
	require.NoError(t, err)
	assert.Equal(t, "20", first.Value)
	require.NotEmpty(t, first.CacheKey)

	second, err := c.Ask(context.Background(), "What is the average value?", []frame.Dataset{ratios})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, model.Calls(), 2)
}

// unencodable is a dataset the cache cannot fingerprint.
type unencodable struct{ *frame.DataFrame }

func (unencodable) MarshalJSON() ([]byte, error) { return nil, errors.New("not encodable") }

func TestAskRunsUncachedWhenFingerprintFails(t *testing.T) {
	snippet := `package main

import (
	"strings"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 frame.Dataset) string {
	return strings.Join(df_1.Columns(), ",")
}
`
	model := llmtest.NewScriptedClient("<Type>TEXT</Type>", snippet, "<Type>TEXT</Type>", snippet)
	backend := cache.NewFileSystemBackend(t.TempDir())
	c := newClient(t, model, &geoai.Config{Cache: backend})
	ds := []frame.Dataset{unencodable{valuesTable()}}

	for range 2 {
		res, err := c.Ask(context.Background(), "Which columns?", ds)
		require.NoError(t, err)
		assert.Equal(t, "name,value", res.Value)
		assert.Empty(t, res.CacheKey)
		assert.False(t, res.Cached)
	}
	assert.Len(t, model.Calls(), 4)
}
