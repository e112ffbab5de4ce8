package frame_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *frame.DataFrame {
	t.Helper()
	df, err := frame.New(
		frame.NewStrings("name", []string{"a", "b", "c", "d"}),
		frame.NewFloats("value", []float64{1, 2, math.NaN(), 5}),
		frame.NewStrings("group", []string{"x", "y", "x", "y"}),
	)
	require.NoError(t, err)
	return df
}

func TestNewRejectsBadColumns(t *testing.T) {
	_, err := frame.New(
		frame.NewInts("a", []int64{1, 2}),
		frame.NewInts("b", []int64{1}),
	)
	assert.ErrorIs(t, err, frame.ErrLengthMismatch)

	_, err = frame.New(
		frame.NewInts("a", []int64{1}),
		frame.NewInts("a", []int64{2}),
	)
	assert.Error(t, err)
}

func TestShapeAndColumns(t *testing.T) {
	df := sampleFrame(t)
	rows, cols := df.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"name", "value", "group"}, df.Columns())
	assert.Equal(t, []frame.DType{frame.String, frame.Float, frame.String}, df.DTypes())
}

func TestSeriesAggregates(t *testing.T) {
	s := sampleFrame(t).Col("value")
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Count())
	assert.InDelta(t, 8.0, s.Sum(), 1e-9)
	assert.InDelta(t, 8.0/3, s.Mean(), 1e-9)
	assert.Equal(t, 1.0, s.Min())
	assert.Equal(t, 5.0, s.Max())
	assert.True(t, s.IsNull(2))
	assert.True(t, math.IsNaN(frame.NewFloats("empty", nil).Mean()))
}

func TestFilterSortGroupBy(t *testing.T) {
	df := sampleFrame(t)

	filtered := df.Filter(func(r frame.Row) bool { return r.Str("group") == "x" })
	assert.Equal(t, []string{"a", "c"}, filtered.Col("name").Strings())

	sorted, err := df.SortBy("value", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "a", "c"}, sorted.Col("name").Strings())

	grouped, err := df.GroupBy("group", "value", frame.AggSum)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, grouped.Col("group").Strings())
	assert.Equal(t, []float64{1, 7}, grouped.Col("value").Floats())

	counted, err := df.GroupBy("group", "name", frame.AggCount)
	require.NoError(t, err)
	assert.Equal(t, frame.Int, counted.Col("name").DType())

	_, err = df.SortBy("missing", true)
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestOperationsDoNotMutate(t *testing.T) {
	df := sampleFrame(t)
	_, err := df.WithColumn(frame.NewInts("extra", []int64{1, 2, 3, 4}))
	require.NoError(t, err)
	_ = df.Drop("name")
	_, err = df.SortBy("name", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "value", "group"}, df.Columns())
	assert.Equal(t, []string{"a", "b", "c", "d"}, df.Col("name").Strings())
}

func TestFromRecordsInfersTypes(t *testing.T) {
	df, err := frame.FromRecords(
		[]string{"id", "score", "label", "ok"},
		[][]any{
			{1, 1.5, "x", true},
			{2, 3, 7, nil},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []frame.DType{frame.Int, frame.Float, frame.String, frame.Bool}, df.DTypes())
	assert.Equal(t, "7", df.Col("label").Str(1))
}

func TestJSONRoundTrip(t *testing.T) {
	df := sampleFrame(t)
	data, err := json.Marshal(df)
	require.NoError(t, err)

	var decoded frame.DataFrame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, df.String(), decoded.String())
	assert.Equal(t, df.DTypes(), decoded.DTypes())
}

func TestJSONRoundTripInfinities(t *testing.T) {
	df := frame.MustNew(frame.NewFloats("ratio", []float64{1, math.Inf(1), math.Inf(-1), math.NaN()}))
	data, err := json.Marshal(df)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"+Inf"`)

	var decoded frame.DataFrame
	require.NoError(t, json.Unmarshal(data, &decoded))
	col := decoded.Col("ratio")
	require.Equal(t, frame.Float, col.DType())
	assert.Equal(t, 1.0, col.At(0))
	assert.True(t, math.IsInf(col.At(1).(float64), 1))
	assert.True(t, math.IsInf(col.At(2).(float64), -1))
	assert.Nil(t, col.At(3))
}

func TestStringRendersTable(t *testing.T) {
	df := frame.MustNew(
		frame.NewStrings("name", []string{"A"}),
		frame.NewInts("value", []int64{10}),
	)
	assert.Equal(t, "name  value\nA     10   \n", df.String())
}
