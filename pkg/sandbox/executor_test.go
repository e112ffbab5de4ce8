package sandbox_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/stdlib"

	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/sandbox"
	"github.com/soundprediction/go-geoai/pkg/types"
)

const meanSnippet = `package main

import (
	"fmt"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) string {
	return fmt.Sprintf("%.1f", df_1.Col("value").Mean())
}
`

func values() *frame.DataFrame {
	return frame.MustNew(
		frame.NewStrings("name", []string{"A", "B", "C"}),
		frame.NewInts("value", []int64{1, 2, 3}),
	)
}

func points() *geo.GeoDataFrame {
	return geo.MustNew(
		frame.MustNew(frame.NewStrings("name", []string{"p", "q"})),
		[]orb.Geometry{orb.Point{0, 0}, orb.Point{5, 5}},
		geo.DefaultCRS,
	)
}

func newExecutor(t *testing.T) *sandbox.Executor {
	t.Helper()
	e := sandbox.New(nil)
	e.TempDir = t.TempDir()
	return e
}

func assertNoSnippetFiles(t *testing.T, e *sandbox.Executor) {
	t.Helper()
	entries, err := os.ReadDir(e.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFiltersStdlibSymbols(t *testing.T) {
	var bare []string
	for key := range stdlib.Symbols {
		if !strings.Contains(key, "/") {
			bare = append(bare, key)
		}
	}
	t.Logf("stdlib symbol keys without a package path: %q", bare)

	var e *sandbox.Executor
	require.NotPanics(t, func() { e = sandbox.New(nil) })
	e.TempDir = t.TempDir()

	src := `package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) (string, error) {
	names := df_1.Col("name").Strings()
	sort.Strings(names)
	if len(names) == 0 {
		return "", errors.New("no rows")
	}
	d := time.Duration(math.Sqrt(4)) * time.Second
	return fmt.Sprintf("%s %s %s", strings.Join(names, ""), strconv.Itoa(len(names)), d), nil
}
`
	out, err := e.Run(context.Background(), src, types.KindText, []frame.Dataset{values()})
	require.NoError(t, err)
	assert.Equal(t, "ABC 3 2s", out)
}

func TestRunReturnsText(t *testing.T) {
	e := newExecutor(t)

	out, err := e.Run(context.Background(), meanSnippet, types.KindText, []frame.Dataset{values()})
	require.NoError(t, err)
	assert.Equal(t, "2.0", out)
	assertNoSnippetFiles(t, e)
}

func TestRunRejectsWrongReturnType(t *testing.T) {
	e := newExecutor(t)

	_, err := e.Run(context.Background(), meanSnippet, types.KindDataFrame, []frame.Dataset{values()})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
	assert.NotErrorIs(t, err, types.ErrExecution)
	assert.Contains(t, err.Error(), "not correct return type")
	assertNoSnippetFiles(t, e)
}

func TestRunPassesDatasetsInOrder(t *testing.T) {
	src := `package main

import "github.com/soundprediction/go-geoai/pkg/frame"

func execute(df_1 *frame.DataFrame, df_2 *frame.DataFrame) string {
	return df_1.Columns()[0] + "," + df_2.Columns()[0]
}
`
	a := frame.MustNew(frame.NewStrings("A", []string{"x"}))
	b := frame.MustNew(frame.NewStrings("B", []string{"y"}))

	out, err := newExecutor(t).Run(context.Background(), src, types.KindText, []frame.Dataset{a, b})
	require.NoError(t, err)
	assert.Equal(t, "A,B", out)
}

func TestRunWithoutPackageClause(t *testing.T) {
	src := `func execute(df_1 *frame.DataFrame) string { return "ok" }`
	src = "import \"github.com/soundprediction/go-geoai/pkg/frame\"\n\n" + src

	out, err := newExecutor(t).Run(context.Background(), src, types.KindText, []frame.Dataset{values()})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains string
	}{
		{
			name:     "syntax error",
			source:   "package main\n\nfunc execute(df_1 *frame.DataFrame) string {\n\treturn \"x\"\n",
			contains: "expected",
		},
		{
			name:     "forbidden import",
			source:   "package main\n\nimport \"os\"\n\nfunc execute() string { return os.Getenv(\"HOME\") }\n",
			contains: `import "os" is not allowed`,
		},
		{
			name:     "missing entry point",
			source:   "package main\n\nfunc run() string { return \"x\" }\n",
			contains: "function execute not found",
		},
		{
			name:     "arity mismatch",
			source:   "package main\n\nfunc execute() string { return \"x\" }\n",
			contains: "takes 0 parameters, got 1 datasets",
		},
		{
			name:     "panic",
			source:   "package main\n\nimport \"github.com/soundprediction/go-geoai/pkg/frame\"\n\nfunc execute(df_1 *frame.DataFrame) string { panic(\"boom\") }\n",
			contains: "boom",
		},
		{
			name: "returned error",
			source: "package main\n\nimport (\n\t\"errors\"\n\n\t\"github.com/soundprediction/go-geoai/pkg/frame\"\n)\n\n" +
				"func execute(df_1 *frame.DataFrame) (string, error) { return \"\", errors.New(\"no such column\") }\n",
			contains: "no such column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExecutor(t)
			_, err := e.Run(context.Background(), tt.source, types.KindText, []frame.Dataset{values()})
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrExecution)
			assert.Contains(t, err.Error(), tt.contains)
			assertNoSnippetFiles(t, e)
		})
	}
}

func TestRunHonorsContext(t *testing.T) {
	src := `package main

import (
	"time"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) string {
	time.Sleep(5 * time.Second)
	return "late"
}
`
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newExecutor(t).Run(ctx, src, types.KindText, []frame.Dataset{values()})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExecution)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunWrapsGeoFrames(t *testing.T) {
	src := `package main

import (
	"github.com/paulmach/orb"
	"github.com/soundprediction/go-geoai/pkg/geo"
)

func execute(df_1 *geo.GeoDataFrame) *geo.GeoDataFrame {
	return df_1.Within(orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}})
}
`
	type wrapped struct{ g *geo.GeoDataFrame }
	e := newExecutor(t)
	e.Wrap = func(g *geo.GeoDataFrame) any { return wrapped{g} }

	out, err := e.Run(context.Background(), src, types.KindGeoDataFrame, []frame.Dataset{points()})
	require.NoError(t, err)
	require.IsType(t, wrapped{}, out)
	assert.Equal(t, 1, out.(wrapped).g.NumRows())

	// a geodataframe is also a dataframe
	out, err = e.Run(context.Background(), src, types.KindDataFrame, []frame.Dataset{points()})
	require.NoError(t, err)
	assert.IsType(t, wrapped{}, out)
}

func TestRunReturnsFigure(t *testing.T) {
	src := `package main

import (
	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
)

func execute(df_1 *frame.DataFrame) *chart.Figure {
	return chart.NewFigure("values").Bar("value", df_1.Col("name").Strings(), df_1.Col("value").Floats())
}
`
	out, err := newExecutor(t).Run(context.Background(), src, types.KindPlot, []frame.Dataset{values()})
	require.NoError(t, err)
	fig, ok := out.(*chart.Figure)
	require.True(t, ok)
	assert.NoError(t, fig.Validate())
}

func TestAccepts(t *testing.T) {
	assert.True(t, sandbox.Accepts(types.KindText, "x"))
	assert.False(t, sandbox.Accepts(types.KindText, 1))
	assert.True(t, sandbox.Accepts(types.KindDataFrame, values()))
	assert.True(t, sandbox.Accepts(types.KindDataFrame, points()))
	assert.False(t, sandbox.Accepts(types.KindGeoDataFrame, values()))
	assert.False(t, sandbox.Accepts(types.KindDataFrame, (*frame.DataFrame)(nil)))
	assert.False(t, sandbox.Accepts(types.KindMap, nil))
}
