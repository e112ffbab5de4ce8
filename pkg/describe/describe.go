// Package describe produces the textual dataset summaries embedded in generation prompts.
package describe

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
)

// DefaultSampleRows is the preview size used when none is configured.
const DefaultSampleRows = 5

// Descriptor turns a dataset into human-readable text.
type Descriptor interface {
	Describe(ds frame.Dataset) string
}

// PublicDescriptor reports type, CRS, shape, columns, statistics and a row sample.
// The sample is random but seeded from the dataset shape, so repeated calls agree.
type PublicDescriptor struct {
	SampleRows int
}

// NewPublicDescriptor creates a descriptor showing up to sampleRows rows.
func NewPublicDescriptor(sampleRows int) *PublicDescriptor {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return &PublicDescriptor{SampleRows: sampleRows}
}

// Describe implements Descriptor.
func (d *PublicDescriptor) Describe(ds frame.Dataset) string {
	var b strings.Builder
	rows, cols := ds.Shape()
	table := ds.Table()

	switch v := ds.(type) {
	case *geo.GeoDataFrame:
		b.WriteString("Type: *geo.GeoDataFrame\n")
		fmt.Fprintf(&b, "CRS: %s\n", v.CRS())
		fmt.Fprintf(&b, "Geometry type (%s column):%s\n", geo.GeometryColumn, strings.Join(v.GeometryTypes(), ", "))
		bound := v.Bound()
		fmt.Fprintf(&b, "Bounds: [%g %g %g %g]\n", bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1])
	default:
		b.WriteString("Type: *frame.DataFrame\n")
	}
	fmt.Fprintf(&b, "Shape: (%d, %d)\n", rows, cols)

	parts := make([]string, 0, len(ds.Columns()))
	for _, name := range table.Columns() {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, table.Col(name).DType()))
	}
	if _, ok := ds.(*geo.GeoDataFrame); ok {
		parts = append(parts, fmt.Sprintf("%s (geometry)", geo.GeometryColumn))
	}
	fmt.Fprintf(&b, "Columns (with types): %s\n", strings.Join(parts, " - "))

	b.WriteString("Statistics:\n")
	b.WriteString(statistics(table))

	n := min(d.sampleRows(), rows)
	fmt.Fprintf(&b, "Randomly sampled rows (%d of %d):\n", n, rows)
	b.WriteString(sample(ds, n))
	return b.String()
}

func (d *PublicDescriptor) sampleRows() int {
	if d.SampleRows <= 0 {
		return DefaultSampleRows
	}
	return d.SampleRows
}

// statistics renders count/mean/std/min/max for numeric columns and
// count/unique/top for the others.
func statistics(df *frame.DataFrame) string {
	var b strings.Builder
	for _, name := range df.Columns() {
		s := df.Col(name)
		if s.DType().IsNumeric() {
			fmt.Fprintf(&b, "  %s: count=%d mean=%s std=%s min=%s max=%s\n",
				name, s.Count(), num(s.Mean()), num(s.Std()), num(s.Min()), num(s.Max()))
			continue
		}
		top, freq := mostCommon(s.ValueCounts())
		fmt.Fprintf(&b, "  %s: count=%d unique=%d top=%q freq=%d\n", name, s.Count(), len(s.Unique()), top, freq)
	}
	return b.String()
}

func sample(ds frame.Dataset, n int) string {
	rows, _ := ds.Shape()
	rng := rand.New(rand.NewSource(int64(rows)*7919 + int64(len(ds.Columns()))))
	idx := rng.Perm(rows)[:n]
	sort.Ints(idx)

	switch v := ds.(type) {
	case *geo.GeoDataFrame:
		return v.Take(idx).String()
	default:
		return ds.Table().Take(idx).String()
	}
}

func mostCommon(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	top, freq := "", 0
	for _, k := range keys {
		if counts[k] > freq {
			top, freq = k, counts[k]
		}
	}
	return top, freq
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Datasets describes each dataset under the parameter name generated code receives it as.
func Datasets(d Descriptor, datasets []frame.Dataset) string {
	var b strings.Builder
	for i, ds := range datasets {
		fmt.Fprintf(&b, "Dataset %d, will be sent as df_%d:\n", i+1, i+1)
		b.WriteString(d.Describe(ds))
		b.WriteString("\n")
	}
	return b.String()
}
