package frame

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch is returned when columns of different lengths are combined.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Dataset is anything the pipeline can describe, fingerprint and hand to generated code.
type Dataset interface {
	// Shape returns the number of rows and columns.
	Shape() (int, int)
	// Columns returns the column names in order.
	Columns() []string
	// Table returns the attribute table.
	Table() *DataFrame
}

// DataFrame is an ordered set of equally long Series.
type DataFrame struct {
	series []*Series
	index  map[string]int
}

// New builds a DataFrame from columns of equal length with distinct names.
func New(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{index: make(map[string]int, len(series))}
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if i > 0 && s.Len() != series[0].Len() {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, s.Name(), s.Len(), series[0].Len())
		}
		if _, dup := df.index[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", s.Name())
		}
		df.index[s.Name()] = i
		df.series = append(df.series, s)
	}
	return df, nil
}

// MustNew is like New but panics on error.
func MustNew(series ...*Series) *DataFrame {
	df, err := New(series...)
	if err != nil {
		panic(err)
	}
	return df
}

// FromRecords builds a DataFrame from row-major records, inferring column types.
func FromRecords(columns []string, rows [][]any) (*DataFrame, error) {
	series := make([]*Series, len(columns))
	for c, name := range columns {
		values := make([]any, len(rows))
		for r, row := range rows {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrLengthMismatch, r, len(row), len(columns))
			}
			values[r] = row[c]
		}
		series[c] = InferSeries(name, values)
	}
	return New(series...)
}

// Shape returns the number of rows and columns.
func (df *DataFrame) Shape() (int, int) {
	return df.NumRows(), len(df.series)
}

// Table returns the frame itself.
func (df *DataFrame) Table() *DataFrame { return df }

func (df *DataFrame) NumRows() int {
	if len(df.series) == 0 {
		return 0
	}
	return df.series[0].Len()
}

func (df *DataFrame) NumCols() int { return len(df.series) }

// Columns returns the column names in order.
func (df *DataFrame) Columns() []string {
	names := make([]string, len(df.series))
	for i, s := range df.series {
		names[i] = s.Name()
	}
	return names
}

// DTypes returns the column types in column order.
func (df *DataFrame) DTypes() []DType {
	types := make([]DType, len(df.series))
	for i, s := range df.series {
		types[i] = s.DType()
	}
	return types
}

// Col returns the named column, or nil when it does not exist.
func (df *DataFrame) Col(name string) *Series {
	i, ok := df.index[name]
	if !ok {
		return nil
	}
	return df.series[i]
}

// Column returns the named column or ErrColumnNotFound.
func (df *DataFrame) Column(name string) (*Series, error) {
	s := df.Col(name)
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return s, nil
}

func (df *DataFrame) HasCol(name string) bool {
	_, ok := df.index[name]
	return ok
}

// Row returns a view of row i.
func (df *DataFrame) Row(i int) Row {
	return Row{df: df, i: i}
}

// Rows returns views of every row.
func (df *DataFrame) Rows() []Row {
	rows := make([]Row, df.NumRows())
	for i := range rows {
		rows[i] = Row{df: df, i: i}
	}
	return rows
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Slice returns rows [start, end), clamped to the frame.
func (df *DataFrame) Slice(start, end int) *DataFrame {
	rows := df.NumRows()
	start = max(0, min(start, rows))
	end = max(start, min(end, rows))
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return df.Take(idx)
}

// Take returns the rows at the given indices, in that order.
func (df *DataFrame) Take(indices []int) *DataFrame {
	series := make([]*Series, len(df.series))
	for i, s := range df.series {
		series[i] = s.take(indices)
	}
	return MustNew(series...)
}

// Select returns a frame with only the named columns, in the given order.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	series := make([]*Series, len(names))
	for i, name := range names {
		s, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		series[i] = s
	}
	return New(series...)
}

// Drop returns a frame without the named columns.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var series []*Series
	for _, s := range df.series {
		if !skip[s.Name()] {
			series = append(series, s)
		}
	}
	return MustNew(series...)
}

// WithColumn returns a frame with s added, replacing any column of the same name.
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if len(df.series) > 0 && s.Len() != df.NumRows() {
		return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, s.Name(), s.Len(), df.NumRows())
	}
	series := make([]*Series, 0, len(df.series)+1)
	replaced := false
	for _, existing := range df.series {
		if existing.Name() == s.Name() {
			series = append(series, s)
			replaced = true
			continue
		}
		series = append(series, existing)
	}
	if !replaced {
		series = append(series, s)
	}
	return New(series...)
}

// Filter keeps the rows for which keep returns true.
func (df *DataFrame) Filter(keep func(r Row) bool) *DataFrame {
	return df.Take(df.FilterIndices(keep))
}

// FilterIndices returns the indices of rows for which keep returns true.
func (df *DataFrame) FilterIndices(keep func(r Row) bool) []int {
	var idx []int
	for i := 0; i < df.NumRows(); i++ {
		if keep(Row{df: df, i: i}) {
			idx = append(idx, i)
		}
	}
	return idx
}

// SortBy orders rows by the named column. Missing values sort last.
func (df *DataFrame) SortBy(name string, ascending bool) (*DataFrame, error) {
	idx, err := df.SortIndices(name, ascending)
	if err != nil {
		return nil, err
	}
	return df.Take(idx), nil
}

// SortIndices returns the row order SortBy would produce.
func (df *DataFrame) SortIndices(name string, ascending bool) ([]int, error) {
	s, err := df.Column(name)
	if err != nil {
		return nil, err
	}
	return sortedIndices(s, ascending), nil
}

// Agg names an aggregation applied by GroupBy.
type Agg string

const (
	AggSum   Agg = "sum"
	AggMean  Agg = "mean"
	AggCount Agg = "count"
	AggMin   Agg = "min"
	AggMax   Agg = "max"
)

// GroupBy groups rows by key and aggregates value, returning columns key and value.
// Groups appear in first-seen order.
func (df *DataFrame) GroupBy(key, value string, agg Agg) (*DataFrame, error) {
	keys, err := df.Column(key)
	if err != nil {
		return nil, err
	}
	values, err := df.Column(value)
	if err != nil {
		return nil, err
	}

	var order []any
	groups := make(map[any][]int)
	for i := 0; i < keys.Len(); i++ {
		k := keys.At(i)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	keyOut := make([]any, len(order))
	valOut := make([]any, len(order))
	for g, k := range order {
		keyOut[g] = k
		sub := values.take(groups[k])
		var v float64
		switch agg {
		case AggSum:
			v = sub.Sum()
		case AggMean:
			v = sub.Mean()
		case AggCount:
			valOut[g] = int64(sub.Count())
			continue
		case AggMin:
			v = sub.Min()
		case AggMax:
			v = sub.Max()
		default:
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
		if !math.IsNaN(v) {
			valOut[g] = v
		}
	}

	keySeries, err := NewSeries(key, keys.DType(), keyOut)
	if err != nil {
		return nil, err
	}
	valType := Float
	if agg == AggCount {
		valType = Int
	}
	valSeries, err := NewSeries(value, valType, valOut)
	if err != nil {
		return nil, err
	}
	return New(keySeries, valSeries)
}

// String renders the frame as an aligned text table.
func (df *DataFrame) String() string {
	cols := df.Columns()
	cells := make([][]string, df.NumRows()+1)
	cells[0] = cols
	for r := 0; r < df.NumRows(); r++ {
		row := make([]string, len(cols))
		for c, s := range df.series {
			if s.IsNull(r) {
				row[c] = "NaN"
				continue
			}
			row[c] = s.Str(r)
		}
		cells[r+1] = row
	}
	return renderTable(cells)
}

func renderTable(cells [][]string) string {
	if len(cells) == 0 {
		return ""
	}
	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for c, cell := range row {
			widths[c] = max(widths[c], len([]rune(cell)))
		}
	}
	var b strings.Builder
	for _, row := range cells {
		for c, cell := range row {
			if c > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[c]-len([]rune(cell))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Row is a read-only view of one row of a DataFrame.
type Row struct {
	df *DataFrame
	i  int
}

// Index returns the row position in its frame.
func (r Row) Index() int { return r.i }

// Get returns the raw value of the named column (nil when missing or unknown).
func (r Row) Get(name string) any {
	s := r.df.Col(name)
	if s == nil {
		return nil
	}
	return s.At(r.i)
}

// Float returns the named column as float64, or NaN.
func (r Row) Float(name string) float64 {
	s := r.df.Col(name)
	if s == nil {
		return math.NaN()
	}
	v, ok := s.Float(r.i)
	if !ok {
		return math.NaN()
	}
	return v
}

// Str returns the named column formatted as text.
func (r Row) Str(name string) string {
	s := r.df.Col(name)
	if s == nil {
		return ""
	}
	return s.Str(r.i)
}
