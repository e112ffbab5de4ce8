package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// DType is the element type of a Series.
type DType string

const (
	Int    DType = "int64"
	Float  DType = "float64"
	String DType = "string"
	Bool   DType = "bool"
	Time   DType = "time"
)

// IsNumeric reports whether values of this type can be aggregated arithmetically.
func (d DType) IsNumeric() bool {
	return d == Int || d == Float
}

// Series is a named, typed column. Missing values are stored as nil.
// A Series is immutable once built; every transformation returns a new one.
type Series struct {
	name   string
	dtype  DType
	values []any
}

// NewSeries builds a Series of the given type, coercing every value.
func NewSeries(name string, dtype DType, values []any) (*Series, error) {
	out := make([]any, len(values))
	for i, v := range values {
		c, err := coerce(v, dtype)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = c
	}
	return &Series{name: name, dtype: dtype, values: out}, nil
}

// InferSeries builds a Series whose type is inferred from the values.
func InferSeries(name string, values []any) *Series {
	dtype := inferDType(values)
	s, err := NewSeries(name, dtype, values)
	if err != nil {
		// inferDType only picks types every value converts to.
		panic(err)
	}
	return s
}

// NewInts builds an integer Series.
func NewInts(name string, values []int64) *Series {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Series{name: name, dtype: Int, values: out}
}

// NewFloats builds a float Series. NaN values are stored as missing.
func NewFloats(name string, values []float64) *Series {
	out := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return &Series{name: name, dtype: Float, values: out}
}

// NewStrings builds a string Series.
func NewStrings(name string, values []string) *Series {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Series{name: name, dtype: String, values: out}
}

// NewBools builds a boolean Series.
func NewBools(name string, values []bool) *Series {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Series{name: name, dtype: Bool, values: out}
}

func (s *Series) Name() string { return s.name }
func (s *Series) DType() DType { return s.dtype }
func (s *Series) Len() int     { return len(s.values) }

// At returns the raw value at row i (nil when missing).
func (s *Series) At(i int) any { return s.values[i] }

// IsNull reports whether row i is missing.
func (s *Series) IsNull(i int) bool { return s.values[i] == nil }

// Values returns a copy of the raw values.
func (s *Series) Values() []any {
	out := make([]any, len(s.values))
	copy(out, s.values)
	return out
}

// Float returns row i as a float64; ok is false for missing or non-numeric values.
func (s *Series) Float(i int) (float64, bool) {
	switch v := s.values[i].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Str returns row i formatted as text ("" when missing).
func (s *Series) Str(i int) string {
	return formatValue(s.values[i])
}

// Floats returns all values as float64, with NaN for missing or non-numeric rows.
func (s *Series) Floats() []float64 {
	out := make([]float64, len(s.values))
	for i := range s.values {
		v, ok := s.Float(i)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Strings returns all values formatted as text.
func (s *Series) Strings() []string {
	out := make([]string, len(s.values))
	for i := range s.values {
		out[i] = s.Str(i)
	}
	return out
}

// Count returns the number of non-missing values.
func (s *Series) Count() int {
	n := 0
	for _, v := range s.values {
		if v != nil {
			n++
		}
	}
	return n
}

// Sum adds the numeric values, skipping missing ones.
func (s *Series) Sum() float64 {
	total := 0.0
	for i := range s.values {
		if v, ok := s.Float(i); ok {
			total += v
		}
	}
	return total
}

// Mean averages the numeric values, skipping missing ones. It is NaN when there are none.
func (s *Series) Mean() float64 {
	total, n := 0.0, 0
	for i := range s.values {
		if v, ok := s.Float(i); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

// Min returns the smallest numeric value, or NaN when there is none.
func (s *Series) Min() float64 {
	return s.reduce(func(a, b float64) bool { return b < a })
}

// Max returns the largest numeric value, or NaN when there is none.
func (s *Series) Max() float64 {
	return s.reduce(func(a, b float64) bool { return b > a })
}

// Std returns the sample standard deviation, or NaN with fewer than two values.
func (s *Series) Std() float64 {
	mean := s.Mean()
	sq, n := 0.0, 0
	for i := range s.values {
		if v, ok := s.Float(i); ok {
			sq += (v - mean) * (v - mean)
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sq / float64(n-1))
}

// Unique returns the distinct non-missing values in first-seen order.
func (s *Series) Unique() []any {
	seen := make(map[any]struct{})
	var out []any
	for _, v := range s.values {
		if v == nil {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ValueCounts counts occurrences of each distinct formatted value.
func (s *Series) ValueCounts() map[string]int {
	out := make(map[string]int)
	for i, v := range s.values {
		if v == nil {
			continue
		}
		out[s.Str(i)]++
	}
	return out
}

// Rename returns a copy of the Series with a new name.
func (s *Series) Rename(name string) *Series {
	return &Series{name: name, dtype: s.dtype, values: s.values}
}

// Apply maps every value through fn and infers the resulting type.
func (s *Series) Apply(name string, fn func(v any) any) *Series {
	out := make([]any, len(s.values))
	for i, v := range s.values {
		out[i] = fn(v)
	}
	return InferSeries(name, out)
}

// take returns the rows at the given indices, in that order.
func (s *Series) take(indices []int) *Series {
	out := make([]any, len(indices))
	for i, idx := range indices {
		out[i] = s.values[idx]
	}
	return &Series{name: s.name, dtype: s.dtype, values: out}
}

func (s *Series) reduce(better func(a, b float64) bool) float64 {
	best, found := math.NaN(), false
	for i := range s.values {
		v, ok := s.Float(i)
		if !ok {
			continue
		}
		if !found || better(best, v) {
			best, found = v, true
		}
	}
	return best
}

// less orders two raw values of the same dtype; missing values sort last.
func less(a, b any) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	switch av := a.(type) {
	case int64:
		return av < b.(int64)
	case float64:
		return av < b.(float64)
	case string:
		return av < b.(string)
	case bool:
		return !av && b.(bool)
	case time.Time:
		return av.Before(b.(time.Time))
	}
	return false
}

func sortedIndices(s *Series, ascending bool) []int {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := s.values[idx[i]], s.values[idx[j]]
		if ascending || a == nil || b == nil {
			return less(a, b)
		}
		return less(b, a)
	})
	return idx
}

func inferDType(values []any) DType {
	dtype := DType("")
	for _, v := range values {
		var t DType
		switch v.(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			t = Int
		case float32, float64:
			t = Float
		case bool:
			t = Bool
		case time.Time:
			t = Time
		default:
			t = String
		}
		switch {
		case dtype == "":
			dtype = t
		case dtype == t:
		case dtype.IsNumeric() && t.IsNumeric():
			dtype = Float
		default:
			return String
		}
	}
	if dtype == "" {
		return String
	}
	return dtype
}

func coerce(v any, dtype DType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch dtype {
	case Int:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed, nil
			}
		}
	case Float:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int8:
			return float64(n), nil
		case int16:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case uint8:
			return float64(n), nil
		case uint16:
			return float64(n), nil
		case uint32:
			return float64(n), nil
		case float32:
			return float64(n), nil
		case float64:
			if math.IsNaN(n) {
				return nil, nil
			}
			return n, nil
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed, nil
			}
		}
	case Bool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, nil
			}
		}
	case Time:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed, nil
			}
		}
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return formatValue(v), nil
	default:
		return nil, fmt.Errorf("unknown dtype %q", dtype)
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, dtype)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
