package frame

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type jsonColumn struct {
	Name   string `json:"name"`
	DType  DType  `json:"dtype"`
	Values []any  `json:"values"`
}

type jsonFrame struct {
	Columns []jsonColumn `json:"columns"`
}

// MarshalJSON encodes the frame column-major with explicit dtypes.
func (df *DataFrame) MarshalJSON() ([]byte, error) {
	out := jsonFrame{Columns: make([]jsonColumn, len(df.series))}
	for i, s := range df.series {
		values := s.Values()
		switch s.DType() {
		case Time:
			for j, v := range values {
				if v != nil {
					values[j] = formatValue(v)
				}
			}
		case Float:
			// JSON has no infinities; coerce parses these back on decode.
			for j, v := range values {
				if f, ok := v.(float64); ok && math.IsInf(f, 0) {
					values[j] = strconv.FormatFloat(f, 'g', -1, 64)
				}
			}
		}
		out.Columns[i] = jsonColumn{Name: s.Name(), DType: s.DType(), Values: values}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (df *DataFrame) UnmarshalJSON(data []byte) error {
	var in jsonFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	series := make([]*Series, len(in.Columns))
	for i, col := range in.Columns {
		s, err := NewSeries(col.Name, col.DType, col.Values)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		series[i] = s
	}
	decoded, err := New(series...)
	if err != nil {
		return err
	}
	*df = *decoded
	return nil
}
