package geoai

import (
	"encoding/json"
	"fmt"

	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/types"
	"github.com/soundprediction/go-geoai/pkg/webmap"
)

// Result is the outcome of one Ask call.
type Result struct {
	Kind types.ResultKind
	// Value is a string, *frame.DataFrame, *GeoFrame, *chart.Figure or *webmap.Map.
	Value any
	// Code is the snippet that produced Value.
	Code      string
	Cached    bool
	CacheKey  string
	RequestID string
}

// Text returns the value of a TEXT result.
func (r *Result) Text() (string, bool) {
	s, ok := r.Value.(string)
	return s, ok
}

// DataFrame returns the attribute table of any tabular result.
func (r *Result) DataFrame() (*frame.DataFrame, bool) {
	switch v := r.Value.(type) {
	case *frame.DataFrame:
		return v, true
	case *GeoFrame:
		return v.Table(), true
	}
	return nil, false
}

// GeoFrame returns a geodataframe result.
func (r *Result) GeoFrame() (*GeoFrame, bool) {
	g, ok := r.Value.(*GeoFrame)
	return g, ok
}

// Figure returns a PLOT result.
func (r *Result) Figure() (*chart.Figure, bool) {
	f, ok := r.Value.(*chart.Figure)
	return f, ok
}

// Map returns a MAP result.
func (r *Result) Map() (*webmap.Map, bool) {
	m, ok := r.Value.(*webmap.Map)
	return m, ok
}

// Value encodings inside a cache entry.
const (
	valueText   = "text"
	valueFrame  = "frame"
	valueGeo    = "geoframe"
	valueFigure = "figure"
	valueMap    = "map"
)

// entry is the cached form of a Result.
type entry struct {
	Kind      types.ResultKind `json:"kind"`
	Code      string           `json:"code"`
	ValueType string           `json:"value_type"`
	Value     json.RawMessage  `json:"value"`
}

func encodeEntry(r *Result) ([]byte, error) {
	e := entry{Kind: r.Kind, Code: r.Code}
	var v any
	switch val := r.Value.(type) {
	case string:
		e.ValueType, v = valueText, val
	case *frame.DataFrame:
		e.ValueType, v = valueFrame, val
	case *GeoFrame:
		e.ValueType, v = valueGeo, val.GeoDataFrame
	case *geo.GeoDataFrame:
		e.ValueType, v = valueGeo, val
	case *chart.Figure:
		e.ValueType, v = valueFigure, val
	case *webmap.Map:
		e.ValueType, v = valueMap, val
	default:
		return nil, fmt.Errorf("cannot cache value of type %T", r.Value)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	e.Value = raw
	return json.Marshal(e)
}

func decodeEntry(data []byte, wrap func(*geo.GeoDataFrame) any) (*Result, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	r := &Result{Kind: e.Kind, Code: e.Code}
	switch e.ValueType {
	case valueText:
		var s string
		if err := json.Unmarshal(e.Value, &s); err != nil {
			return nil, err
		}
		r.Value = s
	case valueFrame:
		df := new(frame.DataFrame)
		if err := json.Unmarshal(e.Value, df); err != nil {
			return nil, err
		}
		r.Value = df
	case valueGeo:
		g := new(geo.GeoDataFrame)
		if err := json.Unmarshal(e.Value, g); err != nil {
			return nil, err
		}
		r.Value = wrap(g)
	case valueFigure:
		f := new(chart.Figure)
		if err := json.Unmarshal(e.Value, f); err != nil {
			return nil, err
		}
		r.Value = f
	case valueMap:
		m := new(webmap.Map)
		if err := json.Unmarshal(e.Value, m); err != nil {
			return nil, err
		}
		r.Value = m
	default:
		return nil, fmt.Errorf("unknown cached value type %q", e.ValueType)
	}
	return r, nil
}
