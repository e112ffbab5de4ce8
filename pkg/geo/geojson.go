package geo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

// FeatureCollection converts the frame to GeoJSON; attributes become properties.
func (g *GeoDataFrame) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	cols := g.attrs.Columns()
	for i, geom := range g.geometry {
		f := geojson.NewFeature(geom)
		for _, name := range cols {
			s := g.attrs.Col(name)
			if s.IsNull(i) {
				continue
			}
			v := s.At(i)
			if s.DType() == frame.Time {
				v = s.Str(i)
			}
			f.Properties[name] = v
		}
		fc.Append(f)
	}
	return fc
}

// FromFeatureCollection builds a GeoDataFrame from GeoJSON features.
// Property columns are ordered by name; types are inferred.
func FromFeatureCollection(fc *geojson.FeatureCollection, crs string) (*GeoDataFrame, error) {
	keys := make(map[string]bool)
	for _, f := range fc.Features {
		for k := range f.Properties {
			keys[k] = true
		}
	}
	cols := make([]string, 0, len(keys))
	for k := range keys {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	rows := make([][]any, len(fc.Features))
	geoms := make([]orb.Geometry, len(fc.Features))
	for i, f := range fc.Features {
		row := make([]any, len(cols))
		for c, k := range cols {
			row[c] = f.Properties[k]
		}
		rows[i] = row
		geoms[i] = f.Geometry
	}
	attrs, err := frame.FromRecords(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("build attribute table: %w", err)
	}
	return New(attrs, geoms, crs)
}

type jsonGeoFrame struct {
	CRS      string                     `json:"crs"`
	Columns  []string                   `json:"columns"`
	Schema   map[string]frame.DType     `json:"schema"`
	Features *geojson.FeatureCollection `json:"features"`
}

// MarshalJSON encodes the frame as a FeatureCollection plus CRS and column schema.
func (g *GeoDataFrame) MarshalJSON() ([]byte, error) {
	schema := make(map[string]frame.DType, g.attrs.NumCols())
	for _, name := range g.attrs.Columns() {
		schema[name] = g.attrs.Col(name).DType()
	}
	return json.Marshal(jsonGeoFrame{
		CRS:      g.crs,
		Columns:  g.attrs.Columns(),
		Schema:   schema,
		Features: g.FeatureCollection(),
	})
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (g *GeoDataFrame) UnmarshalJSON(data []byte) error {
	var in jsonGeoFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Features == nil {
		in.Features = geojson.NewFeatureCollection()
	}
	decoded, err := FromFeatureCollection(in.Features, in.CRS)
	if err != nil {
		return err
	}
	if len(in.Columns) > 0 {
		decoded.attrs, err = restoreSchema(decoded.attrs, in.Columns, in.Schema, len(decoded.geometry))
		if err != nil {
			return err
		}
	}
	*g = *decoded
	return nil
}

// restoreSchema puts columns back in their original order and type. JSON loses both:
// properties are unordered, integers decode as floats and all-null columns vanish.
func restoreSchema(df *frame.DataFrame, columns []string, schema map[string]frame.DType, rows int) (*frame.DataFrame, error) {
	series := make([]*frame.Series, len(columns))
	for i, name := range columns {
		values := make([]any, rows)
		if s := df.Col(name); s != nil {
			values = s.Values()
		}
		dtype, ok := schema[name]
		if !ok {
			dtype = frame.String
		}
		s, err := frame.NewSeries(name, dtype, values)
		if err != nil {
			return nil, err
		}
		series[i] = s
	}
	return frame.New(series...)
}
