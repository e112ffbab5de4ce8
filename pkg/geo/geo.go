// Package geo adds a geometry column and a coordinate reference system to frame.DataFrame.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

// DefaultCRS is assumed for data without an explicit reference system.
const DefaultCRS = "EPSG:4326"

// GeometryColumn is the name the geometry column is reported under.
const GeometryColumn = "geometry"

// ErrGeometryLength is returned when geometries and attribute rows differ in count.
var ErrGeometryLength = errors.New("geometry count does not match row count")

// GeoDataFrame is a DataFrame whose rows each carry a geometry.
type GeoDataFrame struct {
	attrs    *frame.DataFrame
	geometry []orb.Geometry
	crs      string
}

// New pairs an attribute table with one geometry per row.
func New(attrs *frame.DataFrame, geometry []orb.Geometry, crs string) (*GeoDataFrame, error) {
	if attrs == nil {
		attrs = frame.MustNew()
	}
	if attrs.NumCols() > 0 && attrs.NumRows() != len(geometry) {
		return nil, fmt.Errorf("%w: %d geometries, %d rows", ErrGeometryLength, len(geometry), attrs.NumRows())
	}
	if crs == "" {
		crs = DefaultCRS
	}
	geoms := make([]orb.Geometry, len(geometry))
	copy(geoms, geometry)
	return &GeoDataFrame{attrs: attrs, geometry: geoms, crs: crs}, nil
}

// MustNew is like New but panics on error.
func MustNew(attrs *frame.DataFrame, geometry []orb.Geometry, crs string) *GeoDataFrame {
	g, err := New(attrs, geometry, crs)
	if err != nil {
		panic(err)
	}
	return g
}

// Shape counts the geometry column as a column.
func (g *GeoDataFrame) Shape() (int, int) {
	return len(g.geometry), g.attrs.NumCols() + 1
}

// Columns returns the attribute columns followed by the geometry column.
func (g *GeoDataFrame) Columns() []string {
	return append(g.attrs.Columns(), GeometryColumn)
}

// Table returns the attribute table without geometry.
func (g *GeoDataFrame) Table() *frame.DataFrame { return g.attrs }

func (g *GeoDataFrame) NumRows() int { return len(g.geometry) }

func (g *GeoDataFrame) CRS() string { return g.crs }

// Col returns an attribute column, or nil.
func (g *GeoDataFrame) Col(name string) *frame.Series { return g.attrs.Col(name) }

// Geometry returns the geometry of row i.
func (g *GeoDataFrame) Geometry(i int) orb.Geometry { return g.geometry[i] }

// Geometries returns a copy of the geometry column.
func (g *GeoDataFrame) Geometries() []orb.Geometry {
	out := make([]orb.Geometry, len(g.geometry))
	copy(out, g.geometry)
	return out
}

// GeometryTypes returns the distinct geometry type names in first-seen order.
func (g *GeoDataFrame) GeometryTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, geom := range g.geometry {
		if geom == nil {
			continue
		}
		name := geom.GeoJSONType()
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Bound returns the bounding box of all geometries.
func (g *GeoDataFrame) Bound() orb.Bound {
	var bound orb.Bound
	first := true
	for _, geom := range g.geometry {
		if geom == nil {
			continue
		}
		if first {
			bound = geom.Bound()
			first = false
			continue
		}
		bound = bound.Union(geom.Bound())
	}
	return bound
}

// Take returns the rows at the given indices.
func (g *GeoDataFrame) Take(indices []int) *GeoDataFrame {
	geoms := make([]orb.Geometry, len(indices))
	for i, idx := range indices {
		geoms[i] = g.geometry[idx]
	}
	return &GeoDataFrame{attrs: g.attrs.Take(indices), geometry: geoms, crs: g.crs}
}

// Head returns the first n rows.
func (g *GeoDataFrame) Head(n int) *GeoDataFrame {
	n = max(0, min(n, len(g.geometry)))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return g.Take(idx)
}

// Filter keeps rows for which keep returns true.
func (g *GeoDataFrame) Filter(keep func(r frame.Row, geom orb.Geometry) bool) *GeoDataFrame {
	var idx []int
	for i := range g.geometry {
		if keep(g.row(i), g.geometry[i]) {
			idx = append(idx, i)
		}
	}
	return g.Take(idx)
}

// SortBy orders rows by an attribute column.
func (g *GeoDataFrame) SortBy(name string, ascending bool) (*GeoDataFrame, error) {
	idx, err := g.attrs.SortIndices(name, ascending)
	if err != nil {
		return nil, err
	}
	return g.Take(idx), nil
}

// WithColumn returns a copy with an attribute column added or replaced.
func (g *GeoDataFrame) WithColumn(s *frame.Series) (*GeoDataFrame, error) {
	attrs, err := g.attrs.WithColumn(s)
	if err != nil {
		return nil, err
	}
	return New(attrs, g.geometry, g.crs)
}

// Within keeps rows whose geometry lies inside poly.
func (g *GeoDataFrame) Within(poly orb.Polygon) *GeoDataFrame {
	return g.Filter(func(_ frame.Row, geom orb.Geometry) bool {
		return geom != nil && Contains(poly, Centroid(geom))
	})
}

// Areas returns the planar area of every geometry as a float Series named "area".
func (g *GeoDataFrame) Areas() *frame.Series {
	out := make([]float64, len(g.geometry))
	for i, geom := range g.geometry {
		out[i] = Area(geom)
	}
	return frame.NewFloats("area", out)
}

// Centroids returns a copy whose geometries are replaced by their centroids.
func (g *GeoDataFrame) Centroids() *GeoDataFrame {
	geoms := make([]orb.Geometry, len(g.geometry))
	for i, geom := range g.geometry {
		if geom != nil {
			geoms[i] = Centroid(geom)
		}
	}
	return &GeoDataFrame{attrs: g.attrs, geometry: geoms, crs: g.crs}
}

func (g *GeoDataFrame) String() string {
	return fmt.Sprintf("GeoDataFrame(crs=%s)\n%s", g.crs, g.withWKT().String())
}

// withWKT renders the geometry column as text for display.
func (g *GeoDataFrame) withWKT() *frame.DataFrame {
	wkt := make([]string, len(g.geometry))
	for i, geom := range g.geometry {
		wkt[i] = describeGeometry(geom)
	}
	df, err := g.attrs.WithColumn(frame.NewStrings(GeometryColumn, wkt))
	if err != nil {
		return g.attrs
	}
	return df
}

func (g *GeoDataFrame) row(i int) frame.Row {
	return g.attrs.Row(i)
}

// Area is the planar area of a geometry in CRS units.
func Area(geom orb.Geometry) float64 {
	if geom == nil {
		return 0
	}
	return planar.Area(geom)
}

// GeodesicArea is the area of a lon/lat geometry in square meters.
func GeodesicArea(geom orb.Geometry) float64 {
	if geom == nil {
		return 0
	}
	return orbgeo.Area(geom)
}

// Centroid is the planar centroid of a geometry.
func Centroid(geom orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(geom)
	return c
}

// Distance is the planar distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// DistanceMeters is the haversine distance between two lon/lat points.
func DistanceMeters(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// Contains reports whether the point lies inside the polygon.
func Contains(poly orb.Polygon, p orb.Point) bool {
	return planar.PolygonContains(poly, p)
}

func describeGeometry(geom orb.Geometry) string {
	switch t := geom.(type) {
	case nil:
		return ""
	case orb.Point:
		return fmt.Sprintf("POINT (%g %g)", t[0], t[1])
	default:
		c := Centroid(geom)
		return fmt.Sprintf("%s (centroid %g %g)", geom.GeoJSONType(), c[0], c[1])
	}
}
