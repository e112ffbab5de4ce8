package codegen

// apiReference summarizes the packages generated code works with. It is sent
// with every generation request.
const apiReference = `frame (tabular data):
  frame.New(series ...*frame.Series) (*frame.DataFrame, error); frame.MustNew(...)
  frame.NewInts(name, []int64), frame.NewFloats(name, []float64), frame.NewStrings(name, []string), frame.NewBools(name, []bool), frame.InferSeries(name, []any)
  (*DataFrame): Shape() (rows, cols), Columns(), Col(name) *Series, Column(name) (*Series, error), Row(i), Rows(), Head(n), Take(idx), Select(names...), Drop(names...),
    WithColumn(s) (*DataFrame, error), Filter(func(frame.Row) bool), SortBy(name, ascending) (*DataFrame, error), GroupBy(key, value, frame.AggSum|AggMean|AggCount|AggMin|AggMax) (*DataFrame, error), String()
  (*Series): Name(), Len(), At(i), IsNull(i), Float(i) (float64, bool), Str(i), Floats(), Strings(), Count(), Sum(), Mean(), Min(), Max(), Std(), Unique(), ValueCounts(), Apply(name, func(any) any)
  frame.Row: Get(name) any, Float(name) float64, Str(name) string, Index() int
geo (geodataframes, geometry column holds orb.Geometry, coordinates are lon/lat):
  geo.New(attrs *frame.DataFrame, geoms []orb.Geometry, crs string) (*geo.GeoDataFrame, error)
  (*GeoDataFrame): Shape(), Columns(), Table() *frame.DataFrame, Col(name), CRS(), Geometry(i), Geometries(), Bound(), Take(idx), Head(n),
    Filter(func(frame.Row, orb.Geometry) bool), SortBy(name, ascending), WithColumn(s), Within(orb.Polygon), Areas() *frame.Series, Centroids()
  geo.Area(g), geo.GeodesicArea(g) square meters, geo.Centroid(g) orb.Point, geo.Distance(a, b), geo.DistanceMeters(a, b), geo.Contains(poly, point)
chart (figures):
  chart.NewFigure(title).Labels(x, y).Line(name, xs, ys).Scatter(name, xs, ys).Bar(name, labels, values)
webmap (interactive maps):
  webmap.NewMap(center orb.Point, zoom int), webmap.FromGeoFrame(name, g)
  (*Map): AddGeoFrame(name, g, webmap.DefaultStyle), AddMarker(orb.Point, popup), SetTooltip(layer, property)
orb: orb.Point{lon, lat}, orb.Polygon{orb.Ring{...}}, orb.Bound; planar.Area, planar.Distance, planar.PolygonContains`
