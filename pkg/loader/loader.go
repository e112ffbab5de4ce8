// Package loader reads datasets from disk into frames.
//
// CSV and Parquet files are read through an in-memory DuckDB connection, so
// column types come from DuckDB's sniffer. Excel workbooks are read with
// excelize. A tabular column named "geometry" holding WKT turns the result
// into a GeoDataFrame. GeoJSON files are decoded with orb.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

const maxParallelLoads = 4

// Loader owns the DuckDB connection used for tabular files.
type Loader struct {
	db *sql.DB
}

// New opens an in-memory DuckDB database.
func New() (*Loader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	return &Loader{db: db}, nil
}

// Close closes the DuckDB connection.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load reads one dataset, choosing the reader from the file extension.
func (l *Loader) Load(ctx context.Context, path string) (frame.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		return l.query(ctx, "read_csv_auto", path)
	case ".parquet":
		return l.query(ctx, "read_parquet", path)
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".geojson", ".json":
		return readGeoJSON(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadAll loads the paths concurrently and returns the datasets in path order.
// The first failure cancels the remaining loads.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]frame.Dataset, error) {
	datasets := make([]frame.Dataset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, p := range paths {
		g.Go(func() error {
			ds, err := l.Load(gctx, p)
			if err != nil {
				return err
			}
			datasets[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return datasets, nil
}

func (l *Loader) query(ctx context.Context, reader, path string) (frame.Dataset, error) {
	query := fmt.Sprintf("SELECT * FROM %s('%s')", reader, strings.ReplaceAll(path, "'", "''"))
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", path, err)
	}

	var records [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", path, err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", path, err)
	}

	df, err := frame.FromRecords(columns, records)
	if err != nil {
		return nil, fmt.Errorf("failed to build frame from %s: %w", path, err)
	}
	return withGeometry(df, path)
}

// withGeometry returns df unchanged unless it has a geometry column, which
// is parsed as WKT and moved out of the attributes.
func withGeometry(df *frame.DataFrame, path string) (frame.Dataset, error) {
	if !df.HasCol(geo.GeometryColumn) {
		return df, nil
	}

	col := df.Col(geo.GeometryColumn)
	geoms := make([]orb.Geometry, col.Len())
	for i := range geoms {
		if col.IsNull(i) {
			continue
		}
		g, err := wkt.Unmarshal(col.Str(i))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid WKT geometry: %w", path, i, err)
		}
		geoms[i] = g
	}
	g, err := geo.New(df.Drop(geo.GeometryColumn), geoms, geo.DefaultCRS)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo frame from %s: %w", path, err)
	}
	return g, nil
}

func readGeoJSON(path string) (frame.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON %s: %w", path, err)
	}
	// RFC 7946 fixes GeoJSON coordinates to WGS84
	g, err := geo.FromFeatureCollection(fc, geo.DefaultCRS)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo frame from %s: %w", path, err)
	}
	return g, nil
}

// normalize maps driver values onto the types frame infers.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64, time.Time:
		return x
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	case duckdb.Decimal:
		return x.Float64()
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
