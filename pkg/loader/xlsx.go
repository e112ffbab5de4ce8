package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/soundprediction/go-geoai/pkg/frame"
)

// readWorkbook reads the first sheet of an Excel workbook. The first row
// holds the column names; cells are typed as int, float or bool when every
// value in a column parses that way.
func readWorkbook(path string) (frame.Dataset, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s is empty", sheets[0], path)
	}

	columns := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = name
	}

	records := make([][]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make([]any, len(columns))
		for i := range columns {
			if i < len(row) {
				record[i] = cellValue(row[i])
			}
		}
		records = append(records, record)
	}

	df, err := frame.FromRecords(columns, records)
	if err != nil {
		return nil, fmt.Errorf("failed to build frame from %s: %w", path, err)
	}
	return withGeometry(df, path)
}

func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return s
}
