package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVReader reads a comma-separated table with a header row.
type CSVReader struct{}

func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (r *CSVReader) Name() string {
	return "csv"
}

func (r *CSVReader) Extensions() []string {
	return []string{".csv", ".txt"}
}

func (r *CSVReader) CanRead(filePath string) bool {
	return hasExtension(filePath, r.Extensions())
}

func (r *CSVReader) Read(ctx context.Context, filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(ctx, file)
}

// ReadFrom reads CSV content from src. The first non-blank line is the
// header. Row numbers in errors are source line numbers.
func (r *CSVReader) ReadFrom(ctx context.Context, src io.Reader) (*Result, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// rows[i] holds line i+1; lines the csv reader skips stay nil.
	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, cells)
	}

	headerRow := -1
	for i, cells := range rows {
		if !blankRow(cells) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumn)
	}

	res := newResult(r.Name())
	if err := readTable(res, rows[headerRow], rows[headerRow+1:], headerRow+2, ""); err != nil {
		return nil, err
	}
	return res, nil
}
