package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beam-label/backend/internal/logging"
	"github.com/xuri/excelize/v2"
)

// XLSXReader reads beam tables from an Excel workbook. Every sheet whose
// first non-blank row maps the required columns is read; a workbook with one
// sheet per story is the common layout. The sheet name becomes the record's
// Story unless the table has its own story column.
type XLSXReader struct {
	// Sheet restricts reading to one sheet when set.
	Sheet string
}

func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (r *XLSXReader) Name() string {
	return "xlsx"
}

func (r *XLSXReader) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

func (r *XLSXReader) CanRead(filePath string) bool {
	return hasExtension(filePath, r.Extensions())
}

func (r *XLSXReader) Read(ctx context.Context, filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(ctx, file)
}

// ReadFrom reads a workbook from src.
func (r *XLSXReader) ReadFrom(ctx context.Context, src io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if r.Sheet != "" {
		if idx, _ := f.GetSheetIndex(r.Sheet); idx < 0 {
			return nil, fmt.Errorf("sheet %q not found", r.Sheet)
		}
		sheets = []string{r.Sheet}
	}

	res := newResult(r.Name())
	var lastErr error
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		headerRow := -1
		for i, cells := range rows {
			if !blankRow(cells) {
				headerRow = i
				break
			}
		}
		if headerRow < 0 {
			continue
		}

		// Spreadsheet rows are 1-based; data starts right after the header.
		err = readTable(res, rows[headerRow], rows[headerRow+1:], headerRow+2, sheet)
		if errors.Is(err, ErrMissingColumn) {
			logging.Logger().Debug("skipping sheet without beam table", "sheet", sheet, "error", err)
			lastErr = fmt.Errorf("sheet %q: %w", sheet, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Sheets = append(res.Sheets, sheet)
	}

	if len(res.Sheets) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: workbook has no beam table", ErrMissingColumn)
	}
	return res, nil
}
