// Package labelstore keeps exported beam labels in a DuckDB file so they can
// be browsed and filtered by layer after the DXF has been written.
package labelstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/beam-label/backend/internal/logging"
	"github.com/beam-label/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 5000
)

// Options tunes the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
}

// DuckStore is a label index backed by a DuckDB file. One table holds the
// labels of every export, keyed by export ID.
type DuckStore struct {
	db     *sql.DB
	dbPath string

	// Appends for the same file must not interleave.
	writeMu sync.Mutex
}

// Open opens or creates the label index at dbPath. An empty dbPath opens an
// in-memory database.
func Open(dbPath string, opts Options) (*DuckStore, error) {
	log := logging.Logger().With("component", "labelstore")
	log.Info("opening label index", "path", dbPath)

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", strings.ReplaceAll(opts.MemoryLimit, "'", "")))
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				log.Warn("pragma failed", "pragma", pragma, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS labels (
			export_id VARCHAR NOT NULL,
			seq       INTEGER NOT NULL,
			label     VARCHAR NOT NULL,
			layer     VARCHAR NOT NULL,
			x         DOUBLE NOT NULL,
			y         DOUBLE NOT NULL,
			z         DOUBLE NOT NULL,
			height    DOUBLE NOT NULL,
			rotation  DOUBLE NOT NULL,
			marker    BOOLEAN NOT NULL,
			story     VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (ds *DuckStore) Path() string {
	return ds.dbPath
}

// Append indexes records under exportID. Each record is classified the same
// way the DXF writer classifies it; seq is the record's position in the
// export, starting at 0.
func (ds *DuckStore) Append(ctx context.Context, exportID string, records []models.BeamLabelRecord) error {
	if len(records) == 0 {
		return nil
	}

	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()

	start := time.Now()
	conn, err := ds.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "labels")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, r := range records {
			err := appender.AppendRow(
				exportID,
				int32(i),
				r.Label,
				dxf.Classify(r.Label),
				r.X,
				r.Y,
				r.Z,
				r.TextHeight(),
				r.Rotation,
				r.ShowMarker,
				r.Story,
			)
			if err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	logging.Logger().Debug("indexed labels", "export", exportID, "count", len(records), "elapsed", time.Since(start))
	return nil
}

// ClampPageSize applies the default and maximum page sizes used by Query.
func ClampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// Query returns one page of an export's labels in seq order, optionally
// restricted to one layer, plus the total number of matching labels. Pages
// start at 1; pageSize is capped at MaxPageSize (see ClampPageSize).
func (ds *DuckStore) Query(ctx context.Context, exportID, layer string, page, pageSize int) ([]models.LabelRow, int, error) {
	if page < 1 {
		page = 1
	}
	pageSize = ClampPageSize(pageSize)

	where := "export_id = ?"
	args := []interface{}{exportID}
	if layer != "" {
		where += " AND layer = ?"
		args = append(args, layer)
	}

	var total int
	if err := ds.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM labels WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query failed: %w", err)
	}

	// Past the last page; also keeps the offset from overflowing
	if total == 0 || page-1 > (total-1)/pageSize {
		return []models.LabelRow{}, total, nil
	}

	query := `SELECT seq, label, layer, x, y, z, height, rotation, marker, COALESCE(story, '')
		FROM labels WHERE ` + where + fmt.Sprintf(" ORDER BY seq LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("label query failed: %w", err)
	}
	defer rows.Close()

	result := make([]models.LabelRow, 0, pageSize)
	for rows.Next() {
		var r models.LabelRow
		var seq int32
		if err := rows.Scan(&seq, &r.Label, &r.Layer, &r.X, &r.Y, &r.Z, &r.Height, &r.Rotation, &r.ShowMarker, &r.Story); err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		r.Seq = int(seq)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// LayerCounts returns the number of indexed labels per layer for an export.
func (ds *DuckStore) LayerCounts(ctx context.Context, exportID string) (map[string]int, error) {
	rows, err := ds.db.QueryContext(ctx,
		"SELECT layer, COUNT(*) FROM labels WHERE export_id = ? GROUP BY layer", exportID)
	if err != nil {
		return nil, fmt.Errorf("layer count query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var layer string
		var n int64
		if err := rows.Scan(&layer, &n); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		counts[layer] = int(n)
	}
	return counts, rows.Err()
}

// Delete removes every label of an export.
func (ds *DuckStore) Delete(ctx context.Context, exportID string) error {
	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()

	if _, err := ds.db.ExecContext(ctx, "DELETE FROM labels WHERE export_id = ?", exportID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (ds *DuckStore) Close() error {
	if ds.db == nil {
		return nil
	}
	return ds.db.Close()
}
