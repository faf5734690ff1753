// Package source reads beam label records from coordinate files: Excel
// workbooks, CSV exports and YAML/JSON lists.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beam-label/backend/internal/models"
)

var (
	// ErrNoReader is returned when no reader handles a file's format.
	ErrNoReader = errors.New("no reader for file")
	// ErrMissingColumn is returned when a table has no usable header row.
	ErrMissingColumn = errors.New("missing required column")
)

// Reader reads beam label records from one file format.
type Reader interface {
	// Name returns the unique name of the reader.
	Name() string
	// CanRead returns true if this reader handles the given file.
	CanRead(filePath string) bool
	// Read reads every record in the file. Rows whose cells cannot be
	// converted are reported in Result.Errors and skipped.
	Read(ctx context.Context, filePath string) (*Result, error)
}

// Result is the outcome of reading one source file.
type Result struct {
	Format  string                   `json:"format"`
	Records []models.BeamLabelRecord `json:"records"`
	Errors  []models.RowError        `json:"errors,omitempty"`
	Sheets  []string                 `json:"sheets,omitempty"`
}

func newResult(format string) *Result {
	return &Result{
		Format:  format,
		Records: make([]models.BeamLabelRecord, 0),
	}
}

// Registry holds the available readers.
type Registry struct {
	readers []Reader
}

var globalRegistry = NewRegistry()

// NewRegistry returns a registry with every built-in reader.
func NewRegistry() *Registry {
	return &Registry{
		readers: []Reader{
			NewXLSXReader(),
			NewCSVReader(),
			NewYAMLReader(),
			NewJSONReader(),
		},
	}
}

// GetGlobalRegistry returns the shared registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a reader. Readers are tried in registration order.
func (r *Registry) Register(rd Reader) {
	r.readers = append(r.readers, rd)
}

// FindReader returns the first reader that handles filePath.
func (r *Registry) FindReader(filePath string) (Reader, error) {
	for _, rd := range r.readers {
		if rd.CanRead(filePath) {
			return rd, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoReader, filepath.Base(filePath))
}

// ReaderByName returns a reader by its name.
func (r *Registry) ReaderByName(name string) (Reader, error) {
	name = strings.ToLower(name)
	for _, rd := range r.readers {
		if strings.ToLower(rd.Name()) == name {
			return rd, nil
		}
	}
	return nil, fmt.Errorf("%w: reader %q", ErrNoReader, name)
}

// Extensions returns every extension some reader accepts.
func (r *Registry) Extensions() []string {
	var exts []string
	for _, rd := range r.readers {
		if e, ok := rd.(interface{ Extensions() []string }); ok {
			exts = append(exts, e.Extensions()...)
		}
	}
	return exts
}

func hasExtension(filePath string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
