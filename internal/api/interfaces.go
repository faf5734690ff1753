// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/beam-label/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FileHandler handles stored file operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// ClassifyHandler handles label classification
type ClassifyHandler interface {
	HandleClassify(c echo.Context) error
	HandleGetLayers(c echo.Context) error
}

// ExportHandler handles DXF export jobs
type ExportHandler interface {
	HandleStartExport(c echo.Context) error
	HandleInlineExport(c echo.Context) error
	HandleListExports(c echo.Context) error
	HandleGetExport(c echo.Context) error
	HandleDownloadDXF(c echo.Context) error
	HandleGetLabels(c echo.Context) error
	HandleGetLabelsMsgpack(c echo.Context) error
	HandleGetSummary(c echo.Context) error
}

// ProgressHandler streams export job progress
type ProgressHandler interface {
	HandleExportProgress(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ExportManager defines the interface for export job management
// This allows mocking in tests
type ExportManager interface {
	StartFromFile(fileID, sheet string) (*models.ExportJob, error)
	ExportRecords(ctx context.Context, name string, records []models.BeamLabelRecord) (*models.ExportJob, error)
	GetJob(id string) (*models.ExportJob, error)
	ListJobs() []*models.ExportJob
}

// LabelIndex defines the read side of the label index
type LabelIndex interface {
	Query(ctx context.Context, exportID, layer string, page, pageSize int) ([]models.LabelRow, int, error)
	LayerCounts(ctx context.Context, exportID string) (map[string]int, error)
}
