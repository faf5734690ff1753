// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"time"

	"github.com/beam-label/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store     storage.Store
	ExportMgr ExportManager
	// LabelIndex is nil when the label index is disabled.
	LabelIndex        LabelIndex
	AllowedExtensions []string
	AllowFileDeletion bool
	Version           string
	// ProgressInterval is the job poll interval of the WebSocket stream.
	ProgressInterval time.Duration
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Files    FileHandler
	Classify ClassifyHandler
	Export   ExportHandler
	Progress ProgressHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.LabelIndex != nil),
		Files:    NewFileHandler(deps.Store, deps.AllowedExtensions, deps.AllowFileDeletion),
		Classify: NewClassifyHandler(),
		Export:   NewExportHandler(deps.Store, deps.ExportMgr, deps.LabelIndex),
		Progress: NewWebSocketHandler(deps.ExportMgr, deps.ProgressInterval),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Stored file routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/upload", handlers.Files.HandleUploadFile)
	fileGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.GET("/:id/download", handlers.Files.HandleDownloadFile)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)
	fileGroup.PUT("/:id", handlers.Files.HandleRenameFile)

	// Classification routes
	e.POST("/api/classify", handlers.Classify.HandleClassify)
	e.GET("/api/layers", handlers.Classify.HandleGetLayers)

	// Export job routes
	exportGroup := e.Group("/api/exports")
	exportGroup.POST("", handlers.Export.HandleStartExport)
	exportGroup.POST("/inline", handlers.Export.HandleInlineExport)
	exportGroup.GET("", handlers.Export.HandleListExports)
	exportGroup.GET("/:id", handlers.Export.HandleGetExport)
	exportGroup.GET("/:id/dxf", handlers.Export.HandleDownloadDXF)
	exportGroup.GET("/:id/labels", handlers.Export.HandleGetLabels)
	exportGroup.GET("/:id/labels/msgpack", handlers.Export.HandleGetLabelsMsgpack)
	exportGroup.GET("/:id/summary", handlers.Export.HandleGetSummary)
	exportGroup.GET("/:id/ws", handlers.Progress.HandleExportProgress)
}

// SetupMiddleware installs the structured error handler
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
