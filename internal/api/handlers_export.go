// handlers_export.go - DXF export job handlers
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/beam-label/backend/internal/export"
	"github.com/beam-label/backend/internal/labelstore"
	"github.com/beam-label/backend/internal/models"
	"github.com/beam-label/backend/internal/source"
	"github.com/beam-label/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const dxfContentType = "application/dxf"

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	store     storage.Store
	exportMgr ExportManager
	index     LabelIndex
}

// NewExportHandler creates a new export handler. index may be nil when the
// label index is disabled.
func NewExportHandler(store storage.Store, exportMgr ExportManager, index LabelIndex) ExportHandler {
	return &ExportHandlerImpl{
		store:     store,
		exportMgr: exportMgr,
		index:     index,
	}
}

// HandleStartExport starts an async export of an uploaded file
func (h *ExportHandlerImpl) HandleStartExport(c echo.Context) error {
	var req startExportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	job, err := h.exportMgr.StartFromFile(req.FileID, req.Sheet)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return NewNotFoundError("file", req.FileID)
		case errors.Is(err, source.ErrNoReader):
			return NewBadRequestError("unsupported source format", err)
		}
		return NewInternalError("failed to start export", err)
	}

	return c.JSON(http.StatusAccepted, job)
}

// HandleInlineExport exports records posted in the request body and waits
// for the result
func (h *ExportHandlerImpl) HandleInlineExport(c echo.Context) error {
	var req inlineExportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Records == nil {
		return NewValidationError("records")
	}

	records := make([]models.BeamLabelRecord, len(req.Records))
	for i, r := range req.Records {
		records[i] = r.Normalize()
	}

	job, err := h.exportMgr.ExportRecords(c.Request().Context(), req.Name, records)
	if err != nil {
		if errors.Is(err, export.ErrTooManyRecords) {
			return NewBadRequestError("too many records", err)
		}
		return NewInternalError("export failed", err)
	}

	return c.JSON(http.StatusCreated, job)
}

// HandleListExports returns every tracked export job, newest first
func (h *ExportHandlerImpl) HandleListExports(c echo.Context) error {
	return c.JSON(http.StatusOK, h.exportMgr.ListJobs())
}

// HandleGetExport returns the current state of an export job
func (h *ExportHandlerImpl) HandleGetExport(c echo.Context) error {
	job, err := h.getJob(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// HandleDownloadDXF sends the exported drawing as an attachment
func (h *ExportHandlerImpl) HandleDownloadDXF(c echo.Context) error {
	job, err := h.getCompletedJob(c)
	if err != nil {
		return err
	}

	info, err := h.store.Get(job.ResultFileID)
	if err != nil {
		return storeError(err, job.ResultFileID)
	}
	path, err := h.store.GetFilePath(job.ResultFileID)
	if err != nil {
		return storeError(err, job.ResultFileID)
	}

	c.Response().Header().Set(echo.HeaderContentType, dxfContentType)
	return c.Attachment(path, info.Name)
}

// HandleGetLabels returns one page of an export's indexed labels.
// Query params: layer, page (1-based), pageSize.
func (h *ExportHandlerImpl) HandleGetLabels(c echo.Context) error {
	page, err := h.queryLabels(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// HandleGetLabelsMsgpack is HandleGetLabels with a MessagePack body
func (h *ExportHandlerImpl) HandleGetLabelsMsgpack(c echo.Context) error {
	page, err := h.queryLabels(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(page)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetSummary returns per-layer entity counts for a finished export,
// plus label counts from the index when it is enabled
func (h *ExportHandlerImpl) HandleGetSummary(c echo.Context) error {
	job, err := h.getCompletedJob(c)
	if err != nil {
		return err
	}

	summary := exportSummary{
		ID:           job.ID,
		Name:         job.Name,
		RecordCount:  job.RecordCount,
		EntityCount:  job.EntityCount,
		RowErrors:    len(job.RowErrors),
		ResultFileID: job.ResultFileID,
	}

	var labelCounts map[string]int
	if h.index != nil {
		labelCounts, err = h.index.LayerCounts(c.Request().Context(), job.ID)
		if err != nil {
			return NewInternalError("failed to count labels", err)
		}
	}

	for _, l := range dxf.PredefinedLayers() {
		summary.Layers = append(summary.Layers, layerSummary{
			Name:     l.Name,
			Color:    l.Color,
			Entities: job.LayerCounts[l.Name],
			Labels:   labelCounts[l.Name],
		})
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *ExportHandlerImpl) getJob(c echo.Context) (*models.ExportJob, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}

	job, err := h.exportMgr.GetJob(id)
	if err != nil {
		if errors.Is(err, export.ErrJobNotFound) {
			return nil, NewNotFoundError("export", id)
		}
		return nil, NewInternalError("failed to get export", err)
	}
	return job, nil
}

func (h *ExportHandlerImpl) getCompletedJob(c echo.Context) (*models.ExportJob, error) {
	job, err := h.getJob(c)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusComplete {
		return nil, NewConflictError("export is not complete: " + string(job.Status))
	}
	return job, nil
}

func (h *ExportHandlerImpl) queryLabels(c echo.Context) (*labelPage, error) {
	if h.index == nil {
		return nil, NewServiceUnavailableError("label index is disabled")
	}

	job, err := h.getCompletedJob(c)
	if err != nil {
		return nil, err
	}

	page, err := intQueryParam(c, "page", 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := intQueryParam(c, "pageSize", labelstore.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	pageSize = labelstore.ClampPageSize(pageSize)
	layer := c.QueryParam("layer")

	labels, total, err := h.index.Query(c.Request().Context(), job.ID, layer, page, pageSize)
	if err != nil {
		return nil, NewInternalError("failed to query labels", err)
	}

	return &labelPage{
		Labels:   labels,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Layer:    layer,
	}, nil
}

// Request/Response types

type startExportRequest struct {
	FileID string `json:"fileId"`
	Sheet  string `json:"sheet,omitempty"`
}

type inlineExportRequest struct {
	Name    string                   `json:"name"`
	Records []models.BeamLabelRecord `json:"records"`
}

type labelPage struct {
	Labels   []models.LabelRow `json:"labels" msgpack:"labels"`
	Total    int               `json:"total" msgpack:"total"`
	Page     int               `json:"page" msgpack:"page"`
	PageSize int               `json:"pageSize" msgpack:"pageSize"`
	Layer    string            `json:"layer,omitempty" msgpack:"layer,omitempty"`
}

type layerSummary struct {
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Entities int    `json:"entities"`
	Labels   int    `json:"labels"`
}

type exportSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	RecordCount  int            `json:"recordCount"`
	EntityCount  int            `json:"entityCount"`
	RowErrors    int            `json:"rowErrors"`
	ResultFileID string         `json:"resultFileId"`
	Layers       []layerSummary `json:"layers"`
}

// Helper functions

func intQueryParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, NewValidationError(name)
	}
	return n, nil
}
