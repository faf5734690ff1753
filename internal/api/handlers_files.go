// handlers_files.go - Stored file handlers (source uploads and exported DXF files)
package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beam-label/backend/internal/models"
	"github.com/beam-label/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

const recentFilesLimit = 20

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store         storage.Store
	allowedExts   []string
	allowDeletion bool
}

// NewFileHandler creates a new file handler. An empty allowedExts accepts
// every extension.
func NewFileHandler(store storage.Store, allowedExts []string, allowDeletion bool) FileHandler {
	return &FileHandlerImpl{
		store:         store,
		allowedExts:   allowedExts,
		allowDeletion: allowDeletion,
	}
}

// HandleUploadFile accepts a coordinate file as multipart/form-data ("file"
// field) or as base64 JSON and saves it to storage
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return h.uploadBase64(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	if err := h.checkExtension(file.Filename); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, models.FileKindSource, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, info)
}

func (h *FileHandlerImpl) uploadBase64(c echo.Context) error {
	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}
	if err := h.checkExtension(req.Name); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	info, err := h.store.SaveBytes(req.Name, models.FileKindSource, decoded)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentFiles returns recently stored files. ?kind=source|dxf
// filters by kind (default source), ?limit caps the list.
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	kind := models.FileKind(c.QueryParam("kind"))
	switch kind {
	case "":
		kind = models.FileKindSource
	case "all":
		kind = ""
	case models.FileKindSource, models.FileKindDXF:
	default:
		return NewBadRequestError("unknown file kind: "+string(kind), nil)
	}

	limit := recentFilesLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(kind, limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}

	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err, id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDownloadFile sends the file as an attachment under its display name
func (h *FileHandlerImpl) HandleDownloadFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return storeError(err, id)
	}
	path, err := h.store.GetFilePath(id)
	if err != nil {
		return storeError(err, id)
	}

	if info.Kind == models.FileKindDXF {
		c.Response().Header().Set(echo.HeaderContentType, dxfContentType)
	}
	return c.Attachment(path, info.Name)
}

// HandleDeleteFile deletes a stored file
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if !h.allowDeletion {
		return NewForbiddenError("file deletion is disabled")
	}

	if err := h.store.Delete(id); err != nil {
		return storeError(err, id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleRenameFile updates the name of a file
func (h *FileHandlerImpl) HandleRenameFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var req renameFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.Name == "" {
		return NewValidationError("name")
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return storeError(err, id)
	}

	return c.JSON(http.StatusOK, info)
}

func (h *FileHandlerImpl) checkExtension(name string) error {
	if len(h.allowedExts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range h.allowedExts {
		if ext == allowed {
			return nil
		}
	}
	return NewBadRequestError("unsupported file type: "+ext,
		errors.New("allowed: "+strings.Join(h.allowedExts, ", ")))
}

// Request/Response types

type uploadFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded content
}

func (r *uploadFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type renameFileRequest struct {
	Name string `json:"name"`
}

// Helper functions

// storeError maps storage errors to API errors
func storeError(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", id)
	}
	return NewInternalError("storage error", err)
}
