// handlers_classify.go - Label classification handlers
package api

import (
	"net/http"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/labstack/echo/v4"
)

// ClassifyHandlerImpl implements the ClassifyHandler interface
type ClassifyHandlerImpl struct{}

// NewClassifyHandler creates a new classify handler
func NewClassifyHandler() ClassifyHandler {
	return &ClassifyHandlerImpl{}
}

// HandleClassify returns the layer each label would be drawn on
func (h *ClassifyHandlerImpl) HandleClassify(c echo.Context) error {
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Labels == nil {
		return NewValidationError("labels")
	}

	result := make([]classifiedLabel, len(req.Labels))
	for i, label := range req.Labels {
		result[i] = classifiedLabel{Label: label, Layer: dxf.Classify(label)}
	}

	return c.JSON(http.StatusOK, result)
}

// HandleGetLayers lists the predefined beam layers
func (h *ClassifyHandlerImpl) HandleGetLayers(c echo.Context) error {
	return c.JSON(http.StatusOK, dxf.PredefinedLayers())
}

type classifyRequest struct {
	Labels []string `json:"labels"`
}

type classifiedLabel struct {
	Label string `json:"label"`
	Layer string `json:"layer"`
}
