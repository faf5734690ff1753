package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHandler_HandleClassify(t *testing.T) {
	handler := NewClassifyHandler()

	e := echo.New()
	body := `{"labels":["B1-1","b2","fb3","WB4","FWB5","G1",""]}`
	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.HandleClassify(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []classifiedLabel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []classifiedLabel{
		{"B1-1", "BEAM_MAIN"},
		{"b2", "BEAM_SECONDARY"},
		{"fb3", "BEAM_SECONDARY"},
		{"WB4", "BEAM_SPECIAL"},
		{"FWB5", "BEAM_SPECIAL"},
		{"G1", "BEAM_LABELS"},
		{"", "BEAM_LABELS"},
	}, got)
}

func TestClassifyHandler_MissingLabels(t *testing.T) {
	handler := NewClassifyHandler()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewBufferString(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.HandleClassify(c)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestClassifyHandler_HandleGetLayers(t *testing.T) {
	handler := NewClassifyHandler()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/layers", nil), rec)

	require.NoError(t, handler.HandleGetLayers(c))
	assert.JSONEq(t, `[
		{"name":"BEAM_MAIN","color":1},
		{"name":"BEAM_SECONDARY","color":3},
		{"name":"BEAM_SPECIAL","color":6},
		{"name":"BEAM_LABELS","color":7}
	]`, rec.Body.String())
}
