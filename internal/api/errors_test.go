package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expose     bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "api error",
			err:        NewNotFoundError("file", "abc"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"code":"NOT_FOUND","message":"file not found: abc"}`,
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("handler: %w", NewForbiddenError("nope")),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"code":"FORBIDDEN","message":"nope"}`,
		},
		{
			name:       "echo error",
			err:        echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"),
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"code":"HTTP_ERROR","message":"method not allowed"}`,
		},
		{
			name:       "unknown error hidden",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"UNKNOWN_ERROR","message":"An unexpected error occurred"}`,
		},
		{
			name:       "unknown error exposed",
			err:        errors.New("disk on fire"),
			expose:     true,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"UNKNOWN_ERROR","message":"An unexpected error occurred","details":"disk on fire"}`,
		},
		{
			name:       "internal error details hidden",
			err:        NewInternalError("export failed", errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"INTERNAL_ERROR","message":"export failed"}`,
		},
		{
			name:       "bad request keeps details",
			err:        NewBadRequestError("invalid JSON body", errors.New("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"BAD_REQUEST","message":"invalid JSON body","details":"unexpected EOF"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := ExposeErrorDetails
			ExposeErrorDetails = tt.expose
			defer func() { ExposeErrorDetails = old }()

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestNewBadRequestError_Details(t *testing.T) {
	err := NewBadRequestError("invalid JSON body", errors.New("unexpected EOF"))
	assert.Equal(t, "BAD_REQUEST: invalid JSON body", err.Error())
	assert.Equal(t, "unexpected EOF", err.Details)
}
