package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-portal/internal/apperr"
)

func abort(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/listings/x", nil)
	AbortWithError(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestAbortWithErrorHidesWrapping(t *testing.T) {
	code, body := abort(t, fmt.Errorf("ListingService.Approve: %w", apperr.NotFound("listing not found")))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "listing not found", body["error"])
}

func TestAbortWithErrorFields(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperr.Validation("invalid listing", apperr.FieldErrors{"price": "must be greater than 0"}))
	code, body := abort(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid listing", body["error"])
	assert.Equal(t, map[string]any{"price": "must be greater than 0"}, body["fields"])
}

func TestAbortWithErrorInternal(t *testing.T) {
	code, body := abort(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body["error"])
}
