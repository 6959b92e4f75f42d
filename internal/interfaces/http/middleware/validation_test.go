package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpnk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tripRequest struct {
	Date      string   `json:"date" binding:"required,datetime=2006-01-02"`
	Direction string   `json:"direction" binding:"required,trip_direction"`
	Mode      string   `json:"commute_mode" binding:"required,commute_mode"`
	Slug      string   `json:"slug" binding:"omitempty,slug"`
	Emails    []string `json:"emails" binding:"omitempty,max=2,dive,email"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/trips", func(c *gin.Context) {
		var req tripRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		field   string
		message string
	}{
		{"valid", `{"date":"2026-05-04","direction":"trip_to","commute_mode":"bicycle"}`, http.StatusOK, "", ""},
		{"missing date", `{"direction":"trip_to","commute_mode":"bicycle"}`, http.StatusBadRequest, "date", "This field is required"},
		{"bad date", `{"date":"04.05.2026","direction":"trip_to","commute_mode":"bicycle"}`, http.StatusBadRequest, "date", "Must be a date in format 2006-01-02"},
		{"bad direction", `{"date":"2026-05-04","direction":"there","commute_mode":"bicycle"}`, http.StatusBadRequest, "direction", "Must be one of: trip_to trip_from recreational"},
		{"bad mode", `{"date":"2026-05-04","direction":"trip_to","commute_mode":"horse"}`, http.StatusBadRequest, "commute_mode", "Unknown commute mode"},
		{"bad slug", `{"date":"2026-05-04","direction":"trip_to","commute_mode":"bicycle","slug":"Velka Cena"}`, http.StatusBadRequest, "slug", "Must contain only lowercase letters, digits and hyphens"},
		{"too many emails", `{"date":"2026-05-04","direction":"trip_to","commute_mode":"bicycle","emails":["a@b.cz","c@d.cz","e@f.cz"]}`, http.StatusBadRequest, "emails", "Must contain at most 2 items"},
	}

	router := newValidationRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			assert.Equal(t, tt.message, resp.Error.Details[0].Message)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}

func TestFormatValidationErrors_DecodeErrors(t *testing.T) {
	SetupValidator()

	var req tripRequest
	err := json.Unmarshal([]byte(`{"date":20260504}`), &req)
	resp := FormatValidationErrors(err, "req-2")
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "date", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be of type string", resp.Error.Details[0].Message)

	err = json.Unmarshal([]byte(`{"date":`), &req)
	resp = FormatValidationErrors(err, "req-3")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Malformed JSON body", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
}
