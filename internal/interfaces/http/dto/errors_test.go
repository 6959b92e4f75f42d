package dto

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeErrorCode_DomainCodes(t *testing.T) {
	tests := []struct {
		domain string
		api    string
		status int
	}{
		{"NOT_FOUND", ErrCodeNotFound, http.StatusNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists, http.StatusConflict},
		{"TEAM_FULL", ErrCodeTeamFull, http.StatusUnprocessableEntity},
		{"DAY_NOT_EDITABLE", ErrCodeDayNotEditable, http.StatusUnprocessableEntity},
		{"PHASE_CLOSED", ErrCodePhaseClosed, http.StatusUnprocessableEntity},
		{"INVALID_COUPON", ErrCodeInvalidCoupon, http.StatusUnprocessableEntity},
		{"SEQUENCE_EXHAUSTED", ErrCodeSequenceExhausted, http.StatusUnprocessableEntity},
		{"INVALID_SIGNATURE", ErrCodeInvalidSignature, http.StatusBadRequest},
		{"GATEWAY_UNAVAILABLE", ErrCodeGatewayUnavailable, http.StatusServiceUnavailable},
		{"TOKEN_MAX_REFRESH", ErrCodeTokenInvalid, http.StatusUnauthorized},
		{"PASSWORD_HASH_ERROR", ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			code := NormalizeErrorCode(tt.domain)
			assert.Equal(t, tt.api, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}
}

func TestNormalizeErrorCode_PassThrough(t *testing.T) {
	assert.Equal(t, ErrCodeTeamFull, NormalizeErrorCode(ErrCodeTeamFull))
	assert.Equal(t, "SOMETHING_NEW", NormalizeErrorCode("SOMETHING_NEW"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_NEW"))
}

func TestErrorCodes_WellFormed(t *testing.T) {
	format := regexp.MustCompile(`^ERR_[A-Z]+(_[A-Z]+)*$`)
	seen := map[string]string{}
	for code, e := range catalogue {
		assert.Regexp(t, format, code)
		assert.NotZero(t, e.status, code)
		for _, d := range e.domain {
			prev, dup := seen[d]
			assert.False(t, dup, "%s is mapped by %s and %s", d, prev, code)
			seen[d] = code
		}
	}
	assert.Len(t, domainCodes, len(seen))
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("TEAM_FULL", "Team Rychlá Kola is full", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTeamFull, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `"Team Rychlá Kola is full"`, mustField(t, body, "error", "message"))
	assert.NotContains(t, string(body), `"data"`)
	assert.NotContains(t, string(body), `"details"`)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "distance", Message: "must be at most 1000"},
	})

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "distance", resp.Error.Details[0].Field)
}

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		pageSize  int
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{"exact pages", 40, 2, 20, 2, 20, 2},
		{"partial last page", 41, 1, 20, 1, 20, 3},
		{"empty", 0, 1, 20, 1, 20, 0},
		{"default page size", 45, 1, 0, 1, 20, 3},
		{"page zero", 5, 0, 10, 1, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPageResponse([]string{}, tt.total, tt.page, tt.pageSize)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.wantPage, resp.Meta.Page)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
		})
	}
}

func TestListQuery_Filter(t *testing.T) {
	f := ListQuery{}.Filter()
	assert.Equal(t, shared.DefaultFilter(), f)

	f = ListQuery{Page: 3, PageSize: 50, OrderBy: "name", Order: "asc", Search: "rychl"}.Filter()
	assert.Equal(t, shared.Filter{Page: 3, PageSize: 50, OrderBy: "name", OrderDir: "asc", Search: "rychl"}, f)
}

func mustField(t *testing.T, body []byte, path ...string) string {
	t.Helper()
	var node any
	require.NoError(t, json.Unmarshal(body, &node))
	for _, key := range path {
		obj, ok := node.(map[string]any)
		require.True(t, ok, "no object at %s", key)
		node = obj[key]
	}
	raw, err := json.Marshal(node)
	require.NoError(t, err)
	return string(raw)
}
