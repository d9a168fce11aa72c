package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "code", Message: "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"syntax", &json.SyntaxError{}, http.StatusBadRequest, "BAD_REQUEST"},
		{"shift not found", shift.ErrShiftNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped assignment not found", fmt.Errorf("load: %w", shift.ErrAssignmentNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"employee not found", employee.ErrEmployeeNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"no current", shift.ErrNoCurrentAssignment, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate code", shift.ErrShiftCodeExists, http.StatusConflict, "CONFLICT"},
		{"not pending", shift.ErrAssignmentNotPending, http.StatusConflict, "CONFLICT"},
		{"overlap", shift.ErrOverlappingAssignment, http.StatusConflict, "CONFLICT"},
		{"idempotency in flight", shift.ErrIdempotencyKeyConflict, http.StatusConflict, "CONFLICT"},
		{"forbidden", shift.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"missing actor", shift.ErrMissingActor, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"inactive employee", employee.ErrEmployeeNotAssignable, http.StatusBadRequest, "BAD_REQUEST"},
		{"inactive shift", shift.ErrShiftInactive, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestHandleError_ShiftInUse(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, fmt.Errorf("delete: %w", &shift.ShiftInUseError{ShiftID: "s-1", Count: 3}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "3", body.Error.Details["blocking_assignments"])
}

func TestHandleError_UnknownErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: relation shifts does not exist"))

	assert.NotContains(t, rec.Body.String(), "relation")
}
