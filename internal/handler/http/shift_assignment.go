package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// IdempotencyKeyHeader lets clients retry an assignment without creating a
// second row.
const IdempotencyKeyHeader = "Idempotency-Key"

type ShiftAssignmentHandler interface {
	Assign(w http.ResponseWriter, r *http.Request)
	BulkAssign(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type shiftAssignmentHandlerImpl struct {
	shiftService shift.ShiftService
}

func NewShiftAssignmentHandler(shiftService shift.ShiftService) ShiftAssignmentHandler {
	return &shiftAssignmentHandlerImpl{
		shiftService: shiftService,
	}
}

// Assign implements ShiftAssignmentHandler.
func (h *shiftAssignmentHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	var req shift.AssignShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))

	result, err := h.shiftService.AssignShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.ApprovalStatus == shift.ApprovalPending {
		response.Created(w, "Shift change requested, awaiting approval", result)
		return
	}
	response.Created(w, "Shift assigned successfully", result)
}

// BulkAssign implements ShiftAssignmentHandler. Per-employee failures are part
// of a 200 body; only a malformed batch is rejected outright.
func (h *shiftAssignmentHandlerImpl) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req shift.BulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.BulkAssign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements ShiftAssignmentHandler.
func (h *shiftAssignmentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := shift.AssignmentFilter{}

	if activeStr := query.Get("active_only"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.ActiveOnly = active
		}
	}
	if shiftID := query.Get("shift_id"); shiftID != "" {
		filter.ShiftID = &shiftID
	}
	if departmentID := query.Get("department_id"); departmentID != "" {
		filter.DepartmentID = &departmentID
	}
	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if status := query.Get("approval_status"); status != "" {
		filter.ApprovalStatus = &status
	}
	filter.Page, filter.Limit = parsePagination(r)

	result, err := h.shiftService.ListAssignments(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements ShiftAssignmentHandler.
func (h *shiftAssignmentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.shiftService.GetAssignment(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Approve implements ShiftAssignmentHandler.
func (h *shiftAssignmentHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.shiftService.ApproveAssignment(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift assignment approved", result)
}

// Reject implements ShiftAssignmentHandler.
func (h *shiftAssignmentHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req shift.RejectAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.shiftService.RejectAssignment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift assignment rejected", result)
}
