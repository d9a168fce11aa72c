package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type EmployeeShiftHandler interface {
	Current(w http.ResponseWriter, r *http.Request)
	Effective(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
}

type employeeShiftHandlerImpl struct {
	shiftService shift.ShiftService
}

func NewEmployeeShiftHandler(shiftService shift.ShiftService) EmployeeShiftHandler {
	return &employeeShiftHandlerImpl{
		shiftService: shiftService,
	}
}

// Current implements EmployeeShiftHandler.
func (h *employeeShiftHandlerImpl) Current(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.shiftService.GetCurrentAssignment(r.Context(), employeeID, asOfParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Effective implements EmployeeShiftHandler.
func (h *employeeShiftHandlerImpl) Effective(w http.ResponseWriter, r *http.Request) {
	query := shift.EffectiveShiftQuery{
		EmployeeID: chi.URLParam(r, "employeeID"),
		AsOf:       asOfParam(r),
	}

	var errs validator.ValidationErrors
	query.Latitude = floatParam(r, "lat", &errs)
	query.Longitude = floatParam(r, "lng", &errs)
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.shiftService.GetEffectiveShift(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// History implements EmployeeShiftHandler.
func (h *employeeShiftHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.shiftService.GetAssignmentHistory(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func asOfParam(r *http.Request) *string {
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		return &asOf
	}
	return nil
}

func floatParam(r *http.Request, name string, errs *validator.ValidationErrors) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.Add(name, name+" must be a number")
		return nil
	}
	return &v
}
