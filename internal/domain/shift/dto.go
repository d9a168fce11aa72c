package shift

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ==================== SHIFT CATALOG ====================

type BreakRequest struct {
	Name            string  `json:"name"`
	StartTime       *string `json:"start_time,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	IsPaid          bool    `json:"is_paid"`
	IsFlexible      bool    `json:"is_flexible"`
}

type CreateShiftRequest struct {
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Breaks        []BreakRequest `json:"breaks"`
	WorkingDays   []int          `json:"working_days"`
	Flexibility   Flexibility    `json:"flexibility"`
	Overtime      Overtime       `json:"overtime"`
	Location      Location       `json:"location"`
	HolidayPolicy HolidayPolicy  `json:"holiday_policy"`
	IsActive      *bool          `json:"is_active,omitempty"`
	IsDefault     bool           `json:"is_default"`
}

func (r *CreateShiftRequest) Validate() error {
	_, err := r.ToShift()
	return err
}

// ToShift parses and validates the request into a Shift without identity
// or audit fields.
func (r *CreateShiftRequest) ToShift() (Shift, error) {
	var errs validator.ValidationErrors

	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)

	s := Shift{
		Code:          r.Code,
		Name:          r.Name,
		Description:   r.Description,
		Flexibility:   r.Flexibility,
		Overtime:      r.Overtime,
		Location:      r.Location,
		HolidayPolicy: r.HolidayPolicy,
		IsActive:      true,
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if s.Location.WorkMode == "" {
		s.Location.WorkMode = WorkModeOffice
	}

	start, ok := parseTimeField(r.StartTime, "start_time", &errs)
	end, ok2 := parseTimeField(r.EndTime, "end_time", &errs)
	breaks, breakErrs := parseBreaks(r.Breaks)
	errs = append(errs, breakErrs...)
	s.Breaks = breaks
	s.WorkingDays = toWeekdays(r.WorkingDays)

	if !ok || !ok2 || len(breakErrs) > 0 {
		// Timing rules need parsed times; report what we have so far
		// together with the non-timing rules.
		errs = append(errs, s.validateNonTiming()...)
		return Shift{}, errs
	}
	s.StartTime, s.EndTime = start, end

	errs = append(errs, s.Validate()...)
	if len(errs) > 0 {
		return Shift{}, errs
	}
	return s, nil
}

func (s Shift) validateNonTiming() validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidShiftCode(s.Code) {
		errs.Add("code", "code must be 2-20 upper-case letters, digits, '-' or '_'")
	}
	if validator.IsEmpty(s.Name) {
		errs.Add("name", "name is required")
	}
	errs = append(errs, validateWorkingDays(s.WorkingDays, "working_days")...)
	errs = append(errs, s.Flexibility.Validate()...)
	errs = append(errs, s.Overtime.Validate()...)
	errs = append(errs, s.Location.Validate()...)
	errs = append(errs, s.HolidayPolicy.Validate()...)
	return errs
}

type UpdateShiftRequest struct {
	ID            string          `json:"-"`
	Code          *string         `json:"code,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Description   *string         `json:"description,omitempty"`
	StartTime     *string         `json:"start_time,omitempty"`
	EndTime       *string         `json:"end_time,omitempty"`
	Breaks        *[]BreakRequest `json:"breaks,omitempty"`
	WorkingDays   *[]int          `json:"working_days,omitempty"`
	Flexibility   *Flexibility    `json:"flexibility,omitempty"`
	Overtime      *Overtime       `json:"overtime,omitempty"`
	Location      *Location       `json:"location,omitempty"`
	HolidayPolicy *HolidayPolicy  `json:"holiday_policy,omitempty"`
	IsActive      *bool           `json:"is_active,omitempty"`
	IsDefault     *bool           `json:"is_default,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "shift id is required")
	}
	if r.StartTime != nil {
		parseTimeField(*r.StartTime, "start_time", &errs)
	}
	if r.EndTime != nil {
		parseTimeField(*r.EndTime, "end_time", &errs)
	}
	if r.Breaks != nil {
		_, breakErrs := parseBreaks(*r.Breaks)
		errs = append(errs, breakErrs...)
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name cannot be empty")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyTo merges the patch onto current and validates the result. The code
// is immutable: sending it is allowed only when it is unchanged.
func (r *UpdateShiftRequest) ApplyTo(current Shift) (Shift, error) {
	if err := r.Validate(); err != nil {
		return Shift{}, err
	}
	var errs validator.ValidationErrors
	if r.Code != nil && !strings.EqualFold(strings.TrimSpace(*r.Code), current.Code) {
		errs.Add("code", "code cannot be changed")
		return Shift{}, errs
	}

	s := current
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		s.Description = r.Description
	}
	if r.StartTime != nil {
		s.StartTime, _ = ParseTimeOfDay(*r.StartTime)
	}
	if r.EndTime != nil {
		s.EndTime, _ = ParseTimeOfDay(*r.EndTime)
	}
	if r.Breaks != nil {
		s.Breaks, _ = parseBreaks(*r.Breaks)
	}
	if r.WorkingDays != nil {
		s.WorkingDays = toWeekdays(*r.WorkingDays)
	}
	if r.Flexibility != nil {
		s.Flexibility = *r.Flexibility
	}
	if r.Overtime != nil {
		s.Overtime = *r.Overtime
	}
	if r.Location != nil {
		s.Location = *r.Location
		if s.Location.WorkMode == "" {
			s.Location.WorkMode = WorkModeOffice
		}
	}
	if r.HolidayPolicy != nil {
		s.HolidayPolicy = *r.HolidayPolicy
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}

	errs = append(errs, s.Validate()...)
	if len(errs) > 0 {
		return Shift{}, errs
	}
	return s, nil
}

type ShiftFilter struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"` // code or name

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // code, name, start_time, created_at
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *ShiftFilter) Validate() error {
	var errs validator.ValidationErrors
	validatePage(&f.Page, &f.Limit, &errs)

	if f.SortBy == "" {
		f.SortBy = "code"
	}
	if !validator.IsInSlice(f.SortBy, []string{"code", "name", "start_time", "created_at"}) {
		errs.Add("sort_by", "sort_by must be one of code, name, start_time, created_at")
	}
	validateSortOrder(&f.SortOrder, &errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftResponse struct {
	ID                  string          `json:"id"`
	CompanyID           string          `json:"company_id"`
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	Description         *string         `json:"description,omitempty"`
	StartTime           string          `json:"start_time"`
	EndTime             string          `json:"end_time"`
	IsOvernight         bool            `json:"is_overnight"`
	Breaks              []Break         `json:"breaks"`
	WorkingDays         []Weekday       `json:"working_days"`
	Flexibility         Flexibility     `json:"flexibility"`
	Overtime            Overtime        `json:"overtime"`
	Location            Location        `json:"location"`
	HolidayPolicy       HolidayPolicy   `json:"holiday_policy"`
	TotalBreakMinutes   int             `json:"total_break_minutes"`
	TotalWorkingMinutes int             `json:"total_working_minutes"`
	TotalWorkingHours   decimal.Decimal `json:"total_working_hours"`
	IsActive            bool            `json:"is_active"`
	IsDefault           bool            `json:"is_default"`
	CreatedBy           string          `json:"created_by"`
	UpdatedBy           *string         `json:"updated_by,omitempty"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

type ListShiftResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Shifts     []ShiftResponse `json:"shifts"`
}

// ==================== ASSIGNMENTS ====================

type CustomSettingsRequest struct {
	StartTime   *string         `json:"start_time,omitempty"`
	EndTime     *string         `json:"end_time,omitempty"`
	Breaks      *[]BreakRequest `json:"breaks,omitempty"`
	WorkingDays []int           `json:"working_days,omitempty"`
	Flexibility *Flexibility    `json:"flexibility,omitempty"`
}

func (r *CustomSettingsRequest) parse() (*CustomSettings, validator.ValidationErrors) {
	if r == nil {
		return nil, nil
	}
	var errs validator.ValidationErrors
	cs := &CustomSettings{Flexibility: r.Flexibility}
	if r.StartTime != nil {
		if t, ok := parseTimeField(*r.StartTime, "start_time", &errs); ok {
			cs.StartTime = &t
		}
	}
	if r.EndTime != nil {
		if t, ok := parseTimeField(*r.EndTime, "end_time", &errs); ok {
			cs.EndTime = &t
		}
	}
	if r.Breaks != nil {
		breaks, breakErrs := parseBreaks(*r.Breaks)
		errs = append(errs, breakErrs...)
		if breaks == nil {
			breaks = []Break{}
		}
		cs.Breaks = breaks
	}
	if r.WorkingDays != nil {
		cs.WorkingDays = toWeekdays(r.WorkingDays)
		errs = append(errs, validateWorkingDays(cs.WorkingDays, "working_days")...)
	}
	if r.Flexibility != nil {
		errs = append(errs, r.Flexibility.Validate()...)
	}
	return cs, errs.Prefixed("custom_settings")
}

type AssignShiftRequest struct {
	EmployeeID     string                 `json:"employee_id"`
	ShiftID        string                 `json:"shift_id"`
	EffectiveFrom  *string                `json:"effective_from,omitempty"`
	EffectiveTo    *string                `json:"effective_to,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	Notes          *string                `json:"notes,omitempty"`
	CustomSettings *CustomSettingsRequest `json:"custom_settings,omitempty"`

	// From the Idempotency-Key header.
	IdempotencyKey string `json:"-"`

	from           *time.Time
	to             *time.Time
	customSettings *CustomSettings
}

func (r *AssignShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	r.ShiftID = strings.TrimSpace(r.ShiftID)
	if r.EmployeeID == "" {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.ShiftID == "" {
		errs.Add("shift_id", "shift_id is required")
	}

	r.from = parseInstantField(r.EffectiveFrom, "effective_from", &errs)
	r.to = parseInstantField(r.EffectiveTo, "effective_to", &errs)
	if r.from != nil && r.to != nil && !r.from.Before(*r.to) {
		errs.Add("effective_to", "effective_to must be after effective_from")
	}

	if r.Reason == "" {
		r.Reason = string(ReasonInitialAssignment)
	}
	if !validator.IsInSlice(r.Reason, validReasons) {
		errs.Add("reason", "reason must be one of "+strings.Join(validReasons, ", "))
	}
	if len(r.IdempotencyKey) > 128 {
		errs.Add("idempotency_key", "idempotency key must be at most 128 characters")
	}

	cs, csErrs := r.CustomSettings.parse()
	errs = append(errs, csErrs...)
	r.customSettings = cs

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Window returns the parsed effective_from and effective_to. Only meaningful
// after Validate succeeded.
func (r *AssignShiftRequest) Window() (from *time.Time, to *time.Time) {
	return r.from, r.to
}

// ParsedCustomSettings is nil when no override was sent.
func (r *AssignShiftRequest) ParsedCustomSettings() *CustomSettings {
	return r.customSettings
}

type BulkAssignRequest struct {
	EmployeeIDs   []string `json:"employee_ids"`
	ShiftID       string   `json:"shift_id"`
	EffectiveFrom *string  `json:"effective_from,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

func (r *BulkAssignRequest) Validate(maxBatch int) error {
	var errs validator.ValidationErrors
	if len(r.EmployeeIDs) == 0 {
		errs.Add("employee_ids", "at least one employee id is required")
	}
	if maxBatch > 0 && len(r.EmployeeIDs) > maxBatch {
		errs.Add("employee_ids", "at most "+validator.Itoa(maxBatch)+" employees per request")
	}
	if validator.IsEmpty(r.ShiftID) {
		errs.Add("shift_id", "shift_id is required")
	}
	parseInstantField(r.EffectiveFrom, "effective_from", &errs)
	if r.Reason == "" {
		r.Reason = string(ReasonOperationalRequirement)
	}
	if !validator.IsInSlice(r.Reason, validReasons) {
		errs.Add("reason", "reason must be one of "+strings.Join(validReasons, ", "))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ForEmployee builds the single-assignment request the bulk fan-out runs.
func (r BulkAssignRequest) ForEmployee(employeeID string) AssignShiftRequest {
	return AssignShiftRequest{
		EmployeeID:    employeeID,
		ShiftID:       r.ShiftID,
		EffectiveFrom: r.EffectiveFrom,
		Reason:        r.Reason,
		Notes:         r.Notes,
	}
}

type RejectAssignmentRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "assignment id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "a rejection reason is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentFilter struct {
	ActiveOnly     bool    `json:"active_only"`
	ShiftID        *string `json:"shift_id,omitempty"`
	DepartmentID   *string `json:"department_id,omitempty"`
	EmployeeID     *string `json:"employee_id,omitempty"`
	ApprovalStatus *string `json:"approval_status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AssignmentFilter) Validate() error {
	var errs validator.ValidationErrors
	validatePage(&f.Page, &f.Limit, &errs)
	if f.ApprovalStatus != nil && !validator.IsInSlice(*f.ApprovalStatus, []string{
		string(ApprovalPending), string(ApprovalApproved), string(ApprovalRejected), string(ApprovalSuperseded),
	}) {
		errs.Add("approval_status", "approval_status must be one of pending, approved, rejected, superseded")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EffectiveShiftQuery struct {
	EmployeeID string
	AsOf       *string
	Latitude   *float64
	Longitude  *float64
}

func (q *EffectiveShiftQuery) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(q.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	parseInstantField(q.AsOf, "as_of", &errs)
	if (q.Latitude == nil) != (q.Longitude == nil) {
		errs.Add("lat", "lat and lng must be sent together")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	EmployeeCode    string          `json:"employee_code,omitempty"`
	ShiftID         string          `json:"shift_id"`
	ShiftCode       string          `json:"shift_code,omitempty"`
	ShiftName       string          `json:"shift_name,omitempty"`
	EffectiveFrom   string          `json:"effective_from"`
	EffectiveTo     *string         `json:"effective_to"`
	State           StateKind       `json:"state"`
	ClosedAt        *string         `json:"closed_at,omitempty"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	Reason          string          `json:"reason"`
	Notes           *string         `json:"notes,omitempty"`
	CustomSettings  *CustomSettings `json:"custom_settings,omitempty"`
	CreatedBy       string          `json:"created_by"`
	UpdatedBy       *string         `json:"updated_by,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type ListAssignmentResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Assignments []AssignmentResponse `json:"assignments"`
}

type AssignmentHistoryResponse struct {
	EmployeeID  string               `json:"employee_id"`
	Assignments []AssignmentResponse `json:"assignments"`
}

type EmployeesOnShiftResponse struct {
	ShiftID     string               `json:"shift_id"`
	ActiveOnly  bool                 `json:"active_only"`
	Count       int                  `json:"count"`
	Assignments []AssignmentResponse `json:"assignments"`
}

type BulkAssignError struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type BulkAssignResponse struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Results   []AssignmentResponse `json:"results"`
	Errors    []BulkAssignError    `json:"errors"`
}

type EffectiveShiftResponse struct {
	EmployeeID     string        `json:"employee_id"`
	AsOf           string        `json:"as_of"`
	Source         string        `json:"source"` // assignment, default
	AssignmentID   *string       `json:"assignment_id,omitempty"`
	Shift          ShiftResponse `json:"shift"`
	IsWorkingDay   bool          `json:"is_working_day"`
	WindowStart    string        `json:"window_start"`
	WindowEnd      string        `json:"window_end"`
	WithinGeofence *bool         `json:"within_geofence,omitempty"`
}

// ==================== HELPERS ====================

func parseTimeField(value, field string, errs *validator.ValidationErrors) (TimeOfDay, bool) {
	if validator.IsEmpty(value) {
		errs.Add(field, field+" is required")
		return 0, false
	}
	if !validator.IsValidTime(value) {
		errs.Add(field, "invalid time format, use HH:MM")
		return 0, false
	}
	t, _ := ParseTimeOfDay(value)
	return t, true
}

func parseBreaks(reqs []BreakRequest) ([]Break, validator.ValidationErrors) {
	var errs validator.ValidationErrors
	if len(reqs) == 0 {
		return nil, nil
	}
	breaks := make([]Break, 0, len(reqs))
	for i, br := range reqs {
		b := Break{
			Name:            strings.TrimSpace(br.Name),
			DurationMinutes: br.DurationMinutes,
			IsPaid:          br.IsPaid,
			IsFlexible:      br.IsFlexible,
		}
		if br.StartTime != nil {
			if t, ok := parseTimeField(*br.StartTime, "breaks["+validator.Itoa(i)+"].start_time", &errs); ok {
				b.StartTime = &t
			}
		} else if !br.IsFlexible {
			errs.Add("breaks["+validator.Itoa(i)+"].start_time", "fixed breaks need a start_time")
		}
		breaks = append(breaks, b)
	}
	return breaks, errs
}

func parseInstantField(value *string, field string, errs *validator.ValidationErrors) *time.Time {
	if value == nil || validator.IsEmpty(*value) {
		return nil
	}
	t, ok := validator.ParseInstant(*value)
	if !ok {
		errs.Add(field, "invalid date format, use YYYY-MM-DD or RFC3339")
		return nil
	}
	return &t
}

// ParseAsOf reads an optional as_of value, defaulting to now.
func ParseAsOf(value *string, now time.Time) (time.Time, error) {
	var errs validator.ValidationErrors
	t := parseInstantField(value, "as_of", &errs)
	if len(errs) > 0 {
		return time.Time{}, errs
	}
	if t == nil {
		return now, nil
	}
	return *t, nil
}

func toWeekdays(days []int) []Weekday {
	if days == nil {
		return nil
	}
	out := make([]Weekday, len(days))
	for i, d := range days {
		out[i] = Weekday(d)
	}
	return out
}

func validatePage(page, limit *int, errs *validator.ValidationErrors) {
	if *page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if *page == 0 {
		*page = 1 // Default page
	}
	if *limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if *limit == 0 {
		*limit = 20 // Default limit
	}
	if *limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
}

func validateSortOrder(order *string, errs *validator.ValidationErrors) {
	if *order == "" {
		*order = "asc"
	}
	*order = strings.ToLower(*order)
	if *order != "asc" && *order != "desc" {
		errs.Add("sort_order", "sort_order must be asc or desc")
	}
}
