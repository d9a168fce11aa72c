package shift

import (
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type Shift struct {
	ID            string
	CompanyID     string
	Code          string
	Name          string
	Description   *string
	StartTime     TimeOfDay
	EndTime       TimeOfDay
	Breaks        []Break
	WorkingDays   []Weekday
	Flexibility   Flexibility
	Overtime      Overtime
	Location      Location
	HolidayPolicy HolidayPolicy
	IsActive      bool
	CreatedBy     string
	UpdatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time

	// Resolved from the company's shift settings, not stored on the row.
	IsDefault bool
}

type Break struct {
	Name            string     `json:"name"`
	StartTime       *TimeOfDay `json:"start_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsPaid          bool       `json:"is_paid"`
	IsFlexible      bool       `json:"is_flexible"`
}

// Weekday uses ISO numbering: 1 is Monday, 7 is Sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

type Flexibility struct {
	AllowEarlyCheckIn    bool `json:"allow_early_check_in"`
	EarlyCheckInMinutes  int  `json:"early_check_in_minutes"`
	AllowLateCheckIn     bool `json:"allow_late_check_in"`
	LateCheckInMinutes   int  `json:"late_check_in_minutes"`
	AllowEarlyCheckOut   bool `json:"allow_early_check_out"`
	EarlyCheckOutMinutes int  `json:"early_check_out_minutes"`
	AllowLateCheckOut    bool `json:"allow_late_check_out"`
	LateCheckOutMinutes  int  `json:"late_check_out_minutes"`
	FlexibleBreaks       bool `json:"flexible_breaks"`
}

type Overtime struct {
	Enabled              bool            `json:"enabled"`
	DailyThresholdHours  decimal.Decimal `json:"daily_threshold_hours"`
	WeeklyThresholdHours decimal.Decimal `json:"weekly_threshold_hours"`
	RateMultiplier       decimal.Decimal `json:"rate_multiplier"`
	RequiresApproval     bool            `json:"requires_approval"`
}

type WorkMode string

const (
	WorkModeOffice WorkMode = "office"
	WorkModeRemote WorkMode = "remote"
	WorkModeHybrid WorkMode = "hybrid"
	WorkModeField  WorkMode = "field"
)

func (m WorkMode) Valid() bool {
	switch m {
	case WorkModeOffice, WorkModeRemote, WorkModeHybrid, WorkModeField:
		return true
	}
	return false
}

type Location struct {
	WorkMode WorkMode  `json:"work_mode"`
	Geofence *Geofence `json:"geofence,omitempty"`
}

type Geofence struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"radius_meters"`
}

// Contains reports whether the coordinate lies inside the fence.
func (g Geofence) Contains(lat, lng float64) bool {
	return utils.CalculateHaversineDistance(g.Latitude, g.Longitude, lat, lng) <= float64(g.RadiusMeters)
}

// HolidayPolicy decides non-working days. PublicHolidaysOff is carried for
// consumers that own the public holiday calendar, such as attendance; WorksOn
// does not read it.
type HolidayPolicy struct {
	WeekendsOff       bool            `json:"weekends_off"`
	PublicHolidaysOff bool            `json:"public_holidays_off"`
	CustomHolidays    []CustomHoliday `json:"custom_holidays,omitempty"`
}

// CustomHoliday dates are "YYYY-MM-DD". Recurring holidays match the same
// month and day every year.
type CustomHoliday struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

func (h CustomHoliday) Matches(day time.Time) bool {
	d, ok := validator.IsValidDate(h.Date)
	if !ok {
		return false
	}
	if h.Recurring {
		return d.Month() == day.Month() && d.Day() == day.Day()
	}
	y, m, dd := day.Date()
	return d.Year() == y && d.Month() == m && d.Day() == dd
}

// WindowMinutes is the wall-clock length of the shift, overnight aware.
func (s Shift) WindowMinutes() int {
	return WindowMinutes(s.StartTime, s.EndTime)
}

func (s Shift) IsOvernight() bool {
	return s.EndTime <= s.StartTime
}

func (s Shift) TotalBreakMinutes() int {
	total := 0
	for _, b := range s.Breaks {
		total += b.DurationMinutes
	}
	return total
}

func (s Shift) UnpaidBreakMinutes() int {
	total := 0
	for _, b := range s.Breaks {
		if !b.IsPaid {
			total += b.DurationMinutes
		}
	}
	return total
}

// TotalWorkingMinutes counts paid time: the window minus unpaid breaks.
func (s Shift) TotalWorkingMinutes() int {
	return s.WindowMinutes() - s.UnpaidBreakMinutes()
}

func (s Shift) TotalWorkingHours() decimal.Decimal {
	return decimal.NewFromInt(int64(s.TotalWorkingMinutes())).Div(decimal.NewFromInt(60)).Round(2)
}

// WindowOn returns the concrete start and end instants for a shift starting
// on the calendar day of d.
func (s Shift) WindowOn(d time.Time) (time.Time, time.Time) {
	start := s.StartTime.On(d)
	return start, start.Add(time.Duration(s.WindowMinutes()) * time.Minute)
}

// WorksOn reports whether day is a working day under this shift, from the
// working days, weekends and custom holidays only. Public holidays are not
// known here.
func (s Shift) WorksOn(day time.Time) bool {
	wd := WeekdayOf(day)
	if s.HolidayPolicy.WeekendsOff && (wd == Saturday || wd == Sunday) {
		return false
	}
	for _, h := range s.HolidayPolicy.CustomHolidays {
		if h.Matches(day) {
			return false
		}
	}
	for _, d := range s.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// ValidateTiming checks a window and its breaks. Used for shift definitions
// and again for per-assignment overrides after merging.
func ValidateTiming(start, end TimeOfDay, breaks []Break) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if start == end {
		errs.Add("end_time", "end_time must differ from start_time")
		return errs
	}

	window := WindowMinutes(start, end)
	total := 0
	for i, b := range breaks {
		field := "breaks[" + validator.Itoa(i) + "]"
		if validator.IsEmpty(b.Name) {
			errs.Add(field+".name", "break name is required")
		}
		if b.DurationMinutes <= 0 {
			errs.Add(field+".duration_minutes", "duration must be greater than 0")
			continue
		}
		total += b.DurationMinutes
		if b.StartTime != nil {
			if offsetFrom(start, *b.StartTime)+b.DurationMinutes > window {
				errs.Add(field+".start_time", "break must fall within the shift window")
			}
		}
	}
	if total >= window {
		errs.Add("breaks", "total break time must be shorter than the shift window")
	}
	return errs
}

// Validate checks the policy fields that don't depend on the timing.
func (o Overtime) Validate() validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !o.Enabled {
		return errs
	}
	if !o.DailyThresholdHours.IsPositive() || o.DailyThresholdHours.GreaterThan(decimal.NewFromInt(24)) {
		errs.Add("overtime.daily_threshold_hours", "must be between 0 and 24")
	}
	if !o.WeeklyThresholdHours.IsZero() && o.WeeklyThresholdHours.LessThan(o.DailyThresholdHours) {
		errs.Add("overtime.weekly_threshold_hours", "must not be less than the daily threshold")
	}
	if o.RateMultiplier.LessThan(decimal.NewFromInt(1)) {
		errs.Add("overtime.rate_multiplier", "must be at least 1")
	}
	return errs
}

func (f Flexibility) Validate() validator.ValidationErrors {
	var errs validator.ValidationErrors
	buffers := []struct {
		field   string
		allowed bool
		minutes int
	}{
		{"flexibility.early_check_in_minutes", f.AllowEarlyCheckIn, f.EarlyCheckInMinutes},
		{"flexibility.late_check_in_minutes", f.AllowLateCheckIn, f.LateCheckInMinutes},
		{"flexibility.early_check_out_minutes", f.AllowEarlyCheckOut, f.EarlyCheckOutMinutes},
		{"flexibility.late_check_out_minutes", f.AllowLateCheckOut, f.LateCheckOutMinutes},
	}
	for _, b := range buffers {
		if b.minutes < 0 || b.minutes > 240 {
			errs.Add(b.field, "must be between 0 and 240")
		} else if b.allowed && b.minutes == 0 {
			errs.Add(b.field, "must be set when the allowance is enabled")
		}
	}
	return errs
}

func (l Location) Validate() validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !l.WorkMode.Valid() {
		errs.Add("location.work_mode", "must be one of office, remote, hybrid, field")
	}
	if g := l.Geofence; g != nil {
		if g.Latitude < -90 || g.Latitude > 90 {
			errs.Add("location.geofence.latitude", "must be between -90 and 90")
		}
		if g.Longitude < -180 || g.Longitude > 180 {
			errs.Add("location.geofence.longitude", "must be between -180 and 180")
		}
		if g.RadiusMeters <= 0 || g.RadiusMeters > 10000 {
			errs.Add("location.geofence.radius_meters", "must be between 1 and 10000")
		}
	}
	return errs
}

func (h HolidayPolicy) Validate() validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, ch := range h.CustomHolidays {
		field := "holiday_policy.custom_holidays[" + validator.Itoa(i) + "]"
		if validator.IsEmpty(ch.Name) {
			errs.Add(field+".name", "holiday name is required")
		}
		if _, ok := validator.IsValidDate(ch.Date); !ok {
			errs.Add(field+".date", "invalid date format, use YYYY-MM-DD")
		}
	}
	return errs
}

func validateWorkingDays(days []Weekday, field string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if len(days) == 0 {
		errs.Add(field, "at least one working day is required")
		return errs
	}
	seen := make(map[Weekday]bool, len(days))
	for _, d := range days {
		if !d.Valid() {
			errs.Add(field, "days must be between 1 (Monday) and 7 (Sunday)")
			return errs
		}
		if seen[d] {
			errs.Add(field, "duplicate day "+validator.Itoa(int(d)))
			return errs
		}
		seen[d] = true
	}
	return errs
}

// Validate runs every rule a stored shift must satisfy.
func (s Shift) Validate() validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidShiftCode(s.Code) {
		errs.Add("code", "code must be 2-20 upper-case letters, digits, '-' or '_'")
	}
	if validator.IsEmpty(s.Name) {
		errs.Add("name", "name is required")
	}
	errs = append(errs, ValidateTiming(s.StartTime, s.EndTime, s.Breaks)...)
	errs = append(errs, validateWorkingDays(s.WorkingDays, "working_days")...)
	errs = append(errs, s.Flexibility.Validate()...)
	errs = append(errs, s.Overtime.Validate()...)
	errs = append(errs, s.Location.Validate()...)
	errs = append(errs, s.HolidayPolicy.Validate()...)
	return errs
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	// ApprovalSuperseded marks an approved row replaced at its own start. It
	// never took effect and keeps the dates it was approved with.
	ApprovalSuperseded ApprovalStatus = "superseded"
)

type AssignmentReason string

const (
	ReasonInitialAssignment      AssignmentReason = "initial_assignment"
	ReasonPromotion              AssignmentReason = "promotion"
	ReasonDepartmentChange       AssignmentReason = "department_change"
	ReasonEmployeeRequest        AssignmentReason = "employee_request"
	ReasonDisciplinary           AssignmentReason = "disciplinary"
	ReasonOperationalRequirement AssignmentReason = "operational_requirement"
	ReasonOther                  AssignmentReason = "other"
)

var validReasons = []string{
	string(ReasonInitialAssignment),
	string(ReasonPromotion),
	string(ReasonDepartmentChange),
	string(ReasonEmployeeRequest),
	string(ReasonDisciplinary),
	string(ReasonOperationalRequirement),
	string(ReasonOther),
}

// CustomSettings overrides parts of a shift for one employee. Nil fields
// inherit from the shift.
type CustomSettings struct {
	StartTime   *TimeOfDay   `json:"start_time,omitempty"`
	EndTime     *TimeOfDay   `json:"end_time,omitempty"`
	Breaks      []Break      `json:"breaks"` // nil inherits, empty removes all breaks
	WorkingDays []Weekday    `json:"working_days,omitempty"`
	Flexibility *Flexibility `json:"flexibility,omitempty"`
}

// Apply returns s with the overrides merged in.
func (c *CustomSettings) Apply(s Shift) Shift {
	if c == nil {
		return s
	}
	if c.StartTime != nil {
		s.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		s.EndTime = *c.EndTime
	}
	if c.Breaks != nil {
		s.Breaks = c.Breaks
	}
	if c.WorkingDays != nil {
		s.WorkingDays = c.WorkingDays
	}
	if c.Flexibility != nil {
		s.Flexibility = *c.Flexibility
	}
	return s
}

type Assignment struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	ShiftID         string
	EffectiveFrom   time.Time
	EffectiveTo     *time.Time
	CustomSettings  *CustomSettings
	ApprovalStatus  ApprovalStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	Reason          AssignmentReason
	Notes           *string
	CreatedBy       string
	UpdatedBy       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// LegacyActive is the pre-approval-workflow is_active column. Nil on
	// every row written by this service.
	LegacyActive *bool

	// DTO / Join
	ShiftCode    string
	ShiftName    string
	EmployeeName string
	EmployeeCode string
	DepartmentID *string
}
