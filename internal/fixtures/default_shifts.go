package fixtures

import (
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

var weekdays = []int{1, 2, 3, 4, 5}

// DefaultShiftCode is the shift a seeded company points its default at.
const DefaultShiftCode = "GEN9"

func standardOvertime() shift.Overtime {
	return shift.Overtime{
		Enabled:              true,
		DailyThresholdHours:  decimal.NewFromInt(8),
		WeeklyThresholdHours: decimal.NewFromInt(40),
		RateMultiplier:       decimal.RequireFromString("1.5"),
		RequiresApproval:     true,
	}
}

// GetDefaultShifts returns the catalog seeded for a new company. Requests go
// through the same validation as user input.
func GetDefaultShifts() []shift.CreateShiftRequest {
	return []shift.CreateShiftRequest{
		GetGeneralShift(),
		GetAfternoonShift(),
		GetNightShift(),
		GetFlexibleShift(),
	}
}

// ==========================================
// GENERAL SHIFT
// ==========================================

// GetGeneralShift returns standard office hours (Mon-Fri 09:00-18:00)
func GetGeneralShift() shift.CreateShiftRequest {
	return shift.CreateShiftRequest{
		Code:        DefaultShiftCode,
		Name:        "General Shift",
		Description: strPtr("Standard office hours"),
		StartTime:   "09:00",
		EndTime:     "18:00",
		Breaks: []shift.BreakRequest{
			{Name: "Lunch", StartTime: strPtr("12:00"), DurationMinutes: 60},
		},
		WorkingDays: weekdays,
		Flexibility: shift.Flexibility{
			AllowLateCheckIn:   true,
			LateCheckInMinutes: 15, // grace period
		},
		Overtime:      standardOvertime(),
		Location:      shift.Location{WorkMode: shift.WorkModeOffice},
		HolidayPolicy: shift.HolidayPolicy{WeekendsOff: true, PublicHolidaysOff: true},
	}
}

// ==========================================
// AFTERNOON/SECOND SHIFT
// ==========================================

// GetAfternoonShift returns afternoon hours (Mon-Fri 14:00-22:00)
func GetAfternoonShift() shift.CreateShiftRequest {
	return shift.CreateShiftRequest{
		Code:      "AFTERNOON",
		Name:      "Afternoon Shift",
		StartTime: "14:00",
		EndTime:   "22:00",
		Breaks: []shift.BreakRequest{
			{Name: "Dinner", StartTime: strPtr("18:00"), DurationMinutes: 30},
		},
		WorkingDays: weekdays,
		Flexibility: shift.Flexibility{
			AllowLateCheckIn:   true,
			LateCheckInMinutes: 15,
		},
		Overtime:      standardOvertime(),
		Location:      shift.Location{WorkMode: shift.WorkModeOffice},
		HolidayPolicy: shift.HolidayPolicy{WeekendsOff: true, PublicHolidaysOff: true},
	}
}

// ==========================================
// NIGHT/OVERNIGHT SHIFT
// ==========================================

// GetNightShift returns overnight hours (Mon-Fri 22:00-06:00 next day)
func GetNightShift() shift.CreateShiftRequest {
	return shift.CreateShiftRequest{
		Code:      "NIGHT",
		Name:      "Night Shift",
		StartTime: "22:00",
		EndTime:   "06:00",
		Breaks: []shift.BreakRequest{
			// 01:00 next day
			{Name: "Meal", StartTime: strPtr("01:00"), DurationMinutes: 60},
		},
		WorkingDays: weekdays,
		Flexibility: shift.Flexibility{
			AllowLateCheckIn:   true,
			LateCheckInMinutes: 15,
		},
		Overtime: standardOvertime(),
		Location: shift.Location{WorkMode: shift.WorkModeOffice},
	}
}

// ==========================================
// FLEXIBLE/REMOTE SHIFT
// ==========================================

// GetFlexibleShift returns a remote shift with wide check-in buffers
func GetFlexibleShift() shift.CreateShiftRequest {
	return shift.CreateShiftRequest{
		Code:      "FLEX",
		Name:      "Flexible Hours (Remote)",
		StartTime: "08:00",
		EndTime:   "17:00",
		Breaks: []shift.BreakRequest{
			{Name: "Break", DurationMinutes: 60, IsFlexible: true},
		},
		WorkingDays: weekdays,
		Flexibility: shift.Flexibility{
			AllowEarlyCheckIn:    true,
			EarlyCheckInMinutes:  120,
			AllowLateCheckIn:     true,
			LateCheckInMinutes:   120,
			AllowEarlyCheckOut:   true,
			EarlyCheckOutMinutes: 120,
			AllowLateCheckOut:    true,
			LateCheckOutMinutes:  120,
			FlexibleBreaks:       true,
		},
		Location:      shift.Location{WorkMode: shift.WorkModeRemote},
		HolidayPolicy: shift.HolidayPolicy{WeekendsOff: true, PublicHolidaysOff: true},
	}
}
