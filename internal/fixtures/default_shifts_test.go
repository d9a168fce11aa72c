package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultShifts_AreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, req := range GetDefaultShifts() {
		s, err := req.ToShift()
		require.NoError(t, err, req.Code)
		assert.False(t, seen[s.Code], "duplicate code %s", s.Code)
		seen[s.Code] = true
		assert.True(t, s.TotalWorkingHours().IsPositive(), s.Code)
	}
	assert.True(t, seen[DefaultShiftCode])
}

func TestGetNightShift_Overnight(t *testing.T) {
	req := GetNightShift()
	s, err := req.ToShift()
	require.NoError(t, err)
	assert.True(t, s.IsOvernight())
	assert.Equal(t, "7", s.TotalWorkingHours().String())
}

func TestGetDemoEmployees(t *testing.T) {
	codes := map[string]bool{}
	assignable := 0
	for _, e := range GetDemoEmployees() {
		assert.Equal(t, DemoCompanyID, e.CompanyID)
		assert.False(t, codes[e.EmployeeCode], "duplicate code %s", e.EmployeeCode)
		codes[e.EmployeeCode] = true
		if e.IsAssignable() {
			assignable++
		}
	}
	assert.Equal(t, 3, assignable)
}
