package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/idempotency"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-shift-go/internal/repository/memory"
	shiftService "github.com/cmlabs-hris/hris-shift-go/internal/service/shift"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret  = "test-secret-key-for-jwt"
	handlerTestCompany = "0190f3a0-0000-7000-8000-00000000c001"
)

type testServer struct {
	router    *chi.Mux
	jwt       jwt.Service
	employees employee.EmployeeRepository
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memory.NewDB()
	svc := shiftService.NewShiftService(
		memory.NewUnitOfWork(db),
		memory.NewShiftRepository(db),
		memory.NewSettingsRepository(db),
		memory.NewAssignmentRepository(db),
		memory.NewEmployeeRepository(db),
		idempotency.NewMemoryStore(),
		shiftService.Options{BulkWorkers: 2, BulkMax: 5},
	)
	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)

	router := NewRouter(
		RouterOptions{
			Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		jwtService.JWTAuth(),
		NewShiftHandler(svc),
		NewShiftAssignmentHandler(svc),
		NewEmployeeShiftHandler(svc),
	)

	return &testServer{
		router:    router,
		jwt:       jwtService,
		employees: memory.NewEmployeeRepository(db),
	}
}

func (s *testServer) token(t *testing.T, role user.Role, employeeID string) string {
	t.Helper()
	actor := user.Actor{
		UserID:    "0190f3a0-0000-7000-8000-0000000000a1",
		CompanyID: handlerTestCompany,
		Role:      role,
	}
	if employeeID != "" {
		actor.EmployeeID = &employeeID
	}
	token, _, err := s.jwt.GenerateAccessToken(actor)
	require.NoError(t, err)
	return token
}

func (s *testServer) newEmployee(t *testing.T, code string, status employee.EmploymentStatus) string {
	t.Helper()
	e, err := s.employees.Create(context.Background(), employee.Employee{
		CompanyID:        handlerTestCompany,
		EmployeeCode:     code,
		FullName:         "Employee " + code,
		EmploymentStatus: status,
	})
	require.NoError(t, err)
	return e.ID
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) createShift(t *testing.T, token, code string) shift.ShiftResponse {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/shifts", token, map[string]interface{}{
		"code":         code,
		"name":         code + " shift",
		"start_time":   "09:00",
		"end_time":     "18:00",
		"working_days": []int{1, 2, 3, 4, 5},
		"breaks":       []map[string]interface{}{{"name": "Lunch", "duration_minutes": 60}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created shift.ShiftResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created
}

func (s *testServer) assign(t *testing.T, token, employeeID, shiftID, from string) shift.AssignmentResponse {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/shift-assignments", token, map[string]interface{}{
		"employee_id":    employeeID,
		"shift_id":       shiftID,
		"effective_from": from,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created shift.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/shifts", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, env.Success)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwt.NewJWTService("another-secret", time.Hour)
		token, _, err := other.GenerateAccessToken(user.Actor{UserID: "u", CompanyID: handlerTestCompany, Role: user.RoleOwner})
		require.NoError(t, err)

		rec, _ := s.do(t, http.MethodGet, "/api/v1/shifts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		_, token, err := s.jwt.JWTAuth().Encode(map[string]interface{}{
			"user_id":    "u",
			"company_id": handlerTestCompany,
			"role":       string(user.RoleOwner),
			"type":       "access",
			"exp":        time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)

		rec, env := s.do(t, http.MethodGet, "/api/v1/shifts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		_, token, err := s.jwt.JWTAuth().Encode(map[string]interface{}{
			"user_id": "u",
			"type":    "refresh",
		})
		require.NoError(t, err)

		rec, _ := s.do(t, http.MethodGet, "/api/v1/shifts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without company", func(t *testing.T) {
		_, token, err := s.jwt.JWTAuth().Encode(map[string]interface{}{
			"user_id": "u",
			"role":    string(user.RolePending),
			"type":    "access",
		})
		require.NoError(t, err)

		rec, _ := s.do(t, http.MethodGet, "/api/v1/shifts", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("employee cannot manage catalog", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/shifts", s.token(t, user.RoleEmployee, ""), map[string]interface{}{})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Message, string(user.PermissionShiftManage))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/nope", s.token(t, user.RoleOwner, ""), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShiftCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, user.RoleOwner, "")

	created := s.createShift(t, owner, "gen9")
	assert.Equal(t, "GEN9", created.Code)
	assert.Equal(t, 480, created.TotalWorkingMinutes)

	t.Run("duplicate code", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/shifts", owner, map[string]interface{}{
			"code": "GEN9", "name": "again", "start_time": "08:00", "end_time": "17:00",
			"working_days": []int{1},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("validation errors carry field details", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/shifts", owner, map[string]interface{}{
			"code": "X", "start_time": "25:00", "end_time": "18:00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Details, "code")
		assert.Contains(t, env.Error.Details, "start_time")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/shifts", owner, `{"code":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		employeeToken := s.token(t, user.RoleEmployee, "")

		rec, _ := s.do(t, http.MethodGet, "/api/v1/shifts/"+created.ID, employeeToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, env := s.do(t, http.MethodGet, "/api/v1/shifts?search=gen&page=1&limit=10", employeeToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list shift.ListShiftResponse
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Equal(t, int64(1), list.TotalCount)
		assert.Equal(t, "1-1 of 1 results", list.Showing)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/shifts/0190f3a0-0000-7000-8000-00000000ffff", employeeToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update and default pointer", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/shifts/default", owner, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, env := s.do(t, http.MethodPut, "/api/v1/shifts/"+created.ID, owner, map[string]interface{}{
			"name":       "General",
			"is_default": true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated shift.ShiftResponse
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		assert.Equal(t, "General", updated.Name)
		assert.True(t, updated.IsDefault)

		rec, env = s.do(t, http.MethodGet, "/api/v1/shifts/default", owner, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var def shift.ShiftResponse
		require.NoError(t, json.Unmarshal(env.Data, &def))
		assert.Equal(t, created.ID, def.ID)
	})

	t.Run("seed defaults", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/shifts/defaults", owner, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var seeded []shift.ShiftResponse
		require.NoError(t, json.Unmarshal(env.Data, &seeded))
		assert.NotEmpty(t, seeded)
	})
}

func TestDeleteShift_BlockedByAssignments(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, user.RoleOwner, "")
	emp := s.newEmployee(t, "E1", employee.EmploymentStatusActive)
	created := s.createShift(t, owner, "GEN9")
	s.assign(t, owner, emp, created.ID, "2024-01-01")

	rec, env := s.do(t, http.MethodDelete, "/api/v1/shifts/"+created.ID, owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "1", env.Error.Details["blocking_assignments"])

	rec, env = s.do(t, http.MethodGet, "/api/v1/shifts/"+created.ID+"/employees", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var onShift shift.EmployeesOnShiftResponse
	require.NoError(t, json.Unmarshal(env.Data, &onShift))
	assert.Equal(t, 1, onShift.Count)

	unused := s.createShift(t, owner, "SPARE")
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/shifts/"+unused.ID, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssignmentEndpoints(t *testing.T) {
	s := newTestServer(t)
	manager := s.token(t, user.RoleManager, "")
	owner := s.token(t, user.RoleOwner, "")
	e1 := s.newEmployee(t, "E1", employee.EmploymentStatusActive)
	e2 := s.newEmployee(t, "E2", employee.EmploymentStatusActive)
	gone := s.newEmployee(t, "E3", employee.EmploymentStatusResigned)
	gen9 := s.createShift(t, owner, "GEN9")
	night := s.createShift(t, owner, "NIGHT")

	first := s.assign(t, manager, e1, gen9.ID, "2024-01-01")
	second := s.assign(t, manager, e1, night.ID, "2024-07-01")

	t.Run("point-in-time current", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift?as_of=2024-06-01", manager, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var current shift.AssignmentResponse
		require.NoError(t, json.Unmarshal(env.Data, &current))
		assert.Equal(t, first.ID, current.ID)

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift", manager, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(env.Data, &current))
		assert.Equal(t, second.ID, current.ID)
	})

	t.Run("no assignment in force", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/employees/"+e2+"/shift", manager, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift?as_of=2023-01-01", manager, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad as_of", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift?as_of=yesterday", manager, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "as_of")
	})

	t.Run("history", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift/history", manager, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var history shift.AssignmentHistoryResponse
		require.NoError(t, json.Unmarshal(env.Data, &history))
		require.Len(t, history.Assignments, 2)
		assert.Equal(t, second.ID, history.Assignments[0].ID)

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees/"+e2+"/shift/history", manager, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(env.Data, &history))
		assert.Empty(t, history.Assignments)
	})

	t.Run("effective shift", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift/effective?as_of=2024-06-03T10:00:00Z", manager, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var eff shift.EffectiveShiftResponse
		require.NoError(t, json.Unmarshal(env.Data, &eff))
		assert.Equal(t, "assignment", eff.Source)
		assert.Equal(t, gen9.ID, eff.Shift.ID)
		assert.True(t, eff.IsWorkingDay)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift/effective?lat=abc&lng=1", manager, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation and lookup failures", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/shift-assignments", manager, map[string]interface{}{
			"employee_id": e2,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments", manager, map[string]interface{}{
			"employee_id": "0190f3a0-0000-7000-8000-00000000ffff", "shift_id": gen9.ID,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments", manager, map[string]interface{}{
			"employee_id": gone, "shift_id": gen9.ID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("employee sees only self", func(t *testing.T) {
		self := s.token(t, user.RoleEmployee, e1)

		rec, _ := s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift/history", self, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/"+e2+"/shift/history", self, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, env := s.do(t, http.MethodGet, "/api/v1/shift-assignments", self, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list shift.ListAssignmentResponse
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Equal(t, int64(2), list.TotalCount)

		rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments/bulk", self, map[string]interface{}{
			"employee_ids": []string{e1}, "shift_id": gen9.ID,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestPendingRequestApproval(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, user.RoleOwner, "")
	e1 := s.newEmployee(t, "E1", employee.EmploymentStatusActive)
	gen9 := s.createShift(t, owner, "GEN9")
	self := s.token(t, user.RoleEmployee, e1)

	rec, env := s.do(t, http.MethodPost, "/api/v1/shift-assignments", self, map[string]interface{}{
		"employee_id": e1, "shift_id": gen9.ID, "effective_from": "2024-02-01", "reason": "employee_request",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pending shift.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Equal(t, shift.ApprovalPending, pending.ApprovalStatus)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments/"+pending.ID+"/approve", self, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/shift-assignments/"+pending.ID+"/approve", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved shift.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, shift.ApprovalApproved, approved.ApprovalStatus)

	rec, env = s.do(t, http.MethodPost, "/api/v1/shift-assignments/"+pending.ID+"/approve", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments/"+pending.ID+"/reject", owner, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/shift-assignments/0190f3a0-0000-7000-8000-00000000ffff/reject", owner, map[string]interface{}{
		"reason": "no cover",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssign_IdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, user.RoleOwner, "")
	e1 := s.newEmployee(t, "E1", employee.EmploymentStatusActive)
	gen9 := s.createShift(t, owner, "GEN9")

	body := map[string]interface{}{"employee_id": e1, "shift_id": gen9.ID, "effective_from": "2024-01-01"}

	rec, env := s.do(t, http.MethodPost, "/api/v1/shift-assignments", owner, body, IdempotencyKeyHeader, "req-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first shift.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &first))

	rec, env = s.do(t, http.MethodPost, "/api/v1/shift-assignments", owner, body, IdempotencyKeyHeader, "req-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var replay shift.AssignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &replay))
	assert.Equal(t, first.ID, replay.ID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/employees/"+e1+"/shift/history", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history shift.AssignmentHistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history.Assignments, 1)
}

func TestBulkAssign_PartialFailure(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, user.RoleOwner, "")
	e1 := s.newEmployee(t, "E1", employee.EmploymentStatusActive)
	e2 := s.newEmployee(t, "E2", employee.EmploymentStatusActive)
	gen9 := s.createShift(t, owner, "GEN9")
	missing := "0190f3a0-0000-7000-8000-00000000ffff"

	rec, env := s.do(t, http.MethodPost, "/api/v1/shift-assignments/bulk", owner, map[string]interface{}{
		"employee_ids":   []string{e1, missing, e2},
		"shift_id":       gen9.ID,
		"effective_from": "2024-01-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result shift.BulkAssignResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].EmployeeID)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "not_found", result.Errors[0].Code)

	t.Run("oversized batch rejected whole", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/shift-assignments/bulk", owner, map[string]interface{}{
			"employee_ids": []string{"a", "b", "c", "d", "e", "f"},
			"shift_id":     gen9.ID,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
