package shift

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

// actorFromContext reads the caller from the verified access token.
func actorFromContext(ctx context.Context) (user.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Actor{}, fmt.Errorf("%w: %v", shift.ErrMissingActor, err)
	}

	userID, _ := claims["user_id"].(string)
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" || userID == "" {
		return user.Actor{}, shift.ErrMissingActor
	}

	role, _ := claims["role"].(string)
	actor := user.Actor{
		UserID:    userID,
		CompanyID: companyID,
		Role:      user.Role(role),
	}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		actor.EmployeeID = &employeeID
	}
	return actor, nil
}

// canView allows managers to see everyone and employees to see themselves.
func canView(actor user.Actor, employeeID string) bool {
	if actor.Can(user.PermissionShiftViewAll) {
		return true
	}
	return actor.Can(user.PermissionShiftViewOwn) && actor.IsSelf(employeeID)
}

// creationStatus decides whether a new assignment is approved outright or
// waits for a manager.
func creationStatus(actor user.Actor, employeeID string) (shift.ApprovalStatus, error) {
	if actor.Can(user.PermissionShiftAssign) {
		return shift.ApprovalApproved, nil
	}
	if actor.Can(user.PermissionShiftRequest) && actor.IsSelf(employeeID) {
		return shift.ApprovalPending, nil
	}
	return "", shift.ErrForbidden
}
