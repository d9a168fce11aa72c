package user

import "errors"

var (
	ErrCompanyIDRequired = errors.New("company ID is required")
)
