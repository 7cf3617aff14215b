package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidSalaryType = errors.New("salary type must be Salaried or Hourly")
	ErrEmployeeNotActive = errors.New("employee is not active")
)
