package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the payroll engine's read-only view of a directory entry.
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	Department       *string
	SalaryType       SalaryType
	BaseSalary       *decimal.Decimal
	HourlyRate       *decimal.Decimal
	Currency         string
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	ResignationDate  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type SalaryType string

const (
	SalaryTypeSalaried SalaryType = "Salaried"
	SalaryTypeHourly   SalaryType = "Hourly"
)

func (s SalaryType) IsValid() bool {
	return s == SalaryTypeSalaried || s == SalaryTypeHourly
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

const DefaultCurrency = "JMD"

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

func (e Employee) IsHourly() bool {
	return e.SalaryType == SalaryTypeHourly
}

// PayRate returns the authoritative pay field for the salary type: the
// monthly base for salaried staff, the hourly rate otherwise. A missing
// field reads as zero.
func (e Employee) PayRate() decimal.Decimal {
	field := e.BaseSalary
	if e.IsHourly() {
		field = e.HourlyRate
	}
	if field == nil {
		return decimal.Zero
	}
	return *field
}
