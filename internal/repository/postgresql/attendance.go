package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.HoursResolver {
	return &attendanceRepository{db: db}
}

// ListByEmployeePeriod returns the employee's sessions dated inside the period.
func (a *attendanceRepository) ListByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, company_id, date, clock_in, clock_out,
			   work_hours_in_minutes, overtime_minutes, status, created_at, updated_at
		FROM attendances
		WHERE company_id = $1 AND employee_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID, employeeID, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		if err := rows.Scan(
			&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date, &att.ClockIn, &att.ClockOut,
			&att.WorkHoursInMinutes, &att.OvertimeMinutes, &att.Status, &att.CreatedAt, &att.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		sessions = append(sessions, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return sessions, nil
}

// HoursWorked implements attendance.HoursResolver.
func (a *attendanceRepository) HoursWorked(ctx context.Context, companyID string, employeeID string, p period.Period) (decimal.Decimal, error) {
	sessions, err := a.ListByEmployeePeriod(ctx, companyID, employeeID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return attendance.TotalHours(sessions), nil
}
