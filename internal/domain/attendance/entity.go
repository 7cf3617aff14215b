package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attendance is one clocked work session. Only closed sessions carry
// WorkHoursInMinutes.
type Attendance struct {
	ID                 string
	EmployeeID         string
	CompanyID          string
	Date               time.Time
	ClockIn            *time.Time
	ClockOut           *time.Time
	WorkHoursInMinutes *int
	OvertimeMinutes    *int
	Status             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalHours sums the closed sessions' worked minutes and converts them to
// hours. Open sessions contribute nothing.
func TotalHours(sessions []Attendance) decimal.Decimal {
	minutes := 0
	for _, s := range sessions {
		if s.ClockOut == nil || s.WorkHoursInMinutes == nil {
			continue
		}
		minutes += *s.WorkHoursInMinutes
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
