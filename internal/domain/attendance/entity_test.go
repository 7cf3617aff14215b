package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalHours(t *testing.T) {
	now := time.Now()
	minutes := func(m int) *int { return &m }

	sessions := []Attendance{
		{ClockOut: &now, WorkHoursInMinutes: minutes(480)},
		{ClockOut: &now, WorkHoursInMinutes: minutes(450)},
		{ClockOut: nil, WorkHoursInMinutes: minutes(300)}, // still open
		{ClockOut: &now, WorkHoursInMinutes: nil},
		{ClockOut: &now, WorkHoursInMinutes: minutes(20)},
	}

	assert.Equal(t, "15.83", TotalHours(sessions).StringFixed(2))
	assert.True(t, TotalHours(nil).IsZero())
}
