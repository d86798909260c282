package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWeekend(t *testing.T) {
	holidays, err := ParseHolidays("2025-10-01, 2025-10-02,")
	require.NoError(t, err)
	require.Len(t, holidays, 2)

	c := New(holidays)
	assert.True(t, c.IsWeekend(date(2025, 10, 1)))  // 周三，国庆
	assert.True(t, c.IsWeekend(date(2025, 10, 4)))  // 周六
	assert.True(t, c.IsWeekend(date(2025, 10, 5)))  // 周日
	assert.False(t, c.IsWeekend(date(2025, 10, 6))) // 周一
	assert.False(t, c.IsHoliday(date(2025, 10, 4)))
}

func TestParseHolidaysInvalid(t *testing.T) {
	_, err := ParseHolidays("2025-13-01")
	assert.Error(t, err)

	holidays, err := ParseHolidays("")
	require.NoError(t, err)
	assert.Empty(t, holidays)
}
