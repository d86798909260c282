package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Calendar 判断某天是否按周末（含法定节假日）的人力需求排班
type Calendar struct {
	holidays map[string]struct{}
}

func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(dateLayout)] = struct{}{}
	}
	return c
}

// ParseHolidays 解析以逗号分隔的日期列表，如 "2025-01-01,2025-10-01"
func ParseHolidays(s string) ([]time.Time, error) {
	holidays := make([]time.Time, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse(dateLayout, part)
		if err != nil {
			return nil, fmt.Errorf("节假日 %q 格式错误: %w", part, err)
		}
		holidays = append(holidays, t)
	}
	return holidays, nil
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format(dateLayout)]
	return ok
}

func (c *Calendar) IsWeekend(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return true
	}
	return c.IsHoliday(t)
}
