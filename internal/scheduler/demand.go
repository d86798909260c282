package scheduler

import (
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// DayClassifier 判断某天是否按周末（含节假日）的人力需求排班
type DayClassifier interface {
	IsWeekend(t time.Time) bool
}

type weekendOnly struct{}

func (weekendOnly) IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// CalculateDemand 计算当月每天各班次需要的人数
// committedNight 为专职夜班护士已经承担的夜班人数（key 为从 1 开始的日期）
func CalculateDemand(rule *domain.Rule, year, month int, classifier DayClassifier, committedNight map[int]int) []DailyRequirement {
	if classifier == nil {
		classifier = weekendOnly{}
	}

	days := domain.DaysIn(year, month)
	requirements := make([]DailyRequirement, days)

	for d := 1; d <= days; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		req := DailyRequirement{
			Day:     d,
			Date:    date,
			Weekend: classifier.IsWeekend(date),
		}

		if req.Weekend {
			req.DayNeeded = rule.WeekendDay
			req.EveningNeeded = rule.WeekendEvening
			req.NightNeeded = rule.WeekendNight
		} else {
			req.DayNeeded = rule.WeekdayDay
			req.EveningNeeded = rule.WeekdayEvening
			req.NightNeeded = rule.WeekdayNight
		}
		req.NightNeeded -= committedNight[d]

		requirements[d-1] = req
	}

	return requirements
}
