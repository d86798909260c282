package domain

import "time"

// Rule 病区的排班规则，排班过程中不会被修改
type Rule struct {
	WardID               int64     `json:"wardID"`
	WeekdayDay           int       `json:"weekdayDay"`
	WeekdayEvening       int       `json:"weekdayEvening"`
	WeekdayNight         int       `json:"weekdayNight"`
	WeekendDay           int       `json:"weekendDay"`
	WeekendEvening       int       `json:"weekendEvening"`
	WeekendNight         int       `json:"weekendNight"`
	MaxConsecutiveShift  int       `json:"maxConsecutiveShift"`
	MaxNightRun          int       `json:"maxNightRun"`
	MinNightRun          int       `json:"minNightRun"`
	OffDaysAfterNightRun int       `json:"offDaysAfterNightRun"`
	OffDaysAfterMaxShift int       `json:"offDaysAfterMaxShift"`
	UpdatedAt            time.Time `json:"updatedAt"`
	Version              int32     `json:"-"`
}
