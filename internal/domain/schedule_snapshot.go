package domain

import "time"

const HistoryTagAutoGenerated = "auto-generated"

type ScheduleSnapshotRow struct {
	NurseID int64  `json:"nurseID"`
	Shifts  string `json:"shifts"` // 长度等于当月天数
}

// ScheduleSnapshot 某个病区某个月的一个排班版本
type ScheduleSnapshot struct {
	ID         int64                 `json:"id"`
	WardID     int64                 `json:"wardID"`
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	Version    int32                 `json:"version"`
	HistoryTag string                `json:"historyTag"`
	CreatedBy  *int64                `json:"createdBy"`
	Rows       []ScheduleSnapshotRow `json:"rows"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// RowOf 返回某个护士的排班，不存在时第二个返回值为 false
func (s *ScheduleSnapshot) RowOf(nurseID int64) (string, bool) {
	for _, row := range s.Rows {
		if row.NurseID == nurseID {
			return row.Shifts, true
		}
	}
	return "", false
}

// DaysIn 返回某年某月的天数
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PreviousMonth 返回上一个月的年份和月份
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}
