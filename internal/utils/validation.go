package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func ValidateRule(rule *domain.Rule) error {
	if rule == nil {
		return errors.New("排班规则不存在")
	}

	counts := []int{rule.WeekdayDay, rule.WeekdayEvening, rule.WeekdayNight, rule.WeekendDay, rule.WeekendEvening, rule.WeekendNight}
	for _, c := range counts {
		if c < 0 {
			return errors.New("每日需求人数不能为负数")
		}
	}

	if rule.MaxConsecutiveShift < 1 {
		return errors.New("最大连续上班天数至少为 1")
	}
	if rule.MinNightRun < 1 {
		return errors.New("最少连续夜班天数至少为 1")
	}
	if rule.MaxNightRun < rule.MinNightRun {
		return fmt.Errorf("最多连续夜班天数 %d 不能小于最少连续夜班天数 %d", rule.MaxNightRun, rule.MinNightRun)
	}
	if rule.MaxNightRun > rule.MaxConsecutiveShift {
		return fmt.Errorf("最多连续夜班天数 %d 不能大于最大连续上班天数 %d", rule.MaxNightRun, rule.MaxConsecutiveShift)
	}
	if rule.OffDaysAfterNightRun < 0 || rule.OffDaysAfterMaxShift < 0 {
		return errors.New("休息天数不能为负数")
	}

	return nil
}

// ValidateSnapshotShape 检查每一行的长度是否等于当月天数、班次代码是否合法、护士是否重复
func ValidateSnapshotShape(snapshot *domain.ScheduleSnapshot) error {
	if snapshot.Month < 1 || snapshot.Month > 12 {
		return fmt.Errorf("月份 %d 不合法", snapshot.Month)
	}

	days := domain.DaysIn(snapshot.Year, snapshot.Month)
	seen := make(map[int64]bool)

	for _, row := range snapshot.Rows {
		if seen[row.NurseID] {
			return fmt.Errorf("护士 %d 在排班中重复出现", row.NurseID)
		}
		seen[row.NurseID] = true

		if len(row.Shifts) != days {
			return fmt.Errorf("护士 %d 的排班长度 %d 与当月天数 %d 不一致", row.NurseID, len(row.Shifts), days)
		}
		if _, err := domain.ParseShifts(row.Shifts); err != nil {
			return fmt.Errorf("护士 %d 的排班: %w", row.NurseID, err)
		}
	}

	return nil
}

// ValidateSnapshotWithRoster 检查名单中每个护士的排班都在其班次能力之内
func ValidateSnapshotWithRoster(snapshot *domain.ScheduleSnapshot, nurses []*domain.Nurse) error {
	if err := ValidateSnapshotShape(snapshot); err != nil {
		return err
	}

	for _, nurse := range nurses {
		row, ok := snapshot.RowOf(nurse.ID)
		if !ok {
			return fmt.Errorf("护士 %d 没有排班结果", nurse.ID)
		}

		for d := 0; d < len(row); d++ {
			k := domain.ShiftKind(row[d])
			if k.IsWork() && !nurse.Capability.Has(k) {
				return fmt.Errorf("护士 %d 第 %d 天被安排了无法胜任的班次 %s", nurse.ID, d+1, k)
			}
		}
	}

	return nil
}

// ParseYearMonth 解析形如 "2025-03" 的年月
func ParseYearMonth(s string) (int, int, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("年月 %q 格式错误", s)
	}
	return t.Year(), int(t.Month()), nil
}
