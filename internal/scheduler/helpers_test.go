package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

const (
	testYear  = 2025
	testMonth = 6 // 30 天，6 月 1 日是周日
)

// quietRule 所有需求人数为 0、没有强制休息，方便单独检查某一项分数
func quietRule() *domain.Rule {
	return &domain.Rule{
		WardID:              1,
		MaxConsecutiveShift: 5,
		MaxNightRun:         3,
		MinNightRun:         2,
	}
}

func wardRule() *domain.Rule {
	return &domain.Rule{
		WardID:               1,
		WeekdayDay:           2,
		WeekdayEvening:       2,
		WeekdayNight:         2,
		WeekendDay:           2,
		WeekendEvening:       2,
		WeekendNight:         2,
		MaxConsecutiveShift:  5,
		MaxNightRun:          3,
		MinNightRun:          2,
		OffDaysAfterNightRun: 1,
		OffDaysAfterMaxShift: 1,
	}
}

func generalNurse(id int64) *domain.Nurse {
	return &domain.Nurse{
		ID:         id,
		WardID:     1,
		Capability: domain.CanDay | domain.CanEvening | domain.CanNight,
		Intensity:  domain.IntensityMedium,
		IsActive:   true,
	}
}

func generalNurses(count int) []*domain.Nurse {
	nurses := make([]*domain.Nurse, count)
	for i := range nurses {
		nurses[i] = generalNurse(int64(i + 1))
	}
	return nurses
}

func seeded(seed int64, iterations int) *Parameters {
	p := DefaultParameters()
	p.Seed = &seed
	p.MaxIterations = iterations
	return p
}

func newTestScheduler(t *testing.T, params *Parameters, input *Input) *Scheduler {
	t.Helper()
	if input.Year == 0 {
		input.Year, input.Month = testYear, testMonth
	}
	if params == nil {
		params = seeded(1, 1000)
	}
	s, err := New(params, input)
	require.NoError(t, err)
	return s
}

// solutionOf 用给定的排班字符串构造方案，空字符串表示整月休息
func solutionOf(t *testing.T, s *Scheduler, rows ...string) *Solution {
	t.Helper()
	require.Len(t, rows, len(s.nurses))

	sol := &Solution{
		nurses:       make([]*Nurse, len(s.nurses)),
		requirements: s.requirements,
	}
	for i, row := range rows {
		if row == "" {
			row = strings.Repeat("O", len(s.requirements))
		}
		shifts, err := domain.ParseShifts(row)
		require.NoError(t, err)
		n := *s.nurses[i]
		n.shifts = shifts
		sol.nurses[i] = &n
	}
	return sol
}

// pad 在末尾补休息直到满 30 天
func pad(prefix string) string {
	return prefix + strings.Repeat("O", 30-len(prefix))
}

func rows(sol *Solution) []string {
	out := make([]string, len(sol.nurses))
	for i, n := range sol.nurses {
		out[i] = domain.FormatShifts(n.shifts)
	}
	return out
}

func assertCapability(t *testing.T, sol *Solution) {
	t.Helper()
	for _, n := range sol.nurses {
		for d, k := range n.shifts {
			if k.IsWork() {
				require.Truef(t, n.canWork(k), "护士 %d 第 %d 天 %s 超出能力范围", n.id, d+1, k)
			}
		}
	}
}
