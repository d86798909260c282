package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func TestInitialSolutionRestsAfterMaxNightRun(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s := newTestScheduler(t, seeded(seed, 0), &Input{
			Rule:           wardRule(),
			Nurses:         generalNurses(12),
			PrevMonthTails: map[int64]string{1: "NNNN"},
		})
		sol := s.buildInitialSolution()
		assert.Equal(t, domain.ShiftOff, sol.nurses[0].shifts[0], "seed %d", seed)
	}
}

func TestInitialSolutionCompletesShortNightRun(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{
		Rule:           wardRule(),
		Nurses:         generalNurses(12),
		PrevMonthTails: map[int64]string{1: "OOON"},
	})
	sol := s.buildInitialSolution()
	// 下限 2 天，上月只上了 1 天，本月第 1 天补上，之后休息 1 天
	assert.Equal(t, domain.ShiftNight, sol.nurses[0].shifts[0])
	assert.Equal(t, domain.ShiftOff, sol.nurses[0].shifts[1])
}

func TestInitialSolutionRestsAfterMaxConsecutiveShift(t *testing.T) {
	rule := wardRule()
	rule.MaxConsecutiveShift = 4
	for seed := int64(1); seed <= 10; seed++ {
		s := newTestScheduler(t, seeded(seed, 0), &Input{
			Rule:           rule,
			Nurses:         generalNurses(12),
			PrevMonthTails: map[int64]string{1: "DDDD", 2: "EEEE"},
		})
		sol := s.buildInitialSolution()
		assert.Equal(t, domain.ShiftOff, sol.nurses[0].shifts[0])
		assert.Equal(t, domain.ShiftOff, sol.nurses[1].shifts[0])
	}
}

func TestInitialSolutionSkipsExclusiveNurses(t *testing.T) {
	nurses := generalNurses(10)
	nurses = append(nurses,
		&domain.Nurse{ID: 11, Capability: domain.CanNight, Intensity: domain.IntensityMedium},
		&domain.Nurse{ID: 12, Capability: domain.CanDay, Intensity: domain.IntensityMedium},
	)
	s := newTestScheduler(t, nil, &Input{Rule: wardRule(), Nurses: nurses})
	sol := s.buildInitialSolution()

	assert.Equal(t, pad(""), domain.FormatShifts(sol.nurses[10].shifts))
	assert.Equal(t, pad(""), domain.FormatShifts(sol.nurses[11].shifts))

	worked := 0
	for _, n := range sol.nurses[:10] {
		worked += n.workDays()
	}
	assert.Positive(t, worked)
}

func TestInitialSolutionRespectsCapability(t *testing.T) {
	nurses := generalNurses(8)
	nurses = append(nurses,
		&domain.Nurse{ID: 9, Capability: domain.CanDay | domain.CanEvening, Intensity: domain.IntensityLow},
		&domain.Nurse{ID: 10, Capability: domain.CanDay, Intensity: domain.IntensityHigh},
		&domain.Nurse{ID: 11, Capability: domain.CanMid, Intensity: domain.IntensityMedium},
	)
	tails := map[int64]string{1: "DDNN", 2: "OOOO", 3: "XXEE", 9: "NNNO", 10: "OOOO", 11: "MMMM"}

	for seed := int64(1); seed <= 20; seed++ {
		s := newTestScheduler(t, seeded(seed, 0), &Input{Rule: wardRule(), Nurses: nurses, PrevMonthTails: tails})
		assertCapability(t, s.buildInitialSolution())
	}
}

func TestInitialSolutionIsDeterministic(t *testing.T) {
	build := func() []string {
		s := newTestScheduler(t, seeded(42, 0), &Input{
			Rule:           wardRule(),
			Nurses:         generalNurses(10),
			PrevMonthTails: map[int64]string{1: "EEEE", 2: "ONNN", 3: "OOOO"},
		})
		return rows(s.buildInitialSolution())
	}
	assert.Equal(t, build(), build())
}
