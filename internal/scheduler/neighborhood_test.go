package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func TestNeighborKeepsIncumbentAndCapability(t *testing.T) {
	nurses := generalNurses(8)
	nurses = append(nurses,
		&domain.Nurse{ID: 9, Capability: domain.CanNight, Intensity: domain.IntensityMedium},
		&domain.Nurse{ID: 10, Capability: domain.CanDay | domain.CanEvening, Intensity: domain.IntensityLow},
	)
	s := newTestScheduler(t, nil, &Input{
		Rule:           wardRule(),
		Nurses:         nurses,
		PrevMonthTails: map[int64]string{1: "ONNN", 9: "OONN"},
	})

	current := s.buildInitialSolution()
	before := rows(current)

	for i := 0; i < 2000; i++ {
		next := s.neighbor(current)
		assertCapability(t, next)
		if i%2 == 0 {
			current = next
			before = rows(current)
		}
		require.Equal(t, before, rows(current))
	}
}

func TestSwapRespectsCapability(t *testing.T) {
	nurses := []*domain.Nurse{
		{ID: 1, Capability: domain.CanNight, Intensity: domain.IntensityMedium},
		{ID: 2, Capability: domain.CanDay, Intensity: domain.IntensityMedium},
	}
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses})
	sol := solutionOf(t, s, strings.Repeat("N", 30), strings.Repeat("D", 30))

	for i := 0; i < 50; i++ {
		assert.False(t, s.swapOnDay(sol))
		assert.False(t, s.swapSequence(sol))
	}
}

func TestChangeOnePicksFeasibleKind(t *testing.T) {
	nurses := []*domain.Nurse{{ID: 1, Capability: domain.CanEvening, Intensity: domain.IntensityMedium}}
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses})
	sol := solutionOf(t, s, "")

	for i := 0; i < 100; i++ {
		require.True(t, s.changeOne(sol))
	}
	for _, k := range sol.nurses[0].shifts {
		assert.Contains(t, []domain.ShiftKind{domain.ShiftEvening, domain.ShiftOff}, k)
	}
}

func TestToggleNOD(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})

	countNOD := func(sol *Solution) int {
		cnt := 0
		for d := 0; d+2 < sol.days(); d++ {
			if isNOD(sol.nurses[0].shifts, d) {
				cnt++
			}
		}
		return cnt
	}

	sol := solutionOf(t, s, "")
	require.True(t, s.toggleNOD(sol))
	assert.Equal(t, 1, countNOD(sol))

	sol = solutionOf(t, s, pad("NOD"))
	require.True(t, s.toggleNOD(sol))
	assert.Equal(t, 0, countNOD(sol))
}

func TestRepairNightPattern(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})

	sol := solutionOf(t, s, pad("ON"))
	require.True(t, s.repairNightPattern(sol))
	assert.Equal(t, pad("ONN"), rows(sol)[0])

	sol = solutionOf(t, s, strings.Repeat("O", 29)+"N")
	require.True(t, s.repairNightPattern(sol))
	assert.Equal(t, strings.Repeat("O", 28)+"NN", rows(sol)[0])

	sol = solutionOf(t, s, pad("NNO"))
	assert.False(t, s.repairNightPattern(sol))
}

func TestRepairMonthBoundary(t *testing.T) {
	cases := []struct {
		name    string
		tail    string
		row     string
		want    string
		changed bool
	}{
		{"截断超出上限的夜班", "NN", pad("NNN"), pad("N"), true},
		{"已到上限时第一天休息", "NN", pad("DD"), pad("OD"), true},
		{"未接近上限时不处理", "N", pad("D"), pad("D"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScheduler(t, nil, &Input{
				Rule:           quietRule(),
				Nurses:         generalNurses(1),
				PrevMonthTails: map[int64]string{1: tc.tail},
			})
			sol := solutionOf(t, s, tc.row)
			assert.Equal(t, tc.changed, s.repairMonthBoundary(sol))
			assert.Equal(t, tc.want, rows(sol)[0])
		})
	}
}

func TestRepairAlternating(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		s := newTestScheduler(t, seeded(seed, 0), &Input{Rule: quietRule(), Nurses: generalNurses(1)})
		sol := solutionOf(t, s, pad("DODO"))
		if s.repairAlternating(sol) {
			assert.Empty(t, alternatingSegments(sol.nurses[0].shifts))
		}
	}
}

func TestRepairConsistency(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})
	sol := solutionOf(t, s, pad("DDEE"))

	require.True(t, s.repairConsistency(sol))
	assert.Contains(t, []string{pad("DDDD"), pad("EEEE")}, rows(sol)[0])
}
