package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func TestEvaluateStaffingDeviation(t *testing.T) {
	rule := quietRule()
	rule.WeekdayDay, rule.WeekendDay = 1, 1
	rule.WeekdayNight, rule.WeekendNight = 1, 1
	s := newTestScheduler(t, nil, &Input{Rule: rule, Nurses: generalNurses(1)})

	b, err := s.evaluator.evaluate(solutionOf(t, s, ""))
	require.NoError(t, err)
	// 每天缺 1 个白班、1 个夜班，夜班按 50 倍计
	assert.Equal(t, 30.0+50*30.0, b.Staffing)

	b, err = s.evaluator.evaluate(solutionOf(t, s, strings.Repeat("D", 30)))
	require.NoError(t, err)
	assert.Equal(t, 50*30.0, b.Staffing)
}

func TestEvaluateRunPenalty(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})

	cases := []struct {
		name string
		row  string
		want float64
	}{
		{"月中孤立夜班", pad("N"), 1 + 15},
		{"月底孤立夜班", strings.Repeat("O", 29) + "N", 10},
		{"夜班过长", pad("NNNN"), 1},
		{"连续上班过长", pad("DDDDDDD"), 2},
		{"正常", pad("NNOODDD"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sol := solutionOf(t, s, tc.row)
			assert.Equal(t, tc.want, s.evaluator.runPenalty(sol.nurses[0]))
		})
	}
}

func TestEvaluateRestAfterRuns(t *testing.T) {
	rule := quietRule()
	rule.OffDaysAfterNightRun = 2
	rule.OffDaysAfterMaxShift = 2
	s := newTestScheduler(t, nil, &Input{Rule: rule, Nurses: generalNurses(1)})

	sol := solutionOf(t, s, pad("NNDD"))
	assert.Equal(t, 2.0, s.evaluator.runPenalty(sol.nurses[0]))

	// 连续上满 5 天后第 6 天休息，第 7 天又上班
	sol = solutionOf(t, s, pad("DDDDDOD"))
	assert.Equal(t, 1.0, s.evaluator.runPenalty(sol.nurses[0]))
}

func TestEvaluateBoundary(t *testing.T) {
	nurses := generalNurses(4)
	tails := map[int64]string{1: "NNNN", 2: "ONN", 3: "DDNO", 4: "OOON"}
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses, PrevMonthTails: tails})

	sol := solutionOf(t, s, pad("N"), pad("D"), pad("D"), pad("OD"))
	// 上月 4 天夜班再加 1 天，超过上限 2 天
	assert.Equal(t, 2.0, s.evaluator.boundaryPenalty(sol.nurses[0]))
	// 夜班后直接上白班
	assert.Equal(t, 1.0, s.evaluator.boundaryPenalty(sol.nurses[1]))
	// 夜-休-白 跨月
	assert.Equal(t, 1.0, s.evaluator.boundaryPenalty(sol.nurses[2]))
	assert.Equal(t, 1.0, s.evaluator.boundaryPenalty(sol.nurses[3]))

	// 月初接着上 1 天夜班，合计 3 天不超过上限，不计入本月的下限
	sol = solutionOf(t, s, pad("O"), pad("NO"), "", "")
	assert.Equal(t, 0.0, s.evaluator.boundaryPenalty(sol.nurses[1]))
	assert.Equal(t, 0.0, s.evaluator.runPenalty(sol.nurses[1]))
}

func TestEvaluateCapability(t *testing.T) {
	nurses := []*domain.Nurse{
		{ID: 1, Capability: domain.CanNight, Intensity: domain.IntensityMedium},
		{ID: 2, Capability: domain.CanDay | domain.CanEvening, Intensity: domain.IntensityMedium},
	}
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses})

	sol := solutionOf(t, s, pad("D"), pad("NE"))
	assert.Equal(t, 500.0, s.evaluator.capabilityPenalty(sol.nurses[0]))
	assert.Equal(t, 200.0, s.evaluator.capabilityPenalty(sol.nurses[1]))
}

func TestEvaluateRequests(t *testing.T) {
	requests := []*domain.ShiftRequest{
		{ID: 1, NurseID: 1, Day: 3, RequestedShift: domain.ShiftOff, Reinforced: true},
		{ID: 2, NurseID: 1, Day: 4, RequestedShift: domain.ShiftDay},
		{ID: 3, NurseID: 1, Day: 5, RequestedShift: domain.ShiftEvening},
	}
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1), AcceptedRequests: requests})

	sol := solutionOf(t, s, pad("DDDDE"))
	b, err := s.evaluator.evaluate(sol)
	require.NoError(t, err)
	assert.Equal(t, 3.0, b.Requests)
}

func TestEvaluatePatterns(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})

	sol := solutionOf(t, s, pad("NDED"))
	n := sol.nurses[0]
	assert.Equal(t, 3.0, s.evaluator.transitionPenalty(n))
	assert.Equal(t, 3.0, consistencyPenalty(n))

	sol = solutionOf(t, s, pad("NOD"))
	assert.Equal(t, 10.0, s.evaluator.nodPenalty(sol.nurses[0]))
	assert.Equal(t, 0.0, s.evaluator.transitionPenalty(sol.nurses[0]))
}

func TestEvaluateAlternating(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})

	sol := solutionOf(t, s, pad("DODO"))
	assert.Equal(t, [][2]int{{0, 4}}, alternatingSegments(sol.nurses[0].shifts))
	assert.Equal(t, 1.0, alternatingPenalty(sol.nurses[0]))

	sol = solutionOf(t, s, pad("DODODO"))
	assert.Equal(t, 9.0, alternatingPenalty(sol.nurses[0]))

	sol = solutionOf(t, s, pad("DODD"))
	assert.Equal(t, 0.0, alternatingPenalty(sol.nurses[0]))
}

func TestEvaluateIntensity(t *testing.T) {
	nurses := generalNurses(3)
	nurses[0].Intensity = domain.IntensityLow
	nurses[1].Intensity = domain.IntensityLow
	nurses[2].Intensity = domain.IntensityHigh
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses})

	sol := solutionOf(t, s, "", strings.Repeat("D", 30), pad(strings.Repeat("D", 21)))
	assert.InDelta(t, 0.5*3, s.evaluator.intensityPenalty(sol.nurses[0]), 1e-9)
	assert.InDelta(t, 0.5*7.5, s.evaluator.intensityPenalty(sol.nurses[1]), 1e-9)
	assert.InDelta(t, 0.0, s.evaluator.intensityPenalty(sol.nurses[2]), 1e-9)
}

func TestEvaluateWorkload(t *testing.T) {
	nurses := generalNurses(2)
	nurses = append(nurses, &domain.Nurse{ID: 3, Capability: domain.CanDay, Intensity: domain.IntensityMedium})
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: nurses})

	// 专职白班护士不参与均衡
	sol := solutionOf(t, s, pad("DDDDDDDDDD"), "", strings.Repeat("D", 30))
	assert.InDelta(t, 5.0, workloadPenalty(sol), 1e-9)
}

func TestEvaluateLengthMismatch(t *testing.T) {
	s := newTestScheduler(t, nil, &Input{Rule: quietRule(), Nurses: generalNurses(1)})
	sol := solutionOf(t, s, "")
	sol.nurses[0].shifts = sol.nurses[0].shifts[:29]

	_, err := s.evaluator.evaluate(sol)
	assert.Error(t, err)
}

func TestBreakdownTotal(t *testing.T) {
	w := DefaultWeights()
	b := Breakdown{Staffing: 1, Requests: 3, Alternating: 2}
	assert.Equal(t, 20000.0+3*5000+2*500, b.Total(w))
}
