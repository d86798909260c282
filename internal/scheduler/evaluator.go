package scheduler

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// Weights 目标函数中各项违规的权重以及各项内部的计分常数
type Weights struct {
	Staffing    float64 // 每日人数偏差
	Consecutive float64 // 连续上班 / 夜班天数越界
	Boundary    float64 // 跨月衔接
	Capability  float64 // 班次能力
	Requests    float64 // 排班申请
	Patterns    float64 // 相邻两天的班次衔接
	NOD         float64 // 夜-休-白
	Workload    float64 // 各班次数量均衡
	Intensity   float64 // 上班强度均衡
	Alternating float64 // 上一天休一天的碎片化排班
	Consistency float64 // 连续上班期间更换班次

	NightStaffingFactor         float64
	IsolatedNightPenalty        float64
	IsolatedNightAtMonthEnd     float64
	OutOfCapabilityPenalty      float64
	ExclusiveCapabilityPenalty  float64
	ReinforcedRequestFactor     float64
	NightToDayPenalty           float64
	EveningToDayPenalty         float64
	NODPenalty                  float64
	LowIntensityOverworkFactor  float64
	LowIntensityUnderworkFactor float64
}

func DefaultWeights() Weights {
	return Weights{
		Staffing:    20000,
		Consecutive: 15000,
		Boundary:    10000,
		Capability:  10000,
		Requests:    5000,
		Patterns:    5000,
		NOD:         3000,
		Workload:    1000,
		Intensity:   2000,
		Alternating: 500,
		Consistency: 1000,

		NightStaffingFactor:         50,
		IsolatedNightPenalty:        15,
		IsolatedNightAtMonthEnd:     10,
		OutOfCapabilityPenalty:      200,
		ExclusiveCapabilityPenalty:  500,
		ReinforcedRequestFactor:     3,
		NightToDayPenalty:           2,
		EveningToDayPenalty:         1,
		NODPenalty:                  10,
		LowIntensityOverworkFactor:  7.5,
		LowIntensityUnderworkFactor: 3,
	}
}

// Breakdown 各项违规的原始分（未乘权重）
type Breakdown struct {
	Staffing    float64 `json:"staffing"`
	Consecutive float64 `json:"consecutive"`
	Boundary    float64 `json:"boundary"`
	Capability  float64 `json:"capability"`
	Requests    float64 `json:"requests"`
	Patterns    float64 `json:"patterns"`
	NOD         float64 `json:"nod"`
	Workload    float64 `json:"workload"`
	Intensity   float64 `json:"intensity"`
	Alternating float64 `json:"alternating"`
	Consistency float64 `json:"consistency"`
}

// Total 计算总分，越低越好
func (b Breakdown) Total(w Weights) float64 {
	return w.Staffing*b.Staffing +
		w.Consecutive*b.Consecutive +
		w.Boundary*b.Boundary +
		w.Capability*b.Capability +
		w.Requests*b.Requests +
		w.Patterns*b.Patterns +
		w.NOD*b.NOD +
		w.Workload*b.Workload +
		w.Intensity*b.Intensity +
		w.Alternating*b.Alternating +
		w.Consistency*b.Consistency
}

type request struct {
	day        int // 从 0 开始
	kind       domain.ShiftKind
	reinforced bool
}

// evaluator 持有计算分数需要的只读数据
type evaluator struct {
	rule     domain.Rule
	weights  Weights
	requests [][]request // 按护士下标
}

func (e *evaluator) evaluate(sol *Solution) (Breakdown, error) {
	var b Breakdown
	days := sol.days()

	if len(e.requests) != len(sol.nurses) {
		return b, fmt.Errorf("申请表长度 %d 与护士人数 %d 不一致", len(e.requests), len(sol.nurses))
	}
	for _, n := range sol.nurses {
		if len(n.shifts) != days {
			return b, fmt.Errorf("护士 %d 的排班长度 %d 与当月天数 %d 不一致", n.id, len(n.shifts), days)
		}
	}

	b.Staffing = e.staffingDeviation(sol)
	for i, n := range sol.nurses {
		b.Consecutive += e.runPenalty(n)
		b.Boundary += e.boundaryPenalty(n)
		b.Capability += e.capabilityPenalty(n)
		b.Requests += e.requestPenalty(n, e.requests[i])
		b.Patterns += e.transitionPenalty(n)
		b.NOD += e.nodPenalty(n)
		b.Intensity += e.intensityPenalty(n)
		b.Alternating += alternatingPenalty(n)
		b.Consistency += consistencyPenalty(n)
	}
	b.Workload = workloadPenalty(sol)

	return b, nil
}

func (e *evaluator) staffingDeviation(sol *Solution) float64 {
	total := 0.0
	for d, req := range sol.requirements {
		var day, evening, night int
		for _, n := range sol.nurses {
			switch n.shifts[d] {
			case domain.ShiftDay:
				day++
			case domain.ShiftEvening:
				evening++
			case domain.ShiftNight:
				night++
			}
		}
		total += math.Abs(float64(day - req.needed(domain.ShiftDay)))
		total += math.Abs(float64(evening - req.needed(domain.ShiftEvening)))
		total += e.weights.NightStaffingFactor * math.Abs(float64(night-req.needed(domain.ShiftNight)))
	}
	return total
}

// runPenalty 连续夜班天数不在 [min, max] 内、连续上班天数超过上限、以及夜班 / 长班之后没有休息
func (e *evaluator) runPenalty(n *Nurse) float64 {
	rule := e.rule
	days := len(n.shifts)
	penalty := 0.0

	for d := 0; d < days; {
		if n.shifts[d] != domain.ShiftNight {
			d++
			continue
		}
		start := d
		for d < days && n.shifts[d] == domain.ShiftNight {
			d++
		}
		length := d - start
		combined := length
		if start == 0 {
			combined += n.tailNightRun()
		}
		atMonthEnd := d == days

		if length > rule.MaxNightRun {
			penalty += float64(length - rule.MaxNightRun)
		}
		// 月底的夜班可以延续到下个月，不按下限计算
		if combined < rule.MinNightRun && !atMonthEnd {
			penalty += float64(rule.MinNightRun - combined)
		}
		if combined == 1 {
			if atMonthEnd {
				penalty += e.weights.IsolatedNightAtMonthEnd
			} else {
				penalty += e.weights.IsolatedNightPenalty
			}
		}
		for k := 0; k < rule.OffDaysAfterNightRun && d+k < days; k++ {
			if n.shifts[d+k].IsWork() {
				penalty++
			}
		}
	}

	for d := 0; d < days; {
		if !n.shifts[d].IsWork() {
			d++
			continue
		}
		start := d
		for d < days && n.shifts[d].IsWork() {
			d++
		}
		length := d - start
		if start == 0 {
			length += n.tailWorkRun()
		}
		if length > rule.MaxConsecutiveShift {
			penalty += float64(length - rule.MaxConsecutiveShift)
		}
		// 第 d 天一定是休息，从第 d+1 天开始检查剩余的休息天数
		if length >= rule.MaxConsecutiveShift {
			for k := 1; k < rule.OffDaysAfterMaxShift && d+k < days; k++ {
				if n.shifts[d+k].IsWork() {
					penalty++
				}
			}
		}
	}

	return penalty
}

// boundaryPenalty 上个月末与本月初的衔接
func (e *evaluator) boundaryPenalty(n *Nurse) float64 {
	if len(n.tail) == 0 || len(n.shifts) == 0 {
		return 0
	}

	penalty := 0.0
	last := n.tailLast()
	first := n.shifts[0]

	if last == domain.ShiftNight {
		if first == domain.ShiftDay || first == domain.ShiftEvening {
			penalty++
		}

		lead := 0
		for lead < len(n.shifts) && n.shifts[lead] == domain.ShiftNight {
			lead++
		}
		if combined := n.tailNightRun() + lead; lead > 0 && combined > e.rule.MaxNightRun {
			penalty += float64(combined - e.rule.MaxNightRun)
		}

		if first == domain.ShiftOff && len(n.shifts) > 1 && n.shifts[1] == domain.ShiftDay {
			penalty++
		}
	}

	if len(n.tail) >= 2 && n.tail[len(n.tail)-2] == domain.ShiftNight && last == domain.ShiftOff && first == domain.ShiftDay {
		penalty++
	}

	return penalty
}

func (e *evaluator) capabilityPenalty(n *Nurse) float64 {
	penalty := 0.0
	for _, k := range n.shifts {
		if !k.IsWork() || n.canWork(k) {
			continue
		}
		if n.capability.IsExclusive() {
			penalty += e.weights.ExclusiveCapabilityPenalty
		} else {
			penalty += e.weights.OutOfCapabilityPenalty
		}
	}
	return penalty
}

func (e *evaluator) requestPenalty(n *Nurse, requests []request) float64 {
	penalty := 0.0
	for _, r := range requests {
		if n.shifts[r.day] == r.kind {
			continue
		}
		if r.reinforced {
			penalty += e.weights.ReinforcedRequestFactor
		} else {
			penalty++
		}
	}
	return penalty
}

// transitionPenalty 夜班后接白班 / 小夜，小夜后接白班
func (e *evaluator) transitionPenalty(n *Nurse) float64 {
	penalty := 0.0
	for d := 1; d < len(n.shifts); d++ {
		prev, cur := n.shifts[d-1], n.shifts[d]
		switch {
		case prev == domain.ShiftNight && (cur == domain.ShiftDay || cur == domain.ShiftEvening):
			penalty += e.weights.NightToDayPenalty
		case prev == domain.ShiftEvening && cur == domain.ShiftDay:
			penalty += e.weights.EveningToDayPenalty
		}
	}
	return penalty
}

func (e *evaluator) nodPenalty(n *Nurse) float64 {
	penalty := 0.0
	for d := 2; d < len(n.shifts); d++ {
		if isNOD(n.shifts, d-2) {
			penalty += e.weights.NODPenalty
		}
	}
	return penalty
}

func isNOD(shifts []domain.ShiftKind, d int) bool {
	return shifts[d] == domain.ShiftNight && shifts[d+1] == domain.ShiftOff && shifts[d+2] == domain.ShiftDay
}

// intensityPenalty 实际上班比例与目标比例的偏差，低强度护士超负荷时加重惩罚
func (e *evaluator) intensityPenalty(n *Nurse) float64 {
	if len(n.shifts) == 0 {
		return 0
	}
	ratio := float64(n.workDays()) / float64(len(n.shifts))
	diff := ratio - n.intensity.TargetWorkRatio()

	if n.intensity == domain.IntensityLow {
		if diff > 0 {
			return diff * e.weights.LowIntensityOverworkFactor
		}
		return -diff * e.weights.LowIntensityUnderworkFactor
	}
	return math.Abs(diff)
}

// alternatingPenalty 上-休-上-休 交替的片段，长度 L >= 4 时计 (L-3)^2
func alternatingPenalty(n *Nurse) float64 {
	penalty := 0.0
	for _, seg := range alternatingSegments(n.shifts) {
		excess := float64(seg[1] - 3)
		penalty += excess * excess
	}
	return penalty
}

// alternatingSegments 返回所有长度不小于 4 的交替片段 [start, length]
func alternatingSegments(shifts []domain.ShiftKind) [][2]int {
	var segments [][2]int
	start := 0
	for d := 1; d <= len(shifts); d++ {
		if d < len(shifts) && shifts[d].IsWork() != shifts[d-1].IsWork() {
			continue
		}
		if length := d - start; length >= 4 {
			segments = append(segments, [2]int{start, length})
		}
		start = d
	}
	return segments
}

// consistencyPenalty 一段连续上班中班次种类发生变化的次数
func consistencyPenalty(n *Nurse) float64 {
	penalty := 0.0
	for d := 1; d < len(n.shifts); d++ {
		prev, cur := n.shifts[d-1], n.shifts[d]
		if prev.IsWork() && cur.IsWork() && prev != cur {
			penalty++
		}
	}
	return penalty
}

// workloadPenalty 各班次数量在能上该班次的（非专职）护士之间的标准差之和
func workloadPenalty(sol *Solution) float64 {
	penalty := 0.0
	for _, kind := range []domain.ShiftKind{domain.ShiftDay, domain.ShiftEvening, domain.ShiftNight} {
		counts := make([]float64, 0, len(sol.nurses))
		for _, n := range sol.nurses {
			if n.capability.IsExclusive() || !n.canWork(kind) {
				continue
			}
			cnt := 0
			for _, k := range n.shifts {
				if k == kind {
					cnt++
				}
			}
			counts = append(counts, float64(cnt))
		}
		penalty += stdDev(counts)
	}
	return penalty
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += math.Pow(v-mean, 2)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}
