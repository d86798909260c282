package scheduler

import (
	"sort"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

const (
	nightContinueProb  = 0.5  // 上月以夜班结尾且未达上限时，继续上一天夜班的概率
	shiftContinueProb  = 0.7  // 上月以白班 / 小夜结尾时，继续同一种班次的概率
	eveningToNightProb = 0.05 // 上月以小夜结尾时，转入夜班的概率
	longOffRun         = 3    // 上月末连续休息超过该天数时，不再继续休息
	fillWorkWindow     = 5    // 补人时连续上班天数的上限
)

// 上月以休息结尾时本月第一天的班次分布
var resumeChoices = []struct {
	kind   domain.ShiftKind
	weight float64
}{
	{domain.ShiftDay, 0.50},
	{domain.ShiftEvening, 0.35},
	{domain.ShiftNight, 0.10},
	{domain.ShiftOff, 0.05},
}

// initBuilder 构造初始解时的临时状态，locked 标记已经由衔接规则确定的格子
type initBuilder struct {
	s      *Scheduler
	sol    *Solution
	locked [][]bool
}

// buildInitialSolution 构造初始解：先处理与上个月的衔接，再按天补足人数
func (s *Scheduler) buildInitialSolution() *Solution {
	sol := &Solution{
		nurses:       make([]*Nurse, len(s.nurses)),
		requirements: s.requirements,
	}
	b := &initBuilder{
		s:      s,
		sol:    sol,
		locked: make([][]bool, len(s.nurses)),
	}

	days := len(s.requirements)
	for i, tmpl := range s.nurses {
		n := *tmpl
		n.shifts = make([]domain.ShiftKind, days)
		for d := range n.shifts {
			n.shifts[d] = domain.ShiftOff
		}
		sol.nurses[i] = &n
		b.locked[i] = make([]bool, days)
	}

	for i, n := range sol.nurses {
		if len(n.tail) > 0 {
			b.seedContinuity(i)
		}
	}

	for d := 0; d < days; d++ {
		b.fillNight(d)
		b.fillShift(d, domain.ShiftDay)
		b.fillShift(d, domain.ShiftEvening)
	}

	return sol
}

func (b *initBuilder) set(i, d int, k domain.ShiftKind) {
	if d < 0 || d >= b.sol.days() {
		return
	}
	b.sol.nurses[i].shifts[d] = k
	b.locked[i][d] = true
}

func (b *initBuilder) rest(i, from, count int) {
	for k := 0; k < count; k++ {
		b.set(i, from+k, domain.ShiftOff)
	}
}

// nightBlock 安排从 from 开始的 length 天夜班，之后休息
func (b *initBuilder) nightBlock(i, from, length int) {
	for k := 0; k < length; k++ {
		b.set(i, from+k, domain.ShiftNight)
	}
	b.rest(i, from+length, b.s.rule.OffDaysAfterNightRun)
}

// seedContinuity 根据上个月最后几天的班次确定本月开头的班次
func (b *initBuilder) seedContinuity(i int) {
	rule := b.s.rule
	rng := b.s.rng
	n := b.sol.nurses[i]
	nightRest := max(1, rule.OffDaysAfterNightRun)

	switch last := n.tailLast(); last {
	case domain.ShiftNight:
		run := n.tailNightRun()
		switch {
		case run >= rule.MaxNightRun:
			b.rest(i, 0, nightRest)
		case n.canWork(domain.ShiftNight):
			extend := 0
			if run < rule.MinNightRun {
				extend = rule.MinNightRun - run
			} else if rng.Float64() < nightContinueProb {
				extend = 1
			}
			extend = min(extend, rule.MaxNightRun-run)
			if extend == 0 {
				b.rest(i, 0, nightRest)
				return
			}
			b.nightBlock(i, 0, extend)
		default:
			b.rest(i, 0, nightRest)
		}

	case domain.ShiftDay, domain.ShiftEvening:
		run := n.tailWorkRun()
		if run >= rule.MaxConsecutiveShift {
			b.rest(i, 0, max(1, rule.OffDaysAfterMaxShift))
			return
		}
		if last == domain.ShiftEvening && n.canWork(domain.ShiftNight) &&
			run+rule.MinNightRun <= rule.MaxConsecutiveShift && rule.MinNightRun <= b.sol.days() &&
			rng.Float64() < eveningToNightProb {
			b.nightBlock(i, 0, rule.MinNightRun)
			return
		}
		if n.canWork(last) && rng.Float64() < shiftContinueProb {
			b.set(i, 0, last)
		}

	default:
		kind := b.pickResumeKind(n.tailOffRun())
		switch {
		case kind == domain.ShiftOff:
			b.set(i, 0, domain.ShiftOff)
		case !n.canWork(kind):
			// 留给后面的补人流程
		case kind == domain.ShiftNight:
			if rule.MinNightRun <= b.sol.days() {
				b.nightBlock(i, 0, rule.MinNightRun)
			}
		default:
			b.set(i, 0, kind)
		}
	}
}

func (b *initBuilder) pickResumeKind(offRun int) domain.ShiftKind {
	total := 0.0
	for _, c := range resumeChoices {
		if c.kind == domain.ShiftOff && offRun > longOffRun {
			continue
		}
		total += c.weight
	}

	r := b.s.rng.Float64() * total
	for _, c := range resumeChoices {
		if c.kind == domain.ShiftOff && offRun > longOffRun {
			continue
		}
		if r < c.weight {
			return c.kind
		}
		r -= c.weight
	}
	return domain.ShiftDay
}

// eligible 第 d 天能否通过补人流程给护士 i 安排 kind 班次
func (b *initBuilder) eligible(i, d int, kind domain.ShiftKind) bool {
	n := b.sol.nurses[i]
	if n.capability.IsExclusive() || !n.canWork(kind) {
		return false
	}
	if b.locked[i][d] || n.shifts[d] != domain.ShiftOff {
		return false
	}
	if n.prevKind(d) == domain.ShiftNight {
		return false
	}
	return n.workRunBefore(d) < min(fillWorkWindow, b.s.rule.MaxConsecutiveShift)
}

// ordered 打乱候选人顺序后，优先选择目前上班天数较少的护士
func (b *initBuilder) ordered(candidates []int) []int {
	b.s.rng.Shuffle(len(candidates), func(x, y int) {
		candidates[x], candidates[y] = candidates[y], candidates[x]
	})
	sort.SliceStable(candidates, func(x, y int) bool {
		return b.sol.nurses[candidates[x]].workDays() < b.sol.nurses[candidates[y]].workDays()
	})
	return candidates
}

func (b *initBuilder) fillNight(d int) {
	rule := b.s.rule
	need := b.sol.requirements[d].needed(domain.ShiftNight) - b.sol.countOn(d, domain.ShiftNight)
	if need <= 0 {
		return
	}

	// 1. 延续前一天开始的夜班，未达到下限的优先
	if d > 0 {
		var candidates []int
		for i, n := range b.sol.nurses {
			if n.capability.IsExclusive() || !n.canWork(domain.ShiftNight) || b.locked[i][d] {
				continue
			}
			if n.shifts[d] != domain.ShiftOff || n.shifts[d-1] != domain.ShiftNight {
				continue
			}
			if n.nightRunBefore(d) >= rule.MaxNightRun {
				continue
			}
			candidates = append(candidates, i)
		}
		candidates = b.ordered(candidates)
		sort.SliceStable(candidates, func(x, y int) bool {
			return b.sol.nurses[candidates[x]].nightRunBefore(d) < rule.MinNightRun &&
				b.sol.nurses[candidates[y]].nightRunBefore(d) >= rule.MinNightRun
		})
		for _, i := range candidates {
			if need == 0 {
				return
			}
			n := b.sol.nurses[i]
			n.shifts[d] = domain.ShiftNight
			need--
			if n.nightRunBefore(d+1) >= rule.MaxNightRun {
				b.rest(i, d+1, rule.OffDaysAfterNightRun)
			}
		}
	}

	// 2. 偶数天开始新的夜班块
	if d%2 == 0 {
		length := min(max(2, rule.MinNightRun), rule.MaxNightRun)
		var candidates []int
		for i := range b.sol.nurses {
			if !b.eligible(i, d, domain.ShiftNight) || !b.freeSpan(i, d, length) {
				continue
			}
			candidates = append(candidates, i)
		}
		for _, i := range b.ordered(candidates) {
			if need == 0 {
				return
			}
			b.nightBlock(i, d, length)
			need--
		}
	}

	// 3. 剩余的缺口逐个补上
	var candidates []int
	for i := range b.sol.nurses {
		if b.eligible(i, d, domain.ShiftNight) {
			candidates = append(candidates, i)
		}
	}
	for _, i := range b.ordered(candidates) {
		if need == 0 {
			return
		}
		b.sol.nurses[i].shifts[d] = domain.ShiftNight
		need--
	}
}

// freeSpan 从第 d 天起 length 天（月底截断）都还没有安排
func (b *initBuilder) freeSpan(i, d, length int) bool {
	n := b.sol.nurses[i]
	for k := d; k < d+length && k < b.sol.days(); k++ {
		if b.locked[i][k] || n.shifts[k] != domain.ShiftOff {
			return false
		}
	}
	return true
}

func (b *initBuilder) fillShift(d int, kind domain.ShiftKind) {
	need := b.sol.requirements[d].needed(kind) - b.sol.countOn(d, kind)
	if need <= 0 {
		return
	}

	var candidates []int
	for i := range b.sol.nurses {
		if b.eligible(i, d, kind) {
			candidates = append(candidates, i)
		}
	}
	for _, i := range b.ordered(candidates) {
		if need == 0 {
			return
		}
		b.sol.nurses[i].shifts[d] = kind
		need--
	}
}
