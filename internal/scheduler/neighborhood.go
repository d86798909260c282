package scheduler

import (
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// operator 在方案副本上做一次局部修改，返回是否真的修改了
type operator func(s *Scheduler, sol *Solution) bool

var operators = []operator{
	(*Scheduler).swapOnDay,
	(*Scheduler).changeOne,
	(*Scheduler).swapSequence,
	(*Scheduler).toggleNOD,
	(*Scheduler).repairNightPattern,
	(*Scheduler).repairMonthBoundary,
	(*Scheduler).repairAlternating,
	(*Scheduler).repairConsistency,
}

// neighbor 复制当前方案并随机应用一种邻域操作，操作无处可用时退化为随机改一格
func (s *Scheduler) neighbor(current *Solution) *Solution {
	next := current.Clone()
	op := operators[s.rng.Intn(len(operators))]
	if !op(s, next) {
		s.changeOne(next)
	}
	return next
}

// alternatives 返回护士在某天可以换成的其他班次（包括休息）
func alternatives(n *Nurse, cur domain.ShiftKind) []domain.ShiftKind {
	kinds := append(n.capability.Kinds(), domain.ShiftOff)
	options := kinds[:0]
	for _, k := range kinds {
		if k != cur {
			options = append(options, k)
		}
	}
	return options
}

func (s *Scheduler) pickTwo(count int) (int, int) {
	i := s.rng.Intn(count)
	j := s.rng.Intn(count - 1)
	if j >= i {
		j++
	}
	return i, j
}

// swapOnDay 交换两名护士同一天的班次
func (s *Scheduler) swapOnDay(sol *Solution) bool {
	if len(sol.nurses) < 2 || sol.days() == 0 {
		return false
	}
	i, j := s.pickTwo(len(sol.nurses))
	d := s.rng.Intn(sol.days())

	ni, nj := sol.nurses[i], sol.nurses[j]
	a, b := ni.shifts[d], nj.shifts[d]
	if a == b || !ni.canWork(b) || !nj.canWork(a) {
		return false
	}
	ni.shifts[d], nj.shifts[d] = b, a
	return true
}

// changeOne 随机把某个护士某天的班次换成另一个可行的班次
func (s *Scheduler) changeOne(sol *Solution) bool {
	if len(sol.nurses) == 0 || sol.days() == 0 {
		return false
	}
	n := sol.nurses[s.rng.Intn(len(sol.nurses))]
	d := s.rng.Intn(sol.days())

	options := alternatives(n, n.shifts[d])
	if len(options) == 0 {
		return false
	}
	n.shifts[d] = options[s.rng.Intn(len(options))]
	return true
}

// swapSequence 交换两名护士连续 1~3 天的班次
func (s *Scheduler) swapSequence(sol *Solution) bool {
	if len(sol.nurses) < 2 || sol.days() == 0 {
		return false
	}
	i, j := s.pickTwo(len(sol.nurses))
	length := min(1+s.rng.Intn(3), sol.days())
	start := s.rng.Intn(sol.days() - length + 1)

	ni, nj := sol.nurses[i], sol.nurses[j]
	changed := false
	for d := start; d < start+length; d++ {
		a, b := ni.shifts[d], nj.shifts[d]
		if !ni.canWork(b) || !nj.canWork(a) {
			return false
		}
		if a != b {
			changed = true
		}
	}
	if !changed {
		return false
	}
	for d := start; d < start+length; d++ {
		ni.shifts[d], nj.shifts[d] = nj.shifts[d], ni.shifts[d]
	}
	return true
}

// toggleNOD 找到一个 夜-休-白 并改动其中一天；找不到时给能上夜班和白班的护士造一个
func (s *Scheduler) toggleNOD(sol *Solution) bool {
	days := sol.days()
	if days < 3 {
		return false
	}

	var found [][2]int
	for i, n := range sol.nurses {
		for d := 0; d+2 < days; d++ {
			if isNOD(n.shifts, d) {
				found = append(found, [2]int{i, d})
			}
		}
	}

	if len(found) > 0 {
		pick := found[s.rng.Intn(len(found))]
		n := sol.nurses[pick[0]]
		d := pick[1] + s.rng.Intn(3)
		options := alternatives(n, n.shifts[d])
		if len(options) == 0 {
			return false
		}
		n.shifts[d] = options[s.rng.Intn(len(options))]
		return true
	}

	var capable []int
	for i, n := range sol.nurses {
		if n.canWork(domain.ShiftNight) && n.canWork(domain.ShiftDay) {
			capable = append(capable, i)
		}
	}
	if len(capable) == 0 {
		return false
	}
	n := sol.nurses[capable[s.rng.Intn(len(capable))]]
	d := s.rng.Intn(days - 2)
	n.shifts[d], n.shifts[d+1], n.shifts[d+2] = domain.ShiftNight, domain.ShiftOff, domain.ShiftDay
	return true
}

// nightRunAround 返回包含第 d 天的连续夜班长度（月初的夜班计入上个月的部分）
func nightRunAround(n *Nurse, d int) int {
	start, end := d, d
	for start > 0 && n.shifts[start-1] == domain.ShiftNight {
		start--
	}
	for end+1 < len(n.shifts) && n.shifts[end+1] == domain.ShiftNight {
		end++
	}
	length := end - start + 1
	if start == 0 {
		length += n.tailNightRun()
	}
	return length
}

// repairNightPattern 把孤立的单天夜班延长一天
func (s *Scheduler) repairNightPattern(sol *Solution) bool {
	days := sol.days()
	var isolated [][2]int
	for i, n := range sol.nurses {
		for d := 0; d < days; d++ {
			if n.shifts[d] != domain.ShiftNight {
				continue
			}
			if n.prevKind(d) == domain.ShiftNight {
				continue
			}
			if d+1 < days && n.shifts[d+1] == domain.ShiftNight {
				continue
			}
			isolated = append(isolated, [2]int{i, d})
		}
	}
	if len(isolated) == 0 {
		return false
	}

	pick := isolated[s.rng.Intn(len(isolated))]
	n := sol.nurses[pick[0]]
	d := pick[1]

	target := d + 1
	if target >= days {
		target = d - 1
	}
	if target < 0 {
		return false
	}

	old := n.shifts[target]
	n.shifts[target] = domain.ShiftNight
	if nightRunAround(n, d) > s.rule.MaxNightRun {
		n.shifts[target] = old
		return false
	}
	return true
}

// repairMonthBoundary 上个月以夜班结尾的护士，合并后的夜班达到或接近上限时截断并安排休息
func (s *Scheduler) repairMonthBoundary(sol *Solution) bool {
	var candidates []int
	for i, n := range sol.nurses {
		if n.tailLast() == domain.ShiftNight {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	n := sol.nurses[candidates[s.rng.Intn(len(candidates))]]
	tailRun := n.tailNightRun()
	lead := 0
	for lead < len(n.shifts) && n.shifts[lead] == domain.ShiftNight {
		lead++
	}
	allowed := max(s.rule.MaxNightRun-tailRun, 0)

	changed := false
	end := lead
	if lead > allowed {
		for d := allowed; d < lead; d++ {
			n.shifts[d] = domain.ShiftOff
		}
		end = allowed
		changed = true
	} else if tailRun+lead < s.rule.MaxNightRun-1 {
		return false
	}

	for k := 0; k < max(1, s.rule.OffDaysAfterNightRun) && end+k < len(n.shifts); k++ {
		if n.shifts[end+k] != domain.ShiftOff {
			n.shifts[end+k] = domain.ShiftOff
			changed = true
		}
	}
	return changed
}

// repairAlternating 把 上-休-上-休 的片段统一为连续上班、连续休息或同一种班次
func (s *Scheduler) repairAlternating(sol *Solution) bool {
	type segment struct {
		nurse, start, length int
	}
	var segments []segment
	for i, n := range sol.nurses {
		for _, seg := range alternatingSegments(n.shifts) {
			segments = append(segments, segment{i, seg[0], seg[1]})
		}
	}
	if len(segments) == 0 {
		return false
	}

	seg := segments[s.rng.Intn(len(segments))]
	n := sol.nurses[seg.nurse]
	span := n.shifts[seg.start : seg.start+seg.length]
	changed := false

	switch s.rng.Intn(3) {
	case 0:
		// 连续上班：休息日沿用前一天的班次
		kinds := n.capability.Kinds()
		if len(kinds) == 0 {
			return false
		}
		for d := range span {
			if span[d].IsWork() {
				continue
			}
			fill := kinds[0]
			if d > 0 && span[d-1].IsWork() && n.canWork(span[d-1]) {
				fill = span[d-1]
			}
			span[d] = fill
			changed = true
		}
	case 1:
		for d := range span {
			if span[d].IsWork() {
				span[d] = domain.ShiftOff
				changed = true
			}
		}
	default:
		counts := make(map[domain.ShiftKind]int)
		best := domain.ShiftKind(0)
		for _, k := range span {
			if !k.IsWork() || !n.canWork(k) {
				continue
			}
			counts[k]++
			if best == 0 || counts[k] > counts[best] {
				best = k
			}
		}
		if best == 0 {
			return false
		}
		for d := range span {
			if span[d].IsWork() && span[d] != best {
				span[d] = best
				changed = true
			}
		}
	}
	return changed
}

// repairConsistency 把中途换班次的一段连续上班统一为开头或结尾的班次
func (s *Scheduler) repairConsistency(sol *Solution) bool {
	type run struct {
		nurse, start, end int
	}
	var runs []run
	for i, n := range sol.nurses {
		for d := 0; d < len(n.shifts); {
			if !n.shifts[d].IsWork() {
				d++
				continue
			}
			start := d
			mixed := false
			for d < len(n.shifts) && n.shifts[d].IsWork() {
				if n.shifts[d] != n.shifts[start] {
					mixed = true
				}
				d++
			}
			if mixed {
				runs = append(runs, run{i, start, d})
			}
		}
	}
	if len(runs) == 0 {
		return false
	}

	r := runs[s.rng.Intn(len(runs))]
	n := sol.nurses[r.nurse]
	front, back := n.shifts[r.start], n.shifts[r.end-1]
	target, other := front, back
	if s.rng.Intn(2) == 1 {
		target, other = back, front
	}
	if !n.canWork(target) {
		target = other
	}
	if !n.canWork(target) {
		return false
	}

	changed := false
	for d := r.start; d < r.end; d++ {
		if n.shifts[d] != target {
			n.shifts[d] = target
			changed = true
		}
	}
	return changed
}
