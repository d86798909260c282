package scheduler

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// Nurse: 排班过程中的一名护士，每天一个班次
type Nurse struct {
	id         int64
	shifts     []domain.ShiftKind // 长度等于当月天数
	capability domain.ShiftCapability
	intensity  domain.WorkIntensity
	tail       []domain.ShiftKind // 上个月最后几天的班次，没有历史时为空，只读
}

func (n *Nurse) canWork(k domain.ShiftKind) bool {
	return n.capability.Has(k)
}

// tailLast 返回上个月最后一天的班次，没有历史时视为休息
func (n *Nurse) tailLast() domain.ShiftKind {
	if len(n.tail) == 0 {
		return domain.ShiftOff
	}
	return n.tail[len(n.tail)-1]
}

func (n *Nurse) tailRun(match func(domain.ShiftKind) bool) int {
	cnt := 0
	for i := len(n.tail) - 1; i >= 0 && match(n.tail[i]); i-- {
		cnt++
	}
	return cnt
}

func (n *Nurse) tailNightRun() int {
	return n.tailRun(func(k domain.ShiftKind) bool { return k == domain.ShiftNight })
}

func (n *Nurse) tailWorkRun() int {
	return n.tailRun(domain.ShiftKind.IsWork)
}

func (n *Nurse) tailOffRun() int {
	return n.tailRun(func(k domain.ShiftKind) bool { return k == domain.ShiftOff || k == domain.ShiftLocked })
}

// prevKind 返回第 d 天前一天的班次（第一天则看上个月）
func (n *Nurse) prevKind(d int) domain.ShiftKind {
	if d > 0 {
		return n.shifts[d-1]
	}
	return n.tailLast()
}

// workRunBefore 返回截止到第 d 天之前（不含）的连续上班天数，包括上个月的部分
func (n *Nurse) workRunBefore(d int) int {
	cnt := 0
	for i := d - 1; i >= 0; i-- {
		if !n.shifts[i].IsWork() {
			return cnt
		}
		cnt++
	}
	return cnt + n.tailWorkRun()
}

// nightRunBefore 返回截止到第 d 天之前（不含）的连续夜班天数，包括上个月的部分
func (n *Nurse) nightRunBefore(d int) int {
	cnt := 0
	for i := d - 1; i >= 0; i-- {
		if n.shifts[i] != domain.ShiftNight {
			return cnt
		}
		cnt++
	}
	return cnt + n.tailNightRun()
}

func (n *Nurse) workDays() int {
	cnt := 0
	for _, k := range n.shifts {
		if k.IsWork() {
			cnt++
		}
	}
	return cnt
}

// DailyRequirement: 某一天各班次需要的人数，夜班人数可能小于等于 0（表示已由专职夜班护士满足）
type DailyRequirement struct {
	Day           int // 从 1 开始
	Date          time.Time
	Weekend       bool
	DayNeeded     int
	EveningNeeded int
	NightNeeded   int
}

func (r DailyRequirement) needed(k domain.ShiftKind) int {
	var n int
	switch k {
	case domain.ShiftDay:
		n = r.DayNeeded
	case domain.ShiftEvening:
		n = r.EveningNeeded
	case domain.ShiftNight:
		n = r.NightNeeded
	}
	return max(n, 0)
}

// Solution: 一个完整的排班方案，邻域操作总是在副本上进行
type Solution struct {
	nurses       []*Nurse
	requirements []DailyRequirement // 只读，多个方案之间共享
	score        float64
	breakdown    Breakdown
}

func (sol *Solution) Clone() *Solution {
	c := &Solution{
		nurses:       make([]*Nurse, len(sol.nurses)),
		requirements: sol.requirements,
		score:        sol.score,
		breakdown:    sol.breakdown,
	}
	for i, n := range sol.nurses {
		cn := *n
		cn.shifts = slices.Clone(n.shifts)
		c.nurses[i] = &cn
	}
	return c
}

func (sol *Solution) Score() float64 {
	return sol.score
}

func (sol *Solution) Breakdown() Breakdown {
	return sol.breakdown
}

func (sol *Solution) days() int {
	return len(sol.requirements)
}

// countOn 统计第 d 天上某个班次的人数
func (sol *Solution) countOn(d int, k domain.ShiftKind) int {
	cnt := 0
	for _, n := range sol.nurses {
		if n.shifts[d] == k {
			cnt++
		}
	}
	return cnt
}

// 排班参数
type Parameters struct {
	InitialTemperature  float64       // 初始温度
	CoolingRate         float64       // 冷却速率
	MaxIterations       int           // 最大迭代次数
	MaxNoImprovement    int           // 连续多少次没有改进就重新升温
	HardConstraintDelta float64       // 分数变差超过该值时，计算接受概率前温度减半
	Timeout             time.Duration // 为 0 表示不限时
	Seed                *int64        // 为 nil 时使用当前时间作为种子
	Weights             Weights
}

func DefaultParameters() *Parameters {
	return &Parameters{
		InitialTemperature:  1000.0,
		CoolingRate:         0.995,
		MaxIterations:       150000,
		MaxNoImprovement:    3000,
		HardConstraintDelta: 10000,
		Weights:             DefaultWeights(),
	}
}
