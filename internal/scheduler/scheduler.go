package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

var ErrInvalidInput = errors.New("排班输入不合法")

const maxTailLength = 4

// Input 一次自动排班需要的全部数据
type Input struct {
	CurrentSchedule      *domain.ScheduleSnapshot // 要被覆盖的当前版本，可以为 nil
	Rule                 *domain.Rule
	Nurses               []*domain.Nurse
	PrevMonthTails       map[int64]string // 护士 ID -> 上个月最后不超过 4 天的班次
	Year                 int
	Month                int
	AcceptedRequests     []*domain.ShiftRequest
	CommittedNightCounts map[int]int // 日期（从 1 开始）-> 专职夜班护士已承担的人数
	Calendar             DayClassifier
}

// Result 自动排班的结果
type Result struct {
	Snapshot  *domain.ScheduleSnapshot `json:"snapshot"`
	Score     float64                  `json:"score"`
	Breakdown Breakdown                `json:"breakdown"`
	Stats     Stats                    `json:"stats"`
}

type Scheduler struct {
	parameters   *Parameters
	input        *Input
	rule         domain.Rule
	nurses       []*Nurse // 模板，shifts 为空
	requirements []DailyRequirement
	evaluator    *evaluator
	rng          *rand.Rand
	logger       *slog.Logger
	hook         Hook
}

func New(parameters *Parameters, input *Input) (*Scheduler, error) {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if err := validateInput(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	seed := time.Now().UnixNano()
	if parameters.Seed != nil {
		seed = *parameters.Seed
	}

	s := &Scheduler{
		parameters:   parameters,
		input:        input,
		rule:         *input.Rule,
		nurses:       make([]*Nurse, len(input.Nurses)),
		requirements: CalculateDemand(input.Rule, input.Year, input.Month, input.Calendar, input.CommittedNightCounts),
		rng:          rand.New(rand.NewSource(seed)),
		logger:       slog.Default(),
	}

	index := make(map[int64]int, len(input.Nurses))
	for i, nurse := range input.Nurses {
		index[nurse.ID] = i
		// 校验过后这里不会出错
		tail, _ := domain.ParseShifts(input.PrevMonthTails[nurse.ID])
		s.nurses[i] = &Nurse{
			id:         nurse.ID,
			capability: nurse.Capability,
			intensity:  nurse.Intensity,
			tail:       tail,
		}
	}

	requests := make([][]request, len(input.Nurses))
	for _, r := range input.AcceptedRequests {
		i := index[r.NurseID]
		requests[i] = append(requests[i], request{
			day:        r.Day - 1,
			kind:       r.RequestedShift,
			reinforced: r.Reinforced,
		})
	}
	s.evaluator = &evaluator{
		rule:     s.rule,
		weights:  parameters.Weights,
		requests: requests,
	}

	return s, nil
}

func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Scheduler) SetHook(hook Hook) {
	s.hook = hook
}

// Schedule 构造初始解并进行模拟退火，返回新版本的排班快照
func (s *Scheduler) Schedule(ctx context.Context) (*Result, error) {
	if s.parameters.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.parameters.Timeout)
		defer cancel()
	}

	s.logger.Info("开始自动排班",
		"ward", s.rule.WardID,
		"year", s.input.Year,
		"month", s.input.Month,
		"nurses", len(s.nurses),
		"maxIterations", s.parameters.MaxIterations,
	)

	initial := s.buildInitialSolution()
	best, stats, err := s.anneal(ctx, initial)
	if err != nil {
		return nil, err
	}

	s.logger.Info("自动排班完成",
		"initialScore", stats.InitialScore,
		"bestScore", stats.BestScore,
		"iterations", stats.Iterations,
		"reheats", stats.Reheats,
		"stoppedEarly", stats.StoppedEarly,
		"elapsed", stats.Elapsed,
	)

	snapshot := s.toSnapshot(best)

	// 最后检查一下结果是否满足班次能力的约束
	if err := utils.ValidateSnapshotWithRoster(snapshot, s.input.Nurses); err != nil {
		return nil, err
	}

	return &Result{
		Snapshot:  snapshot,
		Score:     best.score,
		Breakdown: best.breakdown,
		Stats:     stats,
	}, nil
}

// Generate 是 New + Schedule 的简便写法
func Generate(ctx context.Context, parameters *Parameters, input *Input) (*Result, error) {
	s, err := New(parameters, input)
	if err != nil {
		return nil, err
	}
	return s.Schedule(ctx)
}

// toSnapshot 用最优解覆盖当前版本，不在本次排班名单中的护士保持原样
func (s *Scheduler) toSnapshot(best *Solution) *domain.ScheduleSnapshot {
	snapshot := &domain.ScheduleSnapshot{
		WardID:     s.rule.WardID,
		Year:       s.input.Year,
		Month:      s.input.Month,
		Version:    1,
		HistoryTag: domain.HistoryTagAutoGenerated,
		Rows:       make([]domain.ScheduleSnapshotRow, 0, len(best.nurses)),
	}

	generated := make(map[int64]string, len(best.nurses))
	for _, n := range best.nurses {
		generated[n.id] = domain.FormatShifts(n.shifts)
	}

	if cur := s.input.CurrentSchedule; cur != nil {
		snapshot.Version = cur.Version + 1
		for _, row := range cur.Rows {
			if shifts, ok := generated[row.NurseID]; ok {
				row.Shifts = shifts
				delete(generated, row.NurseID)
			}
			snapshot.Rows = append(snapshot.Rows, row)
		}
	}

	for _, n := range best.nurses {
		if shifts, ok := generated[n.id]; ok {
			snapshot.Rows = append(snapshot.Rows, domain.ScheduleSnapshotRow{NurseID: n.id, Shifts: shifts})
		}
	}

	return snapshot
}

func validateInput(input *Input) error {
	if input == nil {
		return errors.New("输入为空")
	}
	if input.Month < 1 || input.Month > 12 || input.Year < 1 {
		return fmt.Errorf("年月 %d-%d 不合法", input.Year, input.Month)
	}
	if err := utils.ValidateRule(input.Rule); err != nil {
		return err
	}

	days := domain.DaysIn(input.Year, input.Month)

	roster := make(map[int64]struct{}, len(input.Nurses))
	for _, nurse := range input.Nurses {
		if nurse == nil {
			return errors.New("护士名单中存在空项")
		}
		if _, exists := roster[nurse.ID]; exists {
			return fmt.Errorf("护士 %d 重复出现", nurse.ID)
		}
		roster[nurse.ID] = struct{}{}
		if err := nurse.Capability.Validate(); err != nil {
			return fmt.Errorf("护士 %d: %w", nurse.ID, err)
		}
		if err := nurse.Intensity.Validate(); err != nil {
			return fmt.Errorf("护士 %d: %w", nurse.ID, err)
		}
	}

	for nurseID, tail := range input.PrevMonthTails {
		if len(tail) > maxTailLength {
			return fmt.Errorf("护士 %d 的上月班次 %q 超过 %d 天", nurseID, tail, maxTailLength)
		}
		if _, err := domain.ParseShifts(tail); err != nil {
			return fmt.Errorf("护士 %d 的上月班次: %w", nurseID, err)
		}
	}

	for _, r := range input.AcceptedRequests {
		if r == nil {
			return errors.New("排班申请中存在空项")
		}
		if _, ok := roster[r.NurseID]; !ok {
			return fmt.Errorf("排班申请 %d 对应的护士 %d 不在名单中", r.ID, r.NurseID)
		}
		if r.Day < 1 || r.Day > days {
			return fmt.Errorf("排班申请 %d 的日期 %d 超出范围", r.ID, r.Day)
		}
		if (r.Year != 0 || r.Month != 0) && (r.Year != input.Year || r.Month != input.Month) {
			return fmt.Errorf("排班申请 %d 不属于 %d-%d", r.ID, input.Year, input.Month)
		}
		if k, err := domain.ParseShiftKind(byte(r.RequestedShift)); err != nil || k == domain.ShiftLocked {
			return fmt.Errorf("排班申请 %d 的班次 %q 不合法", r.ID, byte(r.RequestedShift))
		}
	}

	for day := range input.CommittedNightCounts {
		if day < 1 || day > days {
			return fmt.Errorf("专职夜班人数的日期 %d 超出范围", day)
		}
	}

	if cur := input.CurrentSchedule; cur != nil {
		if cur.Year != input.Year || cur.Month != input.Month {
			return fmt.Errorf("当前排班属于 %d-%d 而不是 %d-%d", cur.Year, cur.Month, input.Year, input.Month)
		}
		if err := utils.ValidateSnapshotShape(cur); err != nil {
			return err
		}
	}

	return nil
}

// PrevMonthTails 从上个月的排班中取出每个护士最后 4 天的班次
func PrevMonthTails(prev *domain.ScheduleSnapshot) map[int64]string {
	tails := make(map[int64]string)
	if prev == nil {
		return tails
	}
	for _, row := range prev.Rows {
		shifts := row.Shifts
		if len(shifts) > maxTailLength {
			shifts = shifts[len(shifts)-maxTailLength:]
		}
		tails[row.NurseID] = shifts
	}
	return tails
}

// CommittedNightCounts 统计不参与本次排班的护士（专职夜班等）在当前排班中已经承担的夜班人数
func CommittedNightCounts(snapshot *domain.ScheduleSnapshot, roster []*domain.Nurse) map[int]int {
	counts := make(map[int]int)
	if snapshot == nil {
		return counts
	}

	inRoster := make(map[int64]struct{}, len(roster))
	for _, nurse := range roster {
		inRoster[nurse.ID] = struct{}{}
	}

	for _, row := range snapshot.Rows {
		if _, ok := inRoster[row.NurseID]; ok {
			continue
		}
		for d := 0; d < len(row.Shifts); d++ {
			if domain.ShiftKind(row.Shifts[d]) == domain.ShiftNight {
				counts[d+1]++
			}
		}
	}
	return counts
}
