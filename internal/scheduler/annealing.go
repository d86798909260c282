package scheduler

import (
	"context"
	"math"
	"time"
)

// Hook 每次迭代结束后调用，可用于记录分数曲线
type Hook func(iteration int, currentScore, bestScore, temperature float64)

// Stats 一次退火的运行统计
type Stats struct {
	Iterations   int           `json:"iterations"`
	Accepted     int           `json:"accepted"`
	Improvements int           `json:"improvements"`
	Reheats      int           `json:"reheats"`
	InitialScore float64       `json:"initialScore"`
	BestScore    float64       `json:"bestScore"`
	StoppedEarly bool          `json:"stoppedEarly"` // 因超时或取消提前结束
	Elapsed      time.Duration `json:"elapsed"`
}

func (s *Scheduler) score(sol *Solution) error {
	b, err := s.evaluator.evaluate(sol)
	if err != nil {
		return err
	}
	sol.breakdown = b
	sol.score = b.Total(s.parameters.Weights)
	return nil
}

// accept Metropolis 准则，分数变差很多（大概率违反硬约束）时温度减半
func (s *Scheduler) accept(delta, temperature float64) bool {
	if delta < 0 {
		return true
	}
	if delta > s.parameters.HardConstraintDelta {
		temperature /= 2
	}
	if temperature <= 0 {
		return false
	}
	return s.rng.Float64() < math.Exp(-delta/temperature)
}

// anneal 模拟退火主循环，返回迭代过程中出现过的最优解
// ctx 被取消时直接返回当前最优解
func (s *Scheduler) anneal(ctx context.Context, initial *Solution) (*Solution, Stats, error) {
	start := time.Now()
	stats := Stats{}

	if err := s.score(initial); err != nil {
		return nil, stats, err
	}
	current := initial
	// 邻域操作总是复制后再修改，所以 best 可以直接引用被接受的方案
	best := current
	stats.InitialScore = initial.score

	temperature := s.parameters.InitialTemperature
	noImprovement := 0

loop:
	for iter := 0; iter < s.parameters.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			stats.StoppedEarly = true
			break loop
		default:
		}

		candidate := s.neighbor(current)
		if err := s.score(candidate); err != nil {
			return nil, stats, err
		}
		stats.Iterations++

		accepted := s.accept(candidate.score-current.score, temperature)
		if accepted {
			current = candidate
			stats.Accepted++
		}

		if accepted && candidate.score < best.score {
			best = candidate
			noImprovement = 0
			stats.Improvements++
		} else {
			noImprovement++
		}

		if noImprovement > s.parameters.MaxNoImprovement {
			temperature = s.parameters.InitialTemperature
			noImprovement = 0
			stats.Reheats++
			s.logger.Debug("长时间没有改进，重新升温", "iteration", iter, "best", best.score)
		} else {
			temperature *= s.parameters.CoolingRate
		}

		if s.hook != nil {
			s.hook(iter, current.score, best.score, temperature)
		}
	}

	stats.BestScore = best.score
	stats.Elapsed = time.Since(start)
	return best, stats, nil
}
