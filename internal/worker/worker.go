package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/queue"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/scheduler"
)

// Store 由 *repository.Repository 实现
type Store interface {
	GetUserByID(id int64) (*domain.User, error)
	GetWardByID(id int64) (*domain.Ward, error)
	GetRuleByWardID(wardID int64) (*domain.Rule, error)
	GetActiveNursesByWardID(wardID int64) ([]*domain.Nurse, error)
	GetAcceptedShiftRequests(wardID int64, year, month int) ([]*domain.ShiftRequest, error)
	GetLatestScheduleSnapshot(wardID int64, year, month int) (*domain.ScheduleSnapshot, error)
	InsertScheduleSnapshot(snapshot *domain.ScheduleSnapshot) error
}

// JobStore 由 *queue.JobStore 实现
type JobStore interface {
	Save(ctx context.Context, job *domain.GenerationJob) error
}

type Worker struct {
	cfg       *config.Config
	store     Store
	jobs      JobStore
	publisher queue.Publisher
	calendar  scheduler.DayClassifier
	metrics   *Metrics
	logger    *slog.Logger
}

func New(cfg *config.Config, store Store, jobs JobStore, publisher queue.Publisher, calendar scheduler.DayClassifier, metrics *Metrics) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     store,
		jobs:      jobs,
		publisher: publisher,
		calendar:  calendar,
		metrics:   metrics,
		logger:    slog.Default(),
	}
}

func (w *Worker) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// Consume 处理消息直到 ctx 被取消或者通道关闭
// 任务的成功与否记录在任务状态中，因此除了无法解析的消息以外都会确认
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("消息通道已关闭")
			}

			job := &domain.GenerationJob{}
			if err := json.Unmarshal(msg.Body, job); err != nil {
				w.logger.Error("排班任务反序列化失败", "error", err)
				_ = msg.Nack(false, false)
				continue
			}

			if err := w.Process(ctx, job); err != nil {
				w.logger.Error("自动排班失败", "job", job.ID, "error", err)
			}
			_ = msg.Ack(false)
		}
	}
}

// Process 执行一个排班任务：读取数据、运行模拟退火、保存新版本并通知发起人
func (w *Worker) Process(ctx context.Context, job *domain.GenerationJob) error {
	logger := w.logger.With("job", job.ID, "ward", job.WardID, "year", job.Year, "month", job.Month)
	start := time.Now()

	w.metrics.running.Inc()
	defer w.metrics.running.Dec()

	job.Status = domain.JobRunning
	w.saveJob(ctx, logger, job)

	result, err := w.generate(ctx, logger, job)
	w.metrics.jobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		job.Status = domain.JobFailed
		job.Error = err.Error()
		w.saveJob(ctx, logger, job)
		w.metrics.jobsTotal.WithLabelValues(string(domain.JobFailed)).Inc()
		w.notify(ctx, logger, job, domain.MailTypeRosterFailed, nil)
		return err
	}

	job.Status = domain.JobSucceeded
	job.Score = &result.Score
	job.SnapshotID = &result.Snapshot.ID
	w.saveJob(ctx, logger, job)

	w.metrics.jobsTotal.WithLabelValues(string(domain.JobSucceeded)).Inc()
	w.metrics.bestScore.Observe(result.Score)
	w.metrics.iterations.Observe(float64(result.Stats.Iterations))
	if result.Stats.StoppedEarly {
		w.metrics.stoppedEarly.Inc()
	}

	w.notify(ctx, logger, job, domain.MailTypeRosterGenerated, result)
	logger.Info("自动排班任务完成", "version", result.Snapshot.Version, "score", result.Score, "elapsed", time.Since(start))
	return nil
}

func (w *Worker) generate(ctx context.Context, logger *slog.Logger, job *domain.GenerationJob) (*scheduler.Result, error) {
	input, err := w.buildInput(logger, job)
	if err != nil {
		return nil, err
	}

	s, err := scheduler.New(w.parameters(job), input)
	if err != nil {
		return nil, err
	}
	s.SetLogger(logger)

	result, err := s.Schedule(ctx)
	if err != nil {
		return nil, err
	}

	result.Snapshot.CreatedBy = &job.RequestedBy
	if err := w.store.InsertScheduleSnapshot(result.Snapshot); err != nil {
		return nil, fmt.Errorf("无法保存排班: %w", err)
	}

	return result, nil
}

func (w *Worker) buildInput(logger *slog.Logger, job *domain.GenerationJob) (*scheduler.Input, error) {
	rule, err := w.store.GetRuleByWardID(job.WardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("该病区尚未设置排班规则")
		}
		return nil, err
	}

	nurses, err := w.store.GetActiveNursesByWardID(job.WardID)
	if err != nil {
		return nil, err
	}
	if len(nurses) == 0 {
		return nil, errors.New("该病区没有可以排班的护士")
	}

	current, err := w.latestSnapshot(job.WardID, job.Year, job.Month)
	if err != nil {
		return nil, err
	}

	prevYear, prevMonth := domain.PreviousMonth(job.Year, job.Month)
	prev, err := w.latestSnapshot(job.WardID, prevYear, prevMonth)
	if err != nil {
		return nil, err
	}

	requests, err := w.store.GetAcceptedShiftRequests(job.WardID, job.Year, job.Month)
	if err != nil {
		return nil, err
	}

	// 已离职或调走的护士的申请不再考虑
	roster := make(map[int64]struct{}, len(nurses))
	for _, nurse := range nurses {
		roster[nurse.ID] = struct{}{}
	}
	accepted := make([]*domain.ShiftRequest, 0, len(requests))
	for _, r := range requests {
		if _, ok := roster[r.NurseID]; !ok {
			logger.Warn("忽略不在排班名单中的护士的申请", "request", r.ID, "nurse", r.NurseID)
			continue
		}
		accepted = append(accepted, r)
	}

	return &scheduler.Input{
		CurrentSchedule:      current,
		Rule:                 rule,
		Nurses:               nurses,
		PrevMonthTails:       scheduler.PrevMonthTails(prev),
		Year:                 job.Year,
		Month:                job.Month,
		AcceptedRequests:     accepted,
		CommittedNightCounts: scheduler.CommittedNightCounts(current, nurses),
		Calendar:             w.calendar,
	}, nil
}

// latestSnapshot 不存在时返回 nil
func (w *Worker) latestSnapshot(wardID int64, year, month int) (*domain.ScheduleSnapshot, error) {
	snapshot, err := w.store.GetLatestScheduleSnapshot(wardID, year, month)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot, nil
}

func (w *Worker) parameters(job *domain.GenerationJob) *scheduler.Parameters {
	sc := w.cfg.Scheduler

	p := scheduler.DefaultParameters()
	p.InitialTemperature = sc.InitialTemperature
	p.CoolingRate = sc.CoolingRate
	p.MaxIterations = sc.MaxIterations
	p.MaxNoImprovement = sc.MaxNoImprovement
	p.HardConstraintDelta = sc.HardConstraintDelta
	p.Timeout = time.Duration(sc.Timeout) * time.Second
	if job.TimeoutSeconds > 0 {
		p.Timeout = time.Duration(job.TimeoutSeconds) * time.Second
	}
	p.Seed = job.Seed

	p.Weights.Staffing = sc.Weights.Staffing
	p.Weights.Consecutive = sc.Weights.Consecutive
	p.Weights.Boundary = sc.Weights.Boundary
	p.Weights.Capability = sc.Weights.Capability
	p.Weights.Requests = sc.Weights.Requests
	p.Weights.Patterns = sc.Weights.Patterns
	p.Weights.NOD = sc.Weights.NOD
	p.Weights.Workload = sc.Weights.Workload
	p.Weights.Intensity = sc.Weights.Intensity
	p.Weights.Alternating = sc.Weights.Alternating
	p.Weights.Consistency = sc.Weights.Consistency

	return p
}

func (w *Worker) saveJob(ctx context.Context, logger *slog.Logger, job *domain.GenerationJob) {
	job.UpdatedAt = time.Now()

	// 任务可能因为 ctx 被取消而结束，状态仍然需要写回
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(w.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := w.jobs.Save(saveCtx, job); err != nil {
		logger.Error("无法更新排班任务状态", "status", job.Status, "error", err)
	}
}

// notify 给任务发起人发送邮件，失败只记录日志
func (w *Worker) notify(ctx context.Context, logger *slog.Logger, job *domain.GenerationJob, mailType string, result *scheduler.Result) {
	user, err := w.store.GetUserByID(job.RequestedBy)
	if err != nil {
		logger.Error("无法获取任务发起人", "user", job.RequestedBy, "error", err)
		return
	}

	msg := domain.MailMessage{
		Type: mailType,
		To:   user.Email,
	}

	switch mailType {
	case domain.MailTypeRosterGenerated:
		wardName := ""
		if ward, err := w.store.GetWardByID(job.WardID); err == nil {
			wardName = ward.Name
		}
		msg.Data = domain.RosterGeneratedMailData{
			FullName: user.FullName,
			WardName: wardName,
			Year:     job.Year,
			Month:    job.Month,
			Version:  result.Snapshot.Version,
			Score:    result.Score,
		}
	default:
		msg.Data = domain.RosterFailedMailData{
			FullName: user.FullName,
			Year:     job.Year,
			Month:    job.Month,
			Reason:   job.Error,
		}
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(w.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := queue.PublishJSON(pubCtx, w.publisher, w.cfg.RabbitMQ.EmailQueue, msg); err != nil {
		logger.Error("无法投递通知邮件", "type", mailType, "error", err)
	}
}
