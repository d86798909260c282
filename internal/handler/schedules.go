package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/queue"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func (h *Handler) GetLatestSchedule(w http.ResponseWriter, r *http.Request) {
	ward := r.Context().Value(WardCtx).(*domain.Ward)

	year, month, err := utils.ParseYearMonth(chi.URLParam(r, "yearMonth"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	snapshot, err := h.repository.GetLatestScheduleSnapshot(ward.ID, year, month)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该月尚无排班")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班成功", snapshot)
}

// GenerateSchedule 创建一个自动排班任务并投递到消息队列，由 worker 异步执行
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	ward := r.Context().Value(WardCtx).(*domain.Ward)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	year, month, err := utils.ParseYearMonth(chi.URLParam(r, "yearMonth"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req struct {
		Seed           *int64 `json:"seed"`
		TimeoutSeconds int    `json:"timeoutSeconds" validate:"min=0"`
	}

	if err := h.readOptionalJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.TimeoutSeconds > h.config.Scheduler.MaxTimeout {
		h.badRequest(w, r, fmt.Errorf("排班时限不能超过 %d 秒", h.config.Scheduler.MaxTimeout))
		return
	}

	// 没有排班规则时无法排班，提前告诉用户
	if _, err := h.repository.GetRuleByWardID(ward.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该病区尚未设置排班规则")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	now := time.Now()
	job := &domain.GenerationJob{
		ID:             uuid.NewString(),
		WardID:         ward.ID,
		Year:           year,
		Month:          month,
		Seed:           req.Seed,
		TimeoutSeconds: req.TimeoutSeconds,
		RequestedBy:    myInfo.ID,
		Status:         domain.JobQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.jobs.Save(ctx, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	pubCtx, pubCancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer pubCancel()

	if err := queue.PublishJSON(pubCtx, h.channel, h.config.RabbitMQ.GenerationQueue, job); err != nil {
		// 投递失败时把任务标记为失败，避免前端一直轮询
		job.Status = domain.JobFailed
		job.Error = "任务投递失败"
		job.UpdatedAt = time.Now()
		if saveErr := h.jobs.Save(ctx, job); saveErr != nil {
			slog.Error("无法更新排班任务状态", "job", job.ID, "error", saveErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班任务已提交", job)
}

func (h *Handler) GetGenerationJob(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	jobID := chi.URLParam(r, "jobID")
	if _, err := uuid.Parse(jobID); err != nil {
		h.errorResponse(w, r, "任务ID无效")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrJobNotFound):
			h.errorResponse(w, r, "排班任务不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if !canAccessWard(myInfo, job.WardID) {
		h.errorResponse(w, r, "权限不足")
		return
	}

	h.successResponse(w, r, "获取排班任务成功", job)
}
