package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func TestGetLatestSchedule(t *testing.T) {
	env := newTestEnv(t)
	env.repo.snapshots[snapshotKey(1, 2025, 6)] = &domain.ScheduleSnapshot{
		ID:         9,
		WardID:     1,
		Year:       2025,
		Month:      6,
		Version:    2,
		HistoryTag: domain.HistoryTagAutoGenerated,
		Rows:       []domain.ScheduleSnapshotRow{{NurseID: 1, Shifts: "DDEEN"}},
	}

	_, resp := env.do(t, http.MethodGet, "/wards/1/schedules/2025-06", "", 2)
	require.True(t, resp.Success, resp.Message)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, domain.HistoryTagAutoGenerated, data["historyTag"])

	_, resp = env.do(t, http.MethodGet, "/wards/1/schedules/2025-07", "", 2)
	assert.False(t, resp.Success)
	assert.Equal(t, "该月尚无排班", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/wards/1/schedules/2025-13", "", 2)
	assert.False(t, resp.Success)
}

func TestWardAccess(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/wards/1/schedules/2025-06", "", 3)
	assert.False(t, resp.Success)
	assert.Equal(t, "无权访问该病区", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/wards/abc/schedules/2025-06", "", 3)
	assert.Equal(t, "病区ID无效", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/wards/9/schedules/2025-06", "", 4)
	assert.Equal(t, "病区不存在", resp.Message)
}

func TestGenerateSchedule(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/wards/1/schedules/2025-06/generate", `{"seed":42,"timeoutSeconds":30}`, 1)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "排班任务已提交", resp.Message)

	data := resp.Data.(map[string]any)
	jobID := data["id"].(string)
	_, err := uuid.Parse(jobID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.JobQueued), data["status"])

	stored, err := env.jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobQueued, stored.Status)
	assert.Equal(t, int64(1), stored.RequestedBy)

	bodies := env.publisher.published["roster_generation_queue"]
	require.Len(t, bodies, 1)
	var published domain.GenerationJob
	require.NoError(t, json.Unmarshal(bodies[0], &published))
	assert.Equal(t, jobID, published.ID)
	assert.Equal(t, 2025, published.Year)
	assert.Equal(t, 6, published.Month)
	require.NotNil(t, published.Seed)
	assert.Equal(t, int64(42), *published.Seed)
	assert.Equal(t, 30, published.TimeoutSeconds)
}

func TestGenerateScheduleWithoutBody(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/wards/1/schedules/2025-06/generate", "", 4)
	require.True(t, resp.Success, resp.Message)
	assert.Len(t, env.publisher.published["roster_generation_queue"], 1)
}

func TestGenerateScheduleRejections(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		body    string
		userID  int64
		message string
	}{
		{"普通护士不能排班", "/wards/1/schedules/2025-06/generate", "", 2, "权限不足"},
		{"其他病区的护士长", "/wards/1/schedules/2025-06/generate", "", 3, "无权访问该病区"},
		{"时限过长", "/wards/1/schedules/2025-06/generate", `{"timeoutSeconds":3600}`, 1, "排班时限不能超过 600 秒"},
		{"没有排班规则", "/wards/2/schedules/2025-06/generate", "", 3, "该病区尚未设置排班规则"},
		{"未知字段", "/wards/1/schedules/2025-06/generate", `{"populationSize":10}`, 1, "请求体格式错误"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, resp := env.do(t, http.MethodPost, tc.path, tc.body, tc.userID)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Message)
			assert.Empty(t, env.publisher.published)
		})
	}
}

func TestGenerateScheduleMarksJobFailedWhenPublishFails(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("通道已关闭")

	rec, resp := env.do(t, http.MethodPost, "/wards/1/schedules/2025-06/generate", "", 1)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)

	require.Len(t, env.jobs.jobs, 1)
	for _, job := range env.jobs.jobs {
		assert.Equal(t, domain.JobFailed, job.Status)
	}
}

func TestGetGenerationJob(t *testing.T) {
	env := newTestEnv(t)
	jobID := uuid.NewString()
	require.NoError(t, env.jobs.Save(context.Background(), &domain.GenerationJob{ID: jobID, WardID: 1, Status: domain.JobRunning}))

	_, resp := env.do(t, http.MethodGet, "/generation-jobs/"+jobID, "", 2)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, string(domain.JobRunning), resp.Data.(map[string]any)["status"])

	_, resp = env.do(t, http.MethodGet, "/generation-jobs/"+jobID, "", 3)
	assert.Equal(t, "权限不足", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/generation-jobs/"+uuid.NewString(), "", 4)
	assert.Equal(t, "排班任务不存在或已过期", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/generation-jobs/not-a-uuid", "", 4)
	assert.Equal(t, "任务ID无效", resp.Message)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/users", `{"wardID":1,"username":"newnurse","fullName":"陈护士","email":"chen@example.com","role":"护士"}`, 4)
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.repo.created, 1)
	assert.Equal(t, domain.RoleNurse, env.repo.created[0].Role)

	mails := env.publisher.published["email_queue"]
	require.Len(t, mails, 1)
	var msg struct {
		Type string `json:"type"`
		To   string `json:"to"`
		Data struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(mails[0], &msg))
	assert.Equal(t, domain.MailTypeCreateUser, msg.Type)
	assert.Equal(t, "chen@example.com", msg.To)
	assert.Len(t, msg.Data.Password, 12)

	_, resp = env.do(t, http.MethodPost, "/users", `{"username":"x","fullName":"x","email":"x@example.com","role":"护士"}`, 4)
	assert.Equal(t, "请指定所属病区", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/users", `{"wardID":1,"username":"x","fullName":"x","email":"x@example.com","role":"护士"}`, 1)
	assert.Equal(t, "权限不足", resp.Message)
}
