package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

var ErrJobNotFound = errors.New("排班任务不存在或已过期")

// JobStore 排班任务的状态保存在 redis 中，过期后自动删除
type JobStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewJobStore(rdb *redis.Client, ttl time.Duration) *JobStore {
	return &JobStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func jobKey(id string) string {
	return fmt.Sprintf("generation_job_%s", id)
}

func (s *JobStore) Save(ctx context.Context, job *domain.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobKey(job.ID), data, s.ttl).Err()
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.GenerationJob, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	job := &domain.GenerationJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, err
	}
	return job, nil
}
