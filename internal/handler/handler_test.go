package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/queue"
)

const testSecret = "test-secret"

type fakeRepository struct {
	users     map[int64]*domain.User
	wards     map[int64]*domain.Ward
	rules     map[int64]*domain.Rule
	snapshots map[string]*domain.ScheduleSnapshot
	created   []*domain.User
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[int64]*domain.User),
		wards:     make(map[int64]*domain.Ward),
		rules:     make(map[int64]*domain.Rule),
		snapshots: make(map[string]*domain.ScheduleSnapshot),
	}
}

func snapshotKey(wardID int64, year, month int) string {
	return strconv.FormatInt(wardID, 10) + "/" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (f *fakeRepository) GetUserByID(id int64) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetUserByUsername(username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) CreateUser(user *domain.User) error {
	user.ID = int64(100 + len(f.created))
	user.IsActive = true
	f.created = append(f.created, user)
	return nil
}

func (f *fakeRepository) GetWardByID(id int64) (*domain.Ward, error) {
	if w, ok := f.wards[id]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetRuleByWardID(wardID int64) (*domain.Rule, error) {
	if r, ok := f.rules[wardID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetLatestScheduleSnapshot(wardID int64, year, month int) (*domain.ScheduleSnapshot, error) {
	if s, ok := f.snapshots[snapshotKey(wardID, year, month)]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type fakePublisher struct {
	mu        sync.Mutex
	published map[string][][]byte
	err       error
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.published == nil {
		p.published = make(map[string][][]byte)
	}
	p.published[key] = append(p.published[key], msg.Body)
	return nil
}

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.GenerationJob
}

func (s *fakeJobStore) Save(ctx context.Context, job *domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[string]domain.GenerationJob)
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *fakeJobStore) Get(ctx context.Context, id string) (*domain.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, queue.ErrJobNotFound
	}
	return &job, nil
}

type testEnv struct {
	handler   *Handler
	repo      *fakeRepository
	publisher *fakePublisher
	jobs      *fakeJobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.Expiration = 3600
	cfg.RabbitMQ.PublishTimeout = 5
	cfg.RabbitMQ.EmailQueue = "email_queue"
	cfg.RabbitMQ.GenerationQueue = "roster_generation_queue"
	cfg.Redis.OperationExpiration = 5
	cfg.Scheduler.MaxTimeout = 600
	cfg.NewUser.PasswordLength = 12

	env := &testEnv{
		repo:      newFakeRepository(),
		publisher: &fakePublisher{},
		jobs:      &fakeJobStore{},
	}

	wardID := int64(1)
	otherWard := int64(2)
	env.repo.wards[1] = &domain.Ward{ID: 1, Name: "心内科一病区"}
	env.repo.wards[2] = &domain.Ward{ID: 2, Name: "骨科病区"}
	env.repo.rules[1] = &domain.Rule{WardID: 1, MaxConsecutiveShift: 5, MaxNightRun: 3, MinNightRun: 2}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	env.repo.users[1] = &domain.User{ID: 1, WardID: &wardID, Username: "head", PasswordHash: string(hash), FullName: "王护士长", Role: domain.RoleHeadNurse, IsActive: true}
	env.repo.users[2] = &domain.User{ID: 2, WardID: &wardID, Username: "nurse", PasswordHash: string(hash), FullName: "李护士", Role: domain.RoleNurse, IsActive: true}
	env.repo.users[3] = &domain.User{ID: 3, WardID: &otherWard, Username: "other", PasswordHash: string(hash), FullName: "赵护士长", Role: domain.RoleHeadNurse, IsActive: true}
	env.repo.users[4] = &domain.User{ID: 4, Username: "admin", PasswordHash: string(hash), FullName: "管理员", Role: domain.RoleAdmin, IsActive: true}

	h, err := NewHandler(cfg, env.repo, env.publisher, env.jobs)
	require.NoError(t, err)
	h.RegisterRoutes()
	env.handler = h

	return env
}

func (env *testEnv) token(t *testing.T, userID int64) *http.Cookie {
	t.Helper()
	user := env.repo.users[userID]
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})
	ss, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: tokenCookieName, Value: ss}
}

// do 发送请求并解析统一的响应格式，userID 为 0 表示不带令牌
func (env *testEnv) do(t *testing.T, method, path string, body string, userID int64) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID != 0 {
		req.AddCookie(env.token(t, userID))
	}

	rec := httptest.NewRecorder()
	env.handler.Mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}
