package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/queue"
)

// Repository 由 *repository.Repository 实现
type Repository interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	CreateUser(user *domain.User) error
	GetWardByID(id int64) (*domain.Ward, error)
	GetRuleByWardID(wardID int64) (*domain.Rule, error)
	GetLatestScheduleSnapshot(wardID int64, year, month int) (*domain.ScheduleSnapshot, error)
}

// JobStore 由 *queue.JobStore 实现
type JobStore interface {
	Save(ctx context.Context, job *domain.GenerationJob) error
	Get(ctx context.Context, id string) (*domain.GenerationJob, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Repository
	translator ut.Translator
	channel    queue.Publisher
	jobs       JobStore

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, ch queue.Publisher, jobs JobStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		channel:    ch,
		jobs:       jobs,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Get("/my-info", h.GetMyInfo)

		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/users", h.CreateUser)

		r.Route("/wards/{wardID}", func(r chi.Router) {
			r.Use(h.ward)
			r.Route("/schedules/{yearMonth}", func(r chi.Router) {
				r.Get("/", h.GetLatestSchedule)
				r.With(h.RequiredRole([]domain.Role{domain.RoleHeadNurse, domain.RoleAdmin})).Post("/generate", h.GenerateSchedule)
			})
		})

		r.Get("/generation-jobs/{jobID}", h.GetGenerationJob)
	})
}
