package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/queue"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	holidays, err := calendar.ParseHolidays(cfg.Calendar.Holidays)
	if err != nil {
		logger.Error("无法解析节假日配置", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库、rabbitmq 和 redis
	 **********************************************/
	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	// worker 消费排班任务并投递通知邮件
	conn, ch, err := queue.Dial(cfg, cfg.RabbitMQ.EmailQueue, cfg.RabbitMQ.GenerationQueue)
	if err != nil {
		logger.Error("无法初始化消息队列", "error", err)
		return
	}
	defer conn.Close()
	defer ch.Close()

	// 每个消费者同一时间只处理一个排班任务
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	rdb, err := queue.NewRedisClient(cfg)
	if err != nil {
		logger.Error("无法初始化 redis", "error", err)
		return
	}
	defer rdb.Close()

	/**********************************************
	 * 创建 worker
	 **********************************************/
	metrics := worker.NewMetrics()
	w := worker.New(cfg, repo, queue.NewJobStore(rdb, time.Duration(cfg.Redis.JobStatusTTL)*time.Second), ch, calendar.New(holidays), metrics)
	w.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Worker.Concurrency; i++ {
		msgs, err := ch.Consume(
			cfg.RabbitMQ.GenerationQueue,
			fmt.Sprintf("roster-worker-%d", i),
			false, // 手动确认
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Error("无法消费消息", "error", err)
			return
		}

		g.Go(func() error {
			return w.Consume(gctx, msgs)
		})
	}

	/**********************************************
	 * 启动 metrics 服务器
	 **********************************************/
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		logger.Info("正在启动 metrics 服务器...", "addr", cfg.Worker.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("等待排班任务...（按 CTRL+C 退出）", "concurrency", cfg.Worker.Concurrency)
	if err := g.Wait(); err != nil {
		logger.Error("worker 异常退出", "error", err)
		return
	}
	logger.Info("worker 已成功关闭")
}
