package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var wardID int64
	var yearMonth string
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机病区, 2: 从 csv 导入护士名单)")
	flag.IntVar(&n, "n", 0, "随机病区的护士数量，为 0 时使用配置中的数量")
	flag.Int64Var(&wardID, "ward-id", 0, "导入护士名单的病区 ID")
	flag.StringVar(&yearMonth, "year-month", "", "生成排班申请的年月，如 2025-06，为空时不生成")
	flag.StringVar(&file, "file", "", "护士名单 csv 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			n = cfg.Seed.NurseCount
		}

		opts := seed.WardOptions{
			Name:             cfg.Seed.WardName,
			NurseCount:       n,
			Password:         cfg.Seed.User.Password,
			EmailDomain:      cfg.Email.UserDomain,
			RequestsPerNurse: cfg.Seed.RequestsPerNurse,
		}
		if yearMonth != "" {
			opts.Year, opts.Month, err = utils.ParseYearMonth(yearMonth)
			if err != nil {
				logger.Error("年月格式错误", "error", err)
				return
			}
		}

		ward, err := seed.SeedRandomWard(repo, opts)
		if err != nil {
			logger.Error("无法生成随机病区", "error", err)
			return
		}
		logger.Info("插入随机病区成功", "ward", ward.ID, "name", ward.Name)
	case 2:
		if wardID <= 0 || file == "" {
			logger.Error("请指定病区 ID 和 csv 文件")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			logger.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		cnt, err := seed.ImportNurses(repo, wardID, f)
		if err != nil {
			logger.Error("导入护士名单失败", "imported", cnt, "error", err)
			return
		}
		logger.Info("导入护士名单成功", "count", cnt)
	default:
		logger.Error("指定的操作非法")
	}
}
