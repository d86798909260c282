package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// Repository 由 *repository.Repository 实现
type Repository interface {
	CreateWard(ward *domain.Ward) error
	CreateUser(user *domain.User) error
	UpsertRule(rule *domain.Rule) error
	CreateNurse(nurse *domain.Nurse) error
	CreateShiftRequest(req *domain.ShiftRequest) error
}

type WardOptions struct {
	Name             string
	NurseCount       int
	Password         string // 护士长账号的密码
	EmailDomain      string
	Year             int // 为 0 时不生成排班申请
	Month            int
	RequestsPerNurse int
}

// SeedRandomWard 创建一个随机病区：护士长账号、排班规则、护士以及已通过的排班申请
func SeedRandomWard(r Repository, opts WardOptions) (*domain.Ward, error) {
	if opts.NurseCount <= 0 {
		return nil, errors.New("护士数量必须大于 0")
	}

	ward := &domain.Ward{
		Name:        opts.Name,
		Description: "随机生成的测试病区",
	}
	if err := r.CreateWard(ward); err != nil {
		return nil, fmt.Errorf("插入病区失败: %w", err)
	}

	headNurse, err := utils.GenerateRandomHeadNurse(ward.ID, opts.Password, opts.EmailDomain)
	if err != nil {
		return nil, err
	}
	if err := r.CreateUser(headNurse); err != nil {
		return nil, fmt.Errorf("插入护士长失败: %w", err)
	}
	slog.Info("已创建护士长账号", "username", headNurse.Username)

	rule := utils.GenerateRandomRule(ward.ID)
	if err := r.UpsertRule(rule); err != nil {
		return nil, fmt.Errorf("插入排班规则失败: %w", err)
	}

	nurses := make([]*domain.Nurse, 0, opts.NurseCount)
	for i := 0; i < opts.NurseCount; i++ {
		nurse := utils.GenerateRandomNurse(ward.ID)
		if err := r.CreateNurse(nurse); err != nil {
			slog.Error("无法插入护士", "error", err)
			continue
		}
		nurses = append(nurses, nurse)
	}
	slog.Info("插入护士成功", "count", len(nurses))

	if opts.Year == 0 {
		return ward, nil
	}

	cnt := 0
	for _, req := range utils.GenerateRandomShiftRequests(nurses, opts.Year, opts.Month, opts.RequestsPerNurse) {
		if err := r.CreateShiftRequest(req); err != nil {
			slog.Error("无法插入排班申请", "error", err)
			continue
		}
		cnt++
	}
	slog.Info("插入排班申请成功", "count", cnt)

	return ward, nil
}

var intensityNames = map[string]domain.WorkIntensity{
	"高": domain.IntensityHigh,
	"中": domain.IntensityMedium,
	"低": domain.IntensityLow,
}

var capabilityNames = map[rune]domain.ShiftCapability{
	'D': domain.CanDay,
	'E': domain.CanEvening,
	'N': domain.CanNight,
	'M': domain.CanMid,
}

// ImportNurses 从 csv 导入护士名单，表头为 姓名,班次能力,强度
// 班次能力形如 "DEN"，强度为 高/中/低 或 HIGH/MEDIUM/LOW
func ImportNurses(r Repository, wardID int64, in io.Reader) (int, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.TrimSpace(header)] = i
	}
	for _, key := range []string{"姓名", "班次能力", "强度"} {
		if _, ok := index[key]; !ok {
			return 0, fmt.Errorf("没有找到 %s 列", key)
		}
	}

	cnt := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}

		nurse, err := parseNurse(wardID, row[index["姓名"]], row[index["班次能力"]], row[index["强度"]])
		if err != nil {
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}

		if err := r.CreateNurse(nurse); err != nil {
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}
		cnt++
	}

	return cnt, nil
}

func parseNurse(wardID int64, name, capability, intensity string) (*domain.Nurse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("姓名不能为空")
	}

	var c domain.ShiftCapability
	for _, ch := range strings.ToUpper(strings.TrimSpace(capability)) {
		bit, ok := capabilityNames[ch]
		if !ok {
			return nil, fmt.Errorf("未知的班次能力 %q", ch)
		}
		c |= bit
	}
	if c == 0 {
		return nil, errors.New("班次能力不能为空")
	}

	intensity = strings.TrimSpace(intensity)
	w, ok := intensityNames[intensity]
	if !ok {
		switch domain.WorkIntensity(strings.ToUpper(intensity)) {
		case domain.IntensityHigh, domain.IntensityMedium, domain.IntensityLow:
			w = domain.WorkIntensity(strings.ToUpper(intensity))
		default:
			return nil, fmt.Errorf("未知的强度 %q", intensity)
		}
	}

	return &domain.Nurse{
		WardID:     wardID,
		FullName:   name,
		Capability: c,
		Intensity:  w,
		IsActive:   true,
	}, nil
}
