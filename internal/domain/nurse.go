package domain

import (
	"fmt"
	"time"
)

type WorkIntensity string

const (
	IntensityHigh   WorkIntensity = "HIGH"
	IntensityMedium WorkIntensity = "MEDIUM"
	IntensityLow    WorkIntensity = "LOW"
)

// TargetWorkRatio 返回该强度下期望的上班天数占比
func (w WorkIntensity) TargetWorkRatio() float64 {
	switch w {
	case IntensityHigh:
		return 0.7
	case IntensityLow:
		return 0.5
	default:
		return 0.6
	}
}

func (w WorkIntensity) Validate() error {
	switch w {
	case IntensityHigh, IntensityMedium, IntensityLow:
		return nil
	default:
		return fmt.Errorf("未知的工作强度 %q", string(w))
	}
}

type Nurse struct {
	ID         int64           `json:"id"`
	WardID     int64           `json:"wardID"`
	FullName   string          `json:"fullName"`
	Capability ShiftCapability `json:"capability"`
	Intensity  WorkIntensity   `json:"intensity"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
	Version    int32           `json:"-"`
}
