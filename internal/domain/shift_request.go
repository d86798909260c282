package domain

import "time"

type ShiftRequestStatus string

const (
	RequestPending  ShiftRequestStatus = "PENDING"
	RequestAccepted ShiftRequestStatus = "ACCEPTED"
	RequestRejected ShiftRequestStatus = "REJECTED"
)

type ShiftRequest struct {
	ID             int64              `json:"id"`
	WardID         int64              `json:"wardID"`
	NurseID        int64              `json:"nurseID"`
	Year           int                `json:"year"`
	Month          int                `json:"month"`
	Day            int                `json:"day"`
	RequestedShift ShiftKind          `json:"requestedShift"`
	Reinforced     bool               `json:"reinforced"` // 强化申请，违反时权重为普通申请的 3 倍
	Status         ShiftRequestStatus `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
}
