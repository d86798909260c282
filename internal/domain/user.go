package domain

import (
	"time"
)

type Role string

const (
	RoleNurse     Role = "护士"
	RoleHeadNurse Role = "护士长"
	RoleAdmin     Role = "管理员" // 不属于任何病区，可以管理所有病区
)

type User struct {
	ID           int64     `json:"id"`
	WardID       *int64    `json:"wardID"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
