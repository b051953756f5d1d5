package models

import (
	"fmt"
	"time"
)

// 危机警报（Crisis Alert）
type CrisisAlert struct {
	ID               string     `gorm:"primaryKey;size:64" json:"id"`
	UserID           int64      `gorm:"index" json:"userId"`
	RiskLevel        RiskLevel  `gorm:"size:16" json:"riskLevel"` // 只会是 high / critical
	TriggerMessage   string     `gorm:"type:text" json:"triggerMessage"`
	Timestamp        time.Time  `json:"timestamp"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	Address          string     `json:"address,omitempty"`
	ContactsNotified []string   `gorm:"serializer:json" json:"contactsNotified"`
	ResponseReceived bool       `json:"responseReceived"`
	Escalated        bool       `json:"escalated"` // 置位后不可回退
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// HasLocation reports whether a best-effort position was captured.
func (a *CrisisAlert) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// LocationText returns the address when resolved, else raw coordinates.
func (a *CrisisAlert) LocationText() string {
	if !a.HasLocation() {
		return ""
	}
	if a.Address != "" {
		return a.Address
	}
	return fmt.Sprintf("%.4f, %.4f", *a.Latitude, *a.Longitude)
}

// 超时升级记录，每个未确认的警报至多一条
type CrisisEscalation struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	AlertID     string    `gorm:"index;size:64" json:"alertId"`
	UserID      int64     `gorm:"index" json:"userId"`
	EscalatedAt time.Time `json:"escalatedAt"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"-"`
}

// 能力调用诊断日志（权限失败、离线兜底等）
type EmergencyAction struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    int64     `gorm:"index" json:"userId"`
	Action    string    `gorm:"size:64" json:"action"`
	Payload   string    `gorm:"type:text" json:"payload"`
	CreatedAt time.Time `json:"timestamp"`
}
