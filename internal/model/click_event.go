package model

import (
	"time"
)

// DeviceInfo 从 User-Agent 解析出的客户端信息，解析失败时各字段为 "unknown"
type DeviceInfo struct {
	DeviceType string `gorm:"size:20" json:"deviceType"`
	OS         string `gorm:"size:50" json:"os"`
	Browser    string `gorm:"size:50" json:"browser"`
}

// ClickEvent 点击事件，写入后不可变
type ClickEvent struct {
	ID         uint       `gorm:"primarykey" json:"-"`
	Slug       string     `gorm:"size:32;not null;index" json:"slug"`
	IPAddress  string     `gorm:"size:45" json:"ip"`
	UserAgent  string     `gorm:"type:text" json:"-"`
	Referer    string     `gorm:"type:text" json:"-"`
	DeviceInfo DeviceInfo `gorm:"embedded;embeddedPrefix:device_" json:"deviceInfo"`
	Country    string     `gorm:"size:100" json:"country"`
	CreatedAt  time.Time  `json:"timestamp"`
}

// TableName 指定表名
func (ClickEvent) TableName() string {
	return "click_events"
}
