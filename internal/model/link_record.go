package model

import (
	"time"
)

// LinkRecord 短链接模型
type LinkRecord struct {
	ID           uint       `gorm:"primarykey" json:"-"`
	Slug         string     `gorm:"size:32;uniqueIndex;not null" json:"slug"`
	LongURL      string     `gorm:"type:text;not null" json:"longUrl"`
	Clicks       int64      `gorm:"default:0" json:"clicks"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName 指定表名
func (LinkRecord) TableName() string {
	return "link_records"
}
