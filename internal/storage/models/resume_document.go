package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResumeDocument 层级文档在关系库中的存储形式，路径为主键
type ResumeDocument struct {
	Path      string         `gorm:"type:varchar(512);primaryKey" json:"path"`
	UserID    string         `gorm:"type:varchar(255);index" json:"user_id"`
	Data      datatypes.JSON `gorm:"type:json" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (ResumeDocument) TableName() string {
	return "resume_documents"
}
