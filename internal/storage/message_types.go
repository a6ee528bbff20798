package storage

import "time"

// ResumeParsedMessage 简历解析完成事件
type ResumeParsedMessage struct {
	ParseID      string    `json:"parse_id"`               // 本次解析的ID
	UserID       string    `json:"user_id"`                // 所属用户
	DocumentPath string    `json:"document_path"`          // 结果文档路径
	ArchivePath  string    `json:"archive_path,omitempty"` // 原始文件在对象存储中的路径
	ParsedAt     time.Time `json:"parsed_at"`              // 解析完成时间
}
