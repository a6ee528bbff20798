package constants

const (
	// ServiceName 服务名，用于日志、追踪和 User-Agent
	ServiceName = "resume-parser"
	// Version 当前版本
	Version = "1.0.0"

	// UploadSuccessMessage 上传并解析成功时返回给调用方的消息
	UploadSuccessMessage = "Resume uploaded successfully"

	// 上传表单字段
	FormFieldFile   = "file"
	FormFieldUserID = "user_id"

	// ArchiveObjectPrefix 原始文件在对象存储中的前缀
	// 格式: resumes/{userId}/{parseId}{ext}
	ArchiveObjectPrefix = "resumes"

	// ExchangeTypeTopic 解析事件交换机类型
	ExchangeTypeTopic = "topic"
)
