package constants

// Redis Key 格式常量
// 使用统一的命名规范: {prefix}:{entity}:{unique_id}
const (
	// EntityDocument 层级文档实体
	EntityDocument = "doc"

	// KeyDocument 层级文档 (STRING, JSON)
	// 格式: {prefix}:doc:users/{userId}/ResumeDetails/resume
	KeyDocument = "%s:" + EntityDocument + ":%s"
)
