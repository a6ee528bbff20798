package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrInvalidInput = errors.New("请求参数无效")
	ErrExtractText  = errors.New("提取简历文本失败")
	ErrAnnotate     = errors.New("文本标注失败")
	ErrLoadKeywords = errors.New("加载技能关键词失败")
	ErrPersist      = errors.New("保存解析结果失败")
)

// ResumeParseError 包含详细错误信息的自定义错误
type ResumeParseError struct {
	UserID  string
	Op      string
	BaseErr error
	Detail  string
	Cause   error
}

func (e *ResumeParseError) Error() string {
	msg := fmt.Sprintf("%s (操作:%s, 用户:%s)", e.BaseErr, e.Op, e.UserID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResumeParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeParseError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数

func NewInvalidInputError(userID, detail string) error {
	return &ResumeParseError{UserID: userID, Op: "validate", BaseErr: ErrInvalidInput, Detail: detail}
}

func NewExtractError(userID string, cause error) error {
	return &ResumeParseError{UserID: userID, Op: "extract", BaseErr: ErrExtractText, Cause: cause}
}

func NewAnnotateError(userID string, cause error) error {
	return &ResumeParseError{UserID: userID, Op: "annotate", BaseErr: ErrAnnotate, Cause: cause}
}

func NewKeywordsError(userID string, cause error) error {
	return &ResumeParseError{UserID: userID, Op: "keywords", BaseErr: ErrLoadKeywords, Cause: cause}
}

func NewPersistError(userID, detail string, cause error) error {
	return &ResumeParseError{UserID: userID, Op: "persist", BaseErr: ErrPersist, Detail: detail, Cause: cause}
}
