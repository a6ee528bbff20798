package processor

import (
	"time"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/nlp"
	"resume-parser-go/internal/storage"
)

// PipelineOption 处理流程的可选组件和设置
type PipelineOption func(*ResumePipeline)

// WithArchive 设置原始文件归档组件，nil 表示不归档
func WithArchive(archive storage.ResumeArchive) PipelineOption {
	return func(p *ResumePipeline) {
		p.archive = archive
	}
}

// WithEventPublisher 设置解析事件发布器，nil 表示不发布
func WithEventPublisher(events storage.EventPublisher) PipelineOption {
	return func(p *ResumePipeline) {
		p.events = events
	}
}

// WithEmailMatcher 替换默认的邮箱匹配器
func WithEmailMatcher(matcher nlp.TokenMatcher) PipelineOption {
	return func(p *ResumePipeline) {
		if matcher != nil {
			p.emailMatcher = matcher
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) PipelineOption {
	return func(p *ResumePipeline) {
		p.logger = l
	}
}

// WithIDGenerator 替换解析ID生成函数
func WithIDGenerator(gen func() (string, error)) PipelineOption {
	return func(p *ResumePipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) PipelineOption {
	return func(p *ResumePipeline) {
		if now != nil {
			p.now = now
		}
	}
}
