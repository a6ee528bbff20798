// Package bootstrap 按配置组装解析流程，服务端和命令行共用
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/nlp"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
)

const defaultExtractTimeout = 30 * time.Second

// NewTextExtractor 按 parser.pdf_backend 选择 PDF 后端，可选启用 DOCX
func NewTextExtractor(ctx context.Context, cfg *config.Config) (parser.TextExtractor, error) {
	var pdf parser.TextExtractor
	switch cfg.Parser.PDFBackend {
	case config.PDFBackendPlain:
		pdf = parser.NewPlainPDFTextExtractor()
	case config.PDFBackendEino, "":
		e, err := parser.NewEinoPDFTextExtractor(ctx,
			parser.WithEinoLogger(logger.Component("eino_pdf")),
			parser.WithEinoTimeout(config.GetDuration(cfg.Parser.ExtractTimeout, defaultExtractTimeout)),
		)
		if err != nil {
			return nil, fmt.Errorf("创建Eino PDF提取器失败: %w", err)
		}
		pdf = e
	default:
		return nil, fmt.Errorf("未知的PDF解析后端: %q", cfg.Parser.PDFBackend)
	}

	opts := []parser.MultiFormatOption{parser.WithMultiFormatLogger(logger.Component("text_extractor"))}
	if cfg.Parser.EnableDocx {
		opts = append(opts, parser.WithDocxExtractor(parser.NewDocxTextExtractor()))
	}
	return parser.NewMultiFormatExtractor(pdf, opts...), nil
}

// NewAnnotator 创建 prose 标注器，机构中心词可由配置扩充
func NewAnnotator(cfg *config.Config) (nlp.Annotator, error) {
	annotator, err := nlp.NewProseAnnotator(nlp.WithOrgChunker(nlp.NewOrgChunker(cfg.NLP.OrgHeads...)))
	if err != nil {
		return nil, fmt.Errorf("初始化NLP标注器失败: %w", err)
	}
	return annotator, nil
}

// NewKeywordProvider 关键词文件在启动时校验一次，reload 模式下每次请求重新读取
func NewKeywordProvider(ctx context.Context, cfg *config.Config) (extractor.KeywordProvider, error) {
	provider := extractor.NewFileKeywords(cfg.Keywords.KeywordsPath, cfg.Keywords.ReloadPerRequest)
	set, err := provider.Keywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载技能关键词失败: %w", err)
	}
	logger.Info().
		Str("path", cfg.Keywords.KeywordsPath).
		Int("count", set.Len()).
		Bool("reload_per_request", cfg.Keywords.ReloadPerRequest).
		Msg("技能关键词已加载")
	return provider, nil
}

// NewPipeline 组装完整的解析流程，store 为 nil 时只能调用 Parse
func NewPipeline(ctx context.Context, cfg *config.Config, store *storage.Storage) (*processor.ResumePipeline, error) {
	textExtractor, err := NewTextExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	annotator, err := NewAnnotator(cfg)
	if err != nil {
		return nil, err
	}
	keywords, err := NewKeywordProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var sink storage.DocumentSink
	var opts []processor.PipelineOption
	if store != nil {
		sink = store.Sink
		opts = append(opts,
			processor.WithArchive(store.Archive()),
			processor.WithEventPublisher(store.Events()),
		)
	}
	return processor.NewResumePipeline(textExtractor, annotator, keywords, sink, opts...), nil
}
