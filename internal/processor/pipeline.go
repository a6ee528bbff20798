// Package processor 串联文本提取、语言标注、字段抽取和结果持久化
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/nlp"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
)

var tracer = otel.Tracer("resume-parser-go/processor")

// ParseResult 单个文件的抽取结果，不含持久化信息
type ParseResult struct {
	Record     *types.ResumeRecord
	Metadata   map[string]interface{}
	Format     string
	TextLength int
	TokenCount int
}

// UploadResult 上传处理完成后返回给调用方的结果
type UploadResult struct {
	Message      string              `json:"message"`
	Record       *types.ResumeRecord `json:"data"`
	ParseID      string              `json:"parse_id"`
	DocumentPath string              `json:"-"`
	ArchivePath  string              `json:"-"`
}

// ResumePipeline 简历解析流程，所有组件只读，可被多个请求并发使用
type ResumePipeline struct {
	extractor parser.TextExtractor
	annotator nlp.Annotator
	keywords  extractor.KeywordProvider
	sink      storage.DocumentSink

	archive      storage.ResumeArchive
	events       storage.EventPublisher
	emailMatcher nlp.TokenMatcher
	logger       zerolog.Logger
	newID        func() (string, error)
	now          func() time.Time
}

// NewResumePipeline 创建解析流程，sink 为 nil 时只能调用 Parse
func NewResumePipeline(
	textExtractor parser.TextExtractor,
	annotator nlp.Annotator,
	keywords extractor.KeywordProvider,
	sink storage.DocumentSink,
	options ...PipelineOption,
) *ResumePipeline {
	p := &ResumePipeline{
		extractor:    textExtractor,
		annotator:    annotator,
		keywords:     keywords,
		sink:         sink,
		emailMatcher: nlp.NewEmailMatcher(),
		logger:       logger.Component("pipeline"),
		newID:        newParseID,
		now:          time.Now,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// newParseID 生成按时间排序的 UUIDv7
func newParseID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateUserID 用户ID会原样成为文档路径和对象键的一段
// 不能为空、不能包含 /、不能是 . 或 ..，也不能是 Firestore 保留的 __xxx__ 形式
func ValidateUserID(userID string) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return NewInvalidInputError(userID, "user_id 不能为空")
	case strings.Contains(userID, "/"):
		return NewInvalidInputError(userID, "user_id 不能包含 /")
	case userID == "." || userID == "..":
		return NewInvalidInputError(userID, "user_id 不能是 . 或 ..")
	case len(userID) > 4 && strings.HasPrefix(userID, "__") && strings.HasSuffix(userID, "__"):
		return NewInvalidInputError(userID, "user_id 不能是 __xxx__ 形式")
	}
	return nil
}

// Parse 提取文本、标注并抽取全部字段，不写入存储
func (p *ResumePipeline) Parse(ctx context.Context, data []byte, filename string) (*ParseResult, error) {
	return p.parse(ctx, "", data, filename)
}

func (p *ResumePipeline) parse(ctx context.Context, userID string, data []byte, filename string) (*ParseResult, error) {
	ctx, span := tracer.Start(ctx, "ResumePipeline.Parse", trace.WithAttributes(
		attribute.String("file.name", tracing.TruncateString(filename, tracing.MaxKeyLength)),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	if len(data) == 0 {
		err := NewInvalidInputError(userID, "文件内容为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	start := time.Now()
	text, metadata, err := p.extractText(ctx, data, filename)
	if err != nil {
		err = NewExtractError(userID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		return nil, err
	}

	doc, err := p.annotate(ctx, text)
	if err != nil {
		err = NewAnnotateError(userID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeNLP)
		return nil, err
	}

	keywords, err := p.keywords.Keywords(ctx)
	if err != nil {
		err = NewKeywordsError(userID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeKeywords)
		return nil, err
	}

	record := BuildRecord(doc, keywords, p.emailMatcher)

	result := &ParseResult{
		Record:     record,
		Metadata:   metadata,
		Format:     parser.DetectFormat(data, filename),
		TextLength: len(text),
		TokenCount: len(doc.Tokens),
	}

	span.SetAttributes(
		attribute.Int("resume.text_length", result.TextLength),
		attribute.Int("resume.token_count", result.TokenCount),
		attribute.Int("resume.skill_count", len(record.Skills)),
		attribute.String("resume.email", tracing.SafeAttributeValue("email", record.Email, tracing.DefaultMaxLength)),
	)
	span.SetStatus(codes.Ok, "")

	p.logger.Debug().
		Str("user_id", userID).
		Int("text_len", result.TextLength).
		Int("token_count", result.TokenCount).
		Dur("duration", time.Since(start)).
		Msg("简历字段抽取完成")
	return result, nil
}

func (p *ResumePipeline) extractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	ctx, span := tracer.Start(ctx, "ResumePipeline.ExtractText")
	defer span.End()

	text, metadata, err := p.extractor.ExtractText(ctx, data, filename)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		return "", nil, err
	}
	span.SetAttributes(attribute.Int("text.length", len(text)))
	return text, metadata, nil
}

func (p *ResumePipeline) annotate(ctx context.Context, text string) (*types.AnnotatedDocument, error) {
	ctx, span := tracer.Start(ctx, "ResumePipeline.Annotate")
	defer span.End()

	doc, err := p.annotator.Annotate(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeNLP)
		return nil, err
	}
	if doc == nil {
		doc = &types.AnnotatedDocument{Text: text}
	}
	span.SetAttributes(
		attribute.Int("nlp.token_count", len(doc.Tokens)),
		attribute.Int("nlp.entity_count", len(doc.Entities)),
	)
	return doc, nil
}

// BuildRecord 运行六个互相独立的字段抽取器并组装结果
func BuildRecord(doc *types.AnnotatedDocument, keywords extractor.KeywordSet, emailMatcher nlp.TokenMatcher) *types.ResumeRecord {
	if doc == nil {
		doc = &types.AnnotatedDocument{}
	}
	first, last := extractor.ExtractName(doc)
	return &types.ResumeRecord{
		FirstName:       first,
		LastName:        last,
		Email:           extractor.ExtractEmail(doc, emailMatcher),
		PhoneNumber:     extractor.ExtractPhone(doc.Text),
		Education:       extractor.ExtractEducation(doc),
		ExperienceLevel: extractor.ExtractExperienceLevel(doc),
		Skills:          extractor.ExtractSkills(doc, keywords),
	}
}

// Process 解析上传的简历并覆盖写入 users/{userId}/ResumeDetails/resume
// 结果写入成功后再归档原始文件和发布事件，这两步失败只记录日志
func (p *ResumePipeline) Process(ctx context.Context, userID string, data []byte, filename string) (*UploadResult, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if p.sink == nil {
		return nil, NewPersistError(userID, "未配置结果存储", nil)
	}

	parseID, err := p.newID()
	if err != nil {
		return nil, fmt.Errorf("生成解析ID失败: %w", err)
	}

	ctx, span := tracer.Start(ctx, "ResumePipeline.Process", trace.WithAttributes(
		attribute.String("resume.parse_id", parseID),
		attribute.String("user.id", tracing.SafeStoreKey(userID)),
	))
	defer span.End()

	log := p.logger.With().Str("user_id", userID).Str("parse_id", parseID).Logger()
	start := time.Now()

	result, err := p.parse(ctx, userID, data, filename)
	if err != nil {
		log.Error().Err(err).Msg("简历解析失败")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	path := storage.ResumeDocumentPath(userID)
	if err := p.sink.Set(ctx, path, result.Record.ToMap()); err != nil {
		err = NewPersistError(userID, path.String(), err)
		tracing.RecordError(span, err, tracing.ErrorTypeStore)
		log.Error().Err(err).Msg("保存解析结果失败")
		return nil, err
	}

	upload := &UploadResult{
		Message:      constants.UploadSuccessMessage,
		Record:       result.Record,
		ParseID:      parseID,
		DocumentPath: path.String(),
	}

	if p.archive != nil {
		archivePath, err := p.archive.ArchiveOriginal(ctx, userID, parseID, filename, data, parser.ContentType(result.Format))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			log.Warn().Err(err).Msg("归档原始文件失败")
		} else {
			upload.ArchivePath = archivePath
		}
	}

	if p.events != nil {
		msg := &storage.ResumeParsedMessage{
			ParseID:      parseID,
			UserID:       userID,
			DocumentPath: upload.DocumentPath,
			ArchivePath:  upload.ArchivePath,
			ParsedAt:     p.now().UTC(),
		}
		if err := p.events.PublishResumeParsed(ctx, msg); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
			log.Warn().Err(err).Msg("发布解析事件失败")
		}
	}

	span.SetStatus(codes.Ok, "")
	log.Info().
		Str("document_path", upload.DocumentPath).
		Int("text_len", result.TextLength).
		Int("skill_count", len(result.Record.Skills)).
		Dur("duration", time.Since(start)).
		Msg("简历解析结果已保存")
	return upload, nil
}

// IsClientError 判断错误是否由调用方输入引起
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
