package handler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/tracing"
)

// ResumeService 上传处理流程，由 processor.ResumePipeline 实现
type ResumeService interface {
	Process(ctx context.Context, userID string, data []byte, filename string) (*processor.UploadResult, error)
}

// ResumeHandler 简历上传接口
type ResumeHandler struct {
	service        ResumeService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewResumeHandler 创建一个新的简历处理器，maxUploadBytes <= 0 表示不限制
func NewResumeHandler(service ResumeService, maxUploadBytes int64) *ResumeHandler {
	return &ResumeHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Component("resume_handler"),
	}
}

// Upload 处理 multipart 上传: file 为简历文件, user_id 为用户ID
func (h *ResumeHandler) Upload(c context.Context, ctx *app.RequestContext) {
	span := trace.SpanFromContext(c)

	// 原样使用，合法性由解析流程校验
	userID := ctx.PostForm(constants.FormFieldUserID)
	if userID == "" {
		h.badRequest(ctx, span, "缺少 user_id")
		return
	}

	fileHeader, err := ctx.FormFile(constants.FormFieldFile)
	if err != nil {
		h.badRequest(ctx, span, "文件未找到")
		return
	}
	if h.tooLarge(fileHeader.Size) {
		h.entityTooLarge(ctx, span, fileHeader.Size)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.internalError(ctx, span, fmt.Errorf("打开上传文件失败: %w", err))
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		h.internalError(ctx, span, fmt.Errorf("读取上传文件失败: %w", err))
		return
	}
	if h.tooLarge(int64(len(data))) {
		h.entityTooLarge(ctx, span, int64(len(data)))
		return
	}

	result, err := h.service.Process(c, userID, data, fileHeader.Filename)
	if err != nil {
		if processor.IsClientError(err) {
			h.badRequest(ctx, span, err.Error())
			return
		}
		h.internalError(ctx, span, err)
		return
	}

	ctx.JSON(consts.StatusOK, result)
}

// Health 健康检查
func (h *ResumeHandler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

func (h *ResumeHandler) tooLarge(size int64) bool {
	return h.maxUploadBytes > 0 && size > h.maxUploadBytes
}

func (h *ResumeHandler) badRequest(ctx *app.RequestContext, span trace.Span, msg string) {
	tracing.RecordHTTPError(span, errors.New(msg), consts.StatusBadRequest)
	ctx.JSON(consts.StatusBadRequest, utils.H{"error": msg})
}

func (h *ResumeHandler) entityTooLarge(ctx *app.RequestContext, span trace.Span, size int64) {
	err := fmt.Errorf("文件大小 %d 超过上限 %d", size, h.maxUploadBytes)
	tracing.RecordHTTPError(span, err, consts.StatusRequestEntityTooLarge)
	ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{"error": err.Error()})
}

// internalError 错误细节只写日志，响应体不暴露
func (h *ResumeHandler) internalError(ctx *app.RequestContext, span trace.Span, err error) {
	tracing.RecordHTTPError(span, err, consts.StatusInternalServerError)
	h.logger.Error().Err(err).Str("path", string(ctx.Path())).Msg("处理简历上传失败")
	ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "internal server error"})
}
