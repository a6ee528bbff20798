package router

import (
	"context"
	"crypto/subtle"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/ratelimit"
)

// APIKeyHeader 鉴权请求头
const APIKeyHeader = "X-API-Key"

const defaultShutdownTimeout = 10 * time.Second

var errInvalidAPIKey = errors.New("API key 无效")

// RouteOption 路由注册选项
type RouteOption func(*routeOptions)

type routeOptions struct {
	apiKeys []string
	limiter *ratelimit.TokenBucket
}

// WithAPIKeys 上传接口要求 X-API-Key，为空时不鉴权
func WithAPIKeys(keys ...string) RouteOption {
	return func(o *routeOptions) {
		o.apiKeys = keys
	}
}

// WithRateLimiter 上传接口限流，nil 表示不限流
func WithRateLimiter(tb *ratelimit.TokenBucket) RouteOption {
	return func(o *routeOptions) {
		o.limiter = tb
	}
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, options ...RouteOption) {
	var opts routeOptions
	for _, option := range options {
		option(&opts)
	}

	h.Use(RequestLogger())

	var upload []app.HandlerFunc
	if len(opts.apiKeys) > 0 {
		upload = append(upload, APIKeyAuth(opts.apiKeys))
	}
	if opts.limiter != nil {
		upload = append(upload, RateLimit(opts.limiter))
	}
	upload = append(upload, resumeHandler.Upload)

	// 兼容旧客户端的上传地址
	h.POST("/upload_resume", upload...)

	api := h.Group("/api/v1")
	api.POST("/resume/upload", upload...)

	// 健康检查不鉴权
	api.GET("/health", resumeHandler.Health)
}

// RateLimit 令牌不足时返回 429 并带上 Retry-After
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if tb.Allow() {
			ctx.Next(c)
			return
		}
		retry := int(math.Ceil(tb.RetryAfter().Seconds()))
		if retry < 1 {
			retry = 1
		}
		ctx.Header("Retry-After", strconv.Itoa(retry))
		ctx.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "too many requests"})
	}
}

// APIKeyAuth 校验 X-API-Key 请求头
func APIKeyAuth(apiKeys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			for _, k := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "invalid or missing API key"})
		}),
	)
}

// RequestLogger 记录请求方法、路径、状态码和耗时
func RequestLogger() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s status=%d latency=%s",
			string(ctx.Method()), string(ctx.Path()), ctx.Response.StatusCode(), time.Since(start))
	}
}
