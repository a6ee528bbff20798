package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"resume-parser-go/internal/config"
)

// multipartOverhead 表单边界和其他字段占用的额外字节
const multipartOverhead = 1 << 20

// NewServer 创建带 OpenTelemetry 追踪的 Hertz 服务器，请求体上限为上传上限加表单开销
func NewServer(cfg *config.Config) *server.Hertz {
	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes())+multipartOverhead),
		server.WithExitWaitTime(config.GetDuration(cfg.Server.ShutdownTimeout, defaultShutdownTimeout)),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	return h
}
