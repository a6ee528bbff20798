package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"resume-parser-go/internal/config"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestRecordError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := tp.Tracer("test").Start(context.Background(), "persist")
	RecordError(span, errors.New("写入失败"), ErrorTypeStore, attribute.String("store.path", "users/u1/ResumeDetails/resume"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "store", attrs["error.type"].AsString())
	assert.Equal(t, "写入失败", attrs["error.message"].AsString())
	assert.Equal(t, "users/u1/ResumeDetails/resume", attrs["store.path"].AsString())
	assert.Len(t, ended[0].Events(), 1, "错误作为事件记录")
}

func TestRecordHTTPError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := tp.Tracer("test").Start(context.Background(), "upload")
	RecordHTTPError(span, errors.New("missing file"), 400)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "http", attrs["error.type"].AsString())
	assert.Equal(t, int64(400), attrs["http.status_code"].AsInt64())
	assert.Equal(t, "client_error", attrs["error.category"].AsString())
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := tp.Tracer("test").Start(context.Background(), "ok")
	RecordError(span, nil, ErrorTypeStore)
	RecordError(nil, errors.New("x"), ErrorTypeStore)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("J"))
	assert.Equal(t, "J*", MaskPII("Jo"))
	assert.Equal(t, "A*n", MaskPII("Ann"))
	assert.Equal(t, "ja************om", MaskPII("jane@example.com"))
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "ja************om", SafeAttributeValue("resume.email", "jane@example.com", 50))
	assert.Equal(t, "J*", SafeAttributeValue("First Name", "Jo", 50))
	assert.Equal(t, "ab...yz", SafeAttributeValue("user_id", "abcdefghijklmnopqrstuvwxyz", 7))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "简历...内容", TruncateString("简历解析服务的内容", 8))
}

func TestInitProviderDisabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
