package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/tracing"
)

var redisTracer = otel.Tracer("resume-parser-go/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建 Redis 连接并注册 OpenTelemetry 钩子
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	r := &Redis{Client: client, config: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return r, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// RedisSink 以 JSON 字符串保存文档，一个路径对应一个键
type RedisSink struct {
	redis  *Redis
	prefix string
}

// NewRedisSink 基于已建立的连接创建文档存储
func NewRedisSink(r *Redis, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "resume"
	}
	return &RedisSink{redis: r, prefix: prefix}
}

// DocumentKey 路径对应的 Redis 键
func (s *RedisSink) DocumentKey(path DocumentPath) string {
	return fmt.Sprintf(constants.KeyDocument, s.prefix, path.String())
}

func (s *RedisSink) startSpan(ctx context.Context, name, operation, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", operation),
		attribute.String("db.redis.key", tracing.SafeStoreKey(key)),
	)
	return ctx, span
}

// Set 实现 DocumentSink，SET 覆盖旧值且不设置过期时间
func (s *RedisSink) Set(ctx context.Context, path DocumentPath, data map[string]interface{}) error {
	if err := path.Validate(); err != nil {
		return err
	}
	key := s.DocumentKey(path)
	ctx, span := s.startSpan(ctx, "Redis.SetDocument", "SET", key)
	defer span.End()

	payload, err := json.Marshal(data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore)
		return fmt.Errorf("序列化文档失败: %w", err)
	}
	if err := s.redis.Client.Set(ctx, key, payload, 0).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore)
		return fmt.Errorf("写入Redis文档 %s 失败: %w", path, err)
	}

	span.SetAttributes(attribute.Int("db.redis.value_size", len(payload)))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Get 实现 DocumentReader
func (s *RedisSink) Get(ctx context.Context, path DocumentPath) (map[string]interface{}, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	key := s.DocumentKey(path)
	ctx, span := s.startSpan(ctx, "Redis.GetDocument", "GET", key)
	defer span.End()

	payload, err := s.redis.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore)
		return nil, fmt.Errorf("读取Redis文档 %s 失败: %w", path, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore)
		return nil, fmt.Errorf("解析Redis文档 %s 失败: %w", path, err)
	}
	return doc, nil
}

// Close 实现 DocumentSink
func (s *RedisSink) Close() error {
	return s.redis.Close()
}

var (
	_ DocumentSink   = (*RedisSink)(nil)
	_ DocumentReader = (*RedisSink)(nil)
)
