package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-parser-go/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为 GORM 操作创建 OpenTelemetry span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册 GORM 回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("INSERT")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after)
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		ctx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			),
		)
		db.Statement.Context = context.WithValue(ctx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after(db *gorm.DB) {
	span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if sql := db.Statement.SQL.String(); sql != "" {
		span.SetAttributes(attribute.String("db.statement", tracing.TruncateString(sql, 500)))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetAttributes(attribute.String("error.type", "record_not_found"))
	default:
		tracing.RecordError(span, db.Error, tracing.ErrorTypeStore)
	}
}

// MySQL 关系数据库连接
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 连接 MySQL，注册追踪插件并迁移文档表
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeoutSeconds)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}
	if err := db.AutoMigrate(&models.ResumeDocument{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return &MySQL{db: db, cfg: cfg}, nil
}

// gormLogLevel 将 1-4 映射为 GORM 日志级别
func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Silent
	}
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MySQLSink 以 JSON 列保存文档，路径冲突时整体替换 data
type MySQLSink struct {
	mysql *MySQL
}

// NewMySQLSink 创建关系库文档存储
func NewMySQLSink(m *MySQL) *MySQLSink {
	return &MySQLSink{mysql: m}
}

// upsert 构造 INSERT ... ON DUPLICATE KEY UPDATE
func upsert(db *gorm.DB, doc *models.ResumeDocument) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "data", "updated_at"}),
	}).Create(doc)
}

// newResumeDocument 路径第二段为用户 ID
func newResumeDocument(path DocumentPath, data map[string]interface{}) (*models.ResumeDocument, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("序列化文档失败: %w", err)
	}
	return &models.ResumeDocument{
		Path:   path.String(),
		UserID: path[1],
		Data:   datatypes.JSON(payload),
	}, nil
}

// Set 实现 DocumentSink
func (s *MySQLSink) Set(ctx context.Context, path DocumentPath, data map[string]interface{}) error {
	if err := path.Validate(); err != nil {
		return err
	}
	doc, err := newResumeDocument(path, data)
	if err != nil {
		return err
	}
	if err := upsert(s.mysql.db.WithContext(ctx), doc).Error; err != nil {
		return fmt.Errorf("写入MySQL文档 %s 失败: %w", path, err)
	}
	return nil
}

// Get 实现 DocumentReader
func (s *MySQLSink) Get(ctx context.Context, path DocumentPath) (map[string]interface{}, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	var doc models.ResumeDocument
	err := s.mysql.db.WithContext(ctx).Where("path = ?", path.String()).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取MySQL文档 %s 失败: %w", path, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return nil, fmt.Errorf("解析MySQL文档 %s 失败: %w", path, err)
	}
	return data, nil
}

// Close 实现 DocumentSink
func (s *MySQLSink) Close() error {
	return s.mysql.Close()
}

var (
	_ DocumentSink   = (*MySQLSink)(nil)
	_ DocumentReader = (*MySQLSink)(nil)
)
