package storage

import (
	"context"
	"fmt"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/logger"
)

// Storage 存储管理器，聚合结果存储和可选的归档、消息组件
type Storage struct {
	// 解析结果存储
	Sink DocumentSink

	// 原始文件归档，未启用时为 nil
	MinIO *MinIO

	// 解析事件，未配置时为 nil
	RabbitMQ  *RabbitMQ
	Publisher *ResumeEventPublisher
}

// NewSink 按配置的驱动创建结果存储
func NewSink(ctx context.Context, cfg *config.Config) (DocumentSink, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFirestore:
		return NewFirestoreSink(ctx, cfg.Firestore)
	case config.StoreDriverRedis:
		r, err := NewRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisSink(r, cfg.Redis.KeyPrefix), nil
	case config.StoreDriverMySQL:
		m, err := NewMySQL(&cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return NewMySQLSink(m), nil
	case config.StoreDriverMemory:
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("未知的存储驱动: %q", cfg.Store.Driver)
	}
}

// NewStorage 创建存储管理器
// 结果存储初始化失败直接返回错误，归档和消息组件失败只记录警告
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	log := logger.Component("storage")

	sink, err := NewSink(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化结果存储失败: %w", err)
	}
	s := &Storage{Sink: sink}
	log.Info().Str("driver", cfg.Store.Driver).Msg("结果存储初始化成功")

	if cfg.MinIO.Enabled {
		s.MinIO, err = NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败，原始文件不会归档")
		}
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败，解析事件不会发布")
		} else {
			s.Publisher, err = NewResumeEventPublisher(s.RabbitMQ, cfg.RabbitMQ.ResumeEventsExchange, cfg.RabbitMQ.ParsedRoutingKey)
			if err != nil {
				log.Warn().Err(err).Msg("声明解析事件exchange失败")
				_ = s.RabbitMQ.Close()
				s.RabbitMQ = nil
			}
		}
	}

	return s, nil
}

// Archive 返回归档组件，未启用时返回 nil 接口
func (s *Storage) Archive() ResumeArchive {
	if s.MinIO == nil {
		return nil
	}
	return s.MinIO
}

// Events 返回事件发布器，未启用时返回 nil 接口
func (s *Storage) Events() EventPublisher {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Component("storage")

	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Sink != nil {
		if err := s.Sink.Close(); err != nil {
			log.Error().Err(err).Msg("关闭结果存储失败")
		}
	}
}
