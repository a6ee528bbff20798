package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
)

// MessageQueue 消息发布接口
type MessageQueue interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
	EnsureExchange(exchangeName, exchangeType string, durable bool) error
	Close() error
}

// EventPublisher 发布简历解析事件
type EventPublisher interface {
	PublishResumeParsed(ctx context.Context, msg *ResumeParsedMessage) error
}

// ErrMessageQueueClosed 连接已关闭后再发布
var ErrMessageQueueClosed = errors.New("RabbitMQ 连接已关闭")

// RabbitMQ 提供消息发布功能，通道从有界池中复用
type RabbitMQ struct {
	conn     *amqp.Connection
	channels chan *amqp.Channel
	logger   zerolog.Logger

	poolMu sync.Mutex
	closed bool

	mu          sync.Mutex
	exchangeMap map[string]bool // 记录已声明的exchange
}

// NewRabbitMQ 连接RabbitMQ
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	poolSize := cfg.ChannelPoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	mq := &RabbitMQ{
		conn:        conn,
		channels:    make(chan *amqp.Channel, poolSize),
		logger:      logger.Component("rabbitmq"),
		exchangeMap: make(map[string]bool),
	}

	// 测试通道
	ch, err := mq.getChannel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	mq.putChannel(ch)

	mq.logger.Info().Int("channel_pool_size", poolSize).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// getChannel 从池中取出通道，池为空时新建
func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	r.poolMu.Lock()
	closed := r.closed
	r.poolMu.Unlock()
	if closed {
		return nil, ErrMessageQueueClosed
	}

	for {
		select {
		case ch := <-r.channels:
			if !ch.IsClosed() {
				return ch, nil
			}
		default:
			ch, err := r.conn.Channel()
			if err != nil {
				return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
			}
			return ch, nil
		}
	}
}

// putChannel 归还通道，池满时关闭
// 连接关闭后归还的通道直接丢弃，关闭连接时 amqp 会一并关闭它
func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.channels <- ch:
	default:
		_ = ch.Close()
	}
}

// Close 关闭连接，可重复调用，进行中的发布归还通道时不会 panic
func (r *RabbitMQ) Close() error {
	r.poolMu.Lock()
	if r.closed {
		r.poolMu.Unlock()
		return nil
	}
	r.closed = true
	for drained := false; !drained; {
		select {
		case ch := <-r.channels:
			_ = ch.Close()
		default:
			drained = true
		}
	}
	r.poolMu.Unlock()

	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	if exchangeName == "amq.default" || exchangeName == "default" {
		return fmt.Errorf("不能声明默认交换机 '%s'", exchangeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	if err := ch.ExchangeDeclare(
		exchangeName, // exchange名称
		exchangeType, // exchange类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部专用
		false,        // 非阻塞
		nil,          // 参数
	); err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	r.logger.Info().Str("exchange", exchangeName).Str("type", exchangeType).Msg("已确保exchange存在")
	return nil
}

// PublishMessage 发布消息到exchange
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	return ch.PublishWithContext(ctx,
		exchangeName, // exchange名
		routingKey,   // 路由键
		false,        // 强制
		false,        // 立即
		amqp.Publishing{
			DeliveryMode: deliveryMode,
			ContentType:  "application/json",
			Body:         message,
			Timestamp:    time.Now(),
		},
	)
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, body, persistent)
}

var _ MessageQueue = (*RabbitMQ)(nil)

// ResumeEventPublisher 将解析事件发布到配置的 exchange
type ResumeEventPublisher struct {
	mq         MessageQueue
	exchange   string
	routingKey string
}

// NewResumeEventPublisher 声明 topic exchange 并返回发布器
func NewResumeEventPublisher(mq MessageQueue, exchange, routingKey string) (*ResumeEventPublisher, error) {
	if err := mq.EnsureExchange(exchange, constants.ExchangeTypeTopic, true); err != nil {
		return nil, err
	}
	return &ResumeEventPublisher{mq: mq, exchange: exchange, routingKey: routingKey}, nil
}

// PublishResumeParsed 实现 EventPublisher，消息持久化
func (p *ResumeEventPublisher) PublishResumeParsed(ctx context.Context, msg *ResumeParsedMessage) error {
	if err := p.mq.PublishJSON(ctx, p.exchange, p.routingKey, msg, true); err != nil {
		return fmt.Errorf("发布解析事件失败: %w", err)
	}
	return nil
}

var _ EventPublisher = (*ResumeEventPublisher)(nil)
