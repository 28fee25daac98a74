package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const blockTimeout = 30 * time.Second

// OrderEvent 下单事件
type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName"`
	ProductPrice  float64   `json:"productPrice"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderNotification 发给店主的新订单通知
type OrderNotification struct {
	OrderID   string    `json:"orderId"`
	Recipient string    `json:"recipient,omitempty"`
	Summary   string    `json:"summary"`
	Consumer  string    `json:"consumer"`
	CreatedAt time.Time `json:"createdAt"`
}

// RedisQueue Redis 列表队列
type RedisQueue struct {
	client       *redis.Client
	eventQueue   string
	notifyQueue  string
	consumerName string
	logger       zerolog.Logger
}

// NewRedisQueue 创建 Redis 队列
func NewRedisQueue(redisURL, prefix, consumerName string, logger zerolog.Logger) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisQueueFromClient(client, prefix, consumerName, logger), nil
}

// NewRedisQueueFromClient 使用已有连接创建队列
func NewRedisQueueFromClient(client *redis.Client, prefix, consumerName string, logger zerolog.Logger) *RedisQueue {
	return &RedisQueue{
		client:       client,
		eventQueue:   prefix + ":order_events",
		notifyQueue:  prefix + ":order_notifications",
		consumerName: consumerName,
		logger:       logger.With().Str("component", "queue").Str("consumer", consumerName).Logger(),
	}
}

// Publish 发布下单事件
func (q *RedisQueue) Publish(ctx context.Context, event *OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.eventQueue, data).Err()
}

// Consume 消费事件（阻塞式），超时无事件时返回 nil, nil
func (q *RedisQueue) Consume(ctx context.Context) (*OrderEvent, error) {
	result, err := q.client.BLPop(ctx, blockTimeout, q.eventQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	if len(result) < 2 {
		return nil, nil
	}

	var event OrderEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, fmt.Errorf("decode order event: %w", err)
	}
	return &event, nil
}

// PublishNotification 发布通知
func (q *RedisQueue) PublishNotification(ctx context.Context, n *OrderNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.notifyQueue, data).Err()
}

// Close 关闭连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Handler 事件处理函数，返回 nil 表示不需要通知
type Handler func(ctx context.Context, event *OrderEvent) *OrderNotification

// StartConsumer 启动消费者，ctx 取消后等待处理中的事件结束再返回
func (q *RedisQueue) StartConsumer(ctx context.Context, handler Handler, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	q.logger.Info().Int("concurrency", concurrency).Msg("queue consumer started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Info().Msg("queue consumer stopped")
			return nil
		default:
		}

		event, err := q.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			q.logger.Error().Err(err).Msg("consume order event failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		if event == nil {
			continue
		}

		// 获取并发控制信号量；停止时已取出的事件放回队首
		if !acquire(ctx, sem) {
			q.requeue(context.WithoutCancel(ctx), event)
			q.logger.Info().Msg("queue consumer stopped")
			return nil
		}
		wg.Add(1)

		go func(e *OrderEvent) {
			defer func() {
				<-sem
				wg.Done()
			}()

			n := handler(ctx, e)
			if n == nil {
				return
			}
			if n.Consumer == "" {
				n.Consumer = q.consumerName
			}
			if err := q.PublishNotification(context.WithoutCancel(ctx), n); err != nil {
				q.logger.Error().Err(err).Str("order_id", e.OrderID).Msg("publish notification failed")
			}
		}(event)
	}
}

// acquire 占用一个并发名额，ctx 取消时放弃
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// requeue 把事件放回队首，下次启动时优先处理
func (q *RedisQueue) requeue(ctx context.Context, event *OrderEvent) {
	data, err := json.Marshal(event)
	if err == nil {
		err = q.client.LPush(ctx, q.eventQueue, data).Err()
	}
	if err != nil {
		q.logger.Error().Err(err).Str("order_id", event.OrderID).Msg("requeue order event failed")
		return
	}
	q.logger.Warn().Str("order_id", event.OrderID).Msg("order event requeued on shutdown")
}

// Length 待处理事件数
func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.eventQueue).Result()
}
