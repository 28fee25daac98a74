package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *OrderEvent {
	return &OrderEvent{
		OrderID:       "order-1",
		ProductID:     "prod-1",
		ProductName:   "Netflix Premium",
		ProductPrice:  350,
		CustomerName:  "Rahim",
		CustomerEmail: "rahim@example.com",
		CustomerPhone: "01712345678",
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t,
		"New order order-1: Rahim ordered Netflix Premium for ৳350 (rahim@example.com, 01712345678)",
		Summary(sampleEvent()))

	assert.Equal(t,
		"New order x: Unknown Customer ordered Unknown Product for ৳12.5 (, )",
		Summary(&OrderEvent{OrderID: "x", ProductPrice: 12.5}))
}

func TestNotifyHandler(t *testing.T) {
	handler := NotifyHandler("owner@example.com", zerolog.Nop())

	n := handler(context.Background(), sampleEvent())
	require.NotNil(t, n)
	assert.Equal(t, "order-1", n.OrderID)
	assert.Equal(t, "owner@example.com", n.Recipient)
	assert.Contains(t, n.Summary, "Netflix Premium")
	assert.False(t, n.CreatedAt.IsZero())

	assert.Nil(t, handler(context.Background(), nil))
	assert.Nil(t, handler(context.Background(), &OrderEvent{}))
}

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	prefix := "test-" + uuid.NewString()
	q, err := NewRedisQueue(redisURL, prefix, "test-consumer", zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		q.client.Del(context.Background(), q.eventQueue, q.notifyQueue)
		_ = q.Close()
	})
	return q
}

func TestRedisQueue_PublishConsume(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, sampleEvent()))

	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	event, err := q.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "order-1", event.OrderID)
	assert.Equal(t, float64(350), event.ProductPrice)
}

func TestRedisQueue_StartConsumer(t *testing.T) {
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, sampleEvent()))

	done := make(chan error, 1)
	go func() {
		done <- q.StartConsumer(ctx, NotifyHandler("", zerolog.Nop()), 2)
	}()

	var raw []string
	require.Eventually(t, func() bool {
		var err error
		raw, err = q.client.LRange(context.Background(), q.notifyQueue, 0, -1).Result()
		return err == nil && len(raw) == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, raw[0], `"consumer":"test-consumer"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(blockTimeout + 5*time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRedisQueue_StartConsumer_RequeueOnShutdown(t *testing.T) {
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, second := sampleEvent(), sampleEvent()
	second.OrderID = "order-2"
	require.NoError(t, q.Publish(ctx, first))
	require.NoError(t, q.Publish(ctx, second))

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	handler := func(_ context.Context, _ *OrderEvent) *OrderNotification {
		started <- struct{}{}
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- q.StartConsumer(ctx, handler, 1)
	}()

	<-started
	// 第二个事件已被取出，消费者卡在信号量上
	require.Eventually(t, func() bool {
		n, err := q.Length(context.Background())
		return err == nil && n == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	event, err := q.Consume(context.Background())
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "order-2", event.OrderID, "未处理的事件放回队列")
}

func TestAcquire(t *testing.T) {
	sem := make(chan struct{}, 1)
	assert.True(t, acquire(context.Background(), sem))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan bool, 1)
	go func() { done <- acquire(ctx, sem) }()

	select {
	case ok := <-done:
		assert.False(t, ok, "信号量已满且 ctx 已取消")
	case <-time.After(time.Second):
		t.Fatal("acquire ignored ctx cancellation")
	}
	assert.Len(t, sem, 1)
}

func TestNewRedisQueue_BadURL(t *testing.T) {
	_, err := NewRedisQueue("not a url", "p", "c", zerolog.Nop())
	assert.Error(t, err)
}
