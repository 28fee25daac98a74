// Package queue 订单事件队列
package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// NotifyHandler 把下单事件转换成通知，recipient 为空时只记日志
func NotifyHandler(recipient string, logger zerolog.Logger) Handler {
	logger = logger.With().Str("component", "notify").Logger()

	return func(_ context.Context, event *OrderEvent) *OrderNotification {
		if event == nil || event.OrderID == "" {
			logger.Warn().Msg("skip order event without id")
			return nil
		}

		n := &OrderNotification{
			OrderID:   event.OrderID,
			Recipient: recipient,
			Summary:   Summary(event),
			CreatedAt: time.Now().UTC(),
		}

		logger.Info().
			Str("order_id", event.OrderID).
			Str("product_id", event.ProductID).
			Float64("price", event.ProductPrice).
			Msg("new order")

		return n
	}
}

// Summary 订单的一行摘要
func Summary(event *OrderEvent) string {
	customer := event.CustomerName
	if customer == "" {
		customer = "Unknown Customer"
	}
	product := event.ProductName
	if product == "" {
		product = "Unknown Product"
	}
	return fmt.Sprintf("New order %s: %s ordered %s for ৳%s (%s, %s)",
		event.OrderID, customer, product,
		strconv.FormatFloat(event.ProductPrice, 'f', -1, 64),
		event.CustomerEmail, event.CustomerPhone)
}
