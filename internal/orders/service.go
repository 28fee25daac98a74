// Package orders 订单
//
// 结账下单、感谢页回执，以及后台订单列表、标记完成、删除。
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mrpremium/go-storefront-service/internal/catalog"
	"github.com/mrpremium/go-storefront-service/internal/queue"
	"github.com/mrpremium/go-storefront-service/internal/store"
	"github.com/mrpremium/go-storefront-service/internal/validation"
)

var (
	// ErrNotFound 订单不存在
	ErrNotFound = errors.New("order not found")
	// ErrProductNotFound 下单商品不存在或已下架
	ErrProductNotFound = errors.New("product not found")
)

const adminListLimit = 100

// ProductFinder 按 ID 读取商品
type ProductFinder interface {
	Find(ctx context.Context, id string) (*catalog.Product, error)
}

// Publisher 发布下单事件
type Publisher interface {
	Publish(ctx context.Context, event *queue.OrderEvent) error
}

// Service 订单服务
type Service struct {
	store     store.Store
	products  ProductFinder
	publisher Publisher
	validate  *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService 创建订单服务，publisher 可以为 nil
func NewService(s store.Store, products ProductFinder, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		store:     s,
		products:  products,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger.With().Str("component", "orders").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout 校验表单并创建待处理订单，返回订单 ID
func (s *Service) Checkout(ctx context.Context, form CheckoutForm) (string, error) {
	form = form.trimmed()
	if err := validation.Struct(s.validate, form, checkoutMessage); err != nil {
		return "", err
	}

	product, err := s.products.Find(ctx, form.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", ErrProductNotFound
		}
		return "", fmt.Errorf("load product %s: %w", form.ProductID, err)
	}
	if !product.IsActive() {
		return "", ErrProductNotFound
	}

	order := Order{
		ProductID:     product.ID,
		ProductName:   product.Name,
		ProductPrice:  product.Price(),
		CustomerName:  form.FullName,
		CustomerEmail: form.Email,
		CustomerPhone: form.Mobile,
		BkashDigits:   form.BkashDigits,
		Status:        StatusPending,
		CreatedAt:     s.now(),
	}

	data, err := store.ToMap(order)
	if err != nil {
		return "", err
	}
	delete(data, "updatedAt")

	id, err := s.store.Add(ctx, Collection, data)
	if err != nil {
		return "", fmt.Errorf("add order: %w", err)
	}
	order.ID = id

	s.logger.Info().
		Str("order_id", id).
		Str("product_id", product.ID).
		Float64("price", order.ProductPrice).
		Msg("order placed")

	s.publish(ctx, &order)
	return id, nil
}

// publish 发布失败只记日志，不影响下单
func (s *Service) publish(ctx context.Context, o *Order) {
	if s.publisher == nil {
		return
	}

	event := &queue.OrderEvent{
		OrderID:       o.ID,
		ProductID:     o.ProductID,
		ProductName:   o.ProductName,
		ProductPrice:  o.ProductPrice,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		CreatedAt:     o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID).Msg("publish order event failed")
	}
}

// Get 按 ID 读取订单
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	var o Order
	if err := doc.Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Receipt 感谢页回执，订单不存在时返回默认内容
func (s *Service) Receipt(ctx context.Context, id string) *Receipt {
	o, err := s.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error().Err(err).Str("order_id", id).Msg("load order failed")
		}
		return DefaultReceipt()
	}
	return receiptFor(o)
}

// AdminList 后台订单列表，最新 100 条
func (s *Service) AdminList(ctx context.Context) ([]Order, error) {
	q := store.Collection(Collection).Order("createdAt", true).Take(adminListLimit)
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := make([]Order, 0, len(docs))
	for i := range docs {
		var o Order
		if err := docs[i].Decode(&o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", docs[i].ID).Msg("skip malformed order")
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// SetCompleted 标记订单完成/未完成
func (s *Service) SetCompleted(ctx context.Context, id string, completed bool) (*Order, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	status := StatusIncomplete
	if completed {
		status = StatusComplete
	}
	updates := map[string]any{
		"status":    status,
		"completed": completed,
		"updatedAt": s.now(),
	}
	if err := s.store.Set(ctx, Collection, id, updates, true); err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	s.logger.Info().Str("order_id", id).Str("status", status).Msg("order status changed")
	return s.Get(ctx, id)
}

// Delete 删除订单
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, Collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	s.logger.Info().Str("order_id", id).Msg("order deleted")
	return nil
}
