// Package catalog 商品目录
//
// 前台：上架商品列表（按类型过滤、关键字搜索）、商品详情（描述经过净化）、相关商品。
// 后台：商品列表、新增、编辑、删除。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mrpremium/go-storefront-service/internal/sanitizer"
	"github.com/mrpremium/go-storefront-service/internal/store"
	"github.com/mrpremium/go-storefront-service/internal/validation"
)

// ErrNotFound 商品不存在
var ErrNotFound = errors.New("product not found")

const relatedLimit = 10

// ListParams 列表参数
type ListParams struct {
	Type   string
	Search string
}

// Service 商品服务
type Service struct {
	store     store.Store
	images    *ImageResolver
	sanitizer *sanitizer.Sanitizer
	validate  *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService 创建商品服务，images 为 nil 时使用默认占位图
func NewService(s store.Store, images *ImageResolver, logger zerolog.Logger) *Service {
	if images == nil {
		images, _ = NewImageResolver("", "")
	}
	return &Service{
		store:     s,
		images:    images,
		sanitizer: sanitizer.New(nil),
		validate:  validation.New(),
		logger:    logger.With().Str("component", "catalog").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List 上架商品列表
func (s *Service) List(ctx context.Context, params ListParams) ([]Card, error) {
	q := store.Collection(Collection).
		Where("status", store.OpNotEqual, StatusInactive).
		Order("createdAt", true)

	products, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	productType := strings.ToLower(strings.TrimSpace(params.Type))
	term := strings.ToLower(strings.TrimSpace(params.Search))

	cards := make([]Card, 0, len(products))
	for i := range products {
		p := &products[i]
		if !p.IsActive() || !p.matchesType(productType) || !p.matchesSearch(term) {
			continue
		}
		cards = append(cards, s.card(p))
	}
	return cards, nil
}

// Get 商品详情，附带相关商品
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	p, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	description := p.Description
	if strings.TrimSpace(description) == "" {
		description = defaultDescription
	}
	category := p.Category
	if category == "" {
		category = defaultCategory
	}

	related, err := s.Related(ctx, id)
	if err != nil {
		// 相关商品加载失败不影响详情
		s.logger.Warn().Err(err).Str("product_id", id).Msg("load related products failed")
		related = []Card{}
	}

	return &Detail{
		ID:              p.ID,
		Name:            p.Name,
		ImageURL:        s.images.Resolve(p.ImageURL),
		Category:        category,
		RegularPrice:    p.RegularPrice,
		Price:           p.Price(),
		DescriptionHTML: s.sanitizer.Sanitize(description),
		Related:         related,
	}, nil
}

// Related 按名称排序取前 10 个商品，去掉当前商品和已下架商品
func (s *Service) Related(ctx context.Context, id string) ([]Card, error) {
	q := store.Collection(Collection).Order("name", false).Take(relatedLimit)
	products, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == id || !p.IsActive() {
			continue
		}
		cards = append(cards, s.card(p))
	}
	return cards, nil
}

// Find 按 ID 读取商品原始数据
func (s *Service) Find(ctx context.Context, id string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	var p Product
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AdminList 后台商品列表，按创建时间倒序
func (s *Service) AdminList(ctx context.Context) ([]Product, error) {
	return s.query(ctx, store.Collection(Collection).Order("createdAt", true))
}

// Create 新增商品
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	in = in.normalize()
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	now := s.now()
	data := in.fields()
	data["createdAt"] = now
	data["updatedAt"] = now

	id, err := s.store.Add(ctx, Collection, data)
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}

	s.logger.Info().Str("product_id", id).Str("name", in.Name).Msg("product created")
	return s.Find(ctx, id)
}

// Update 编辑商品，创建时间保持不变
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	in = in.normalize()
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	data := in.fields()
	data["updatedAt"] = s.now()

	if err := s.store.Update(ctx, Collection, id, data); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")
	return s.Find(ctx, id)
}

// Delete 删除商品
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, Collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *Service) query(ctx context.Context, q store.Query) ([]Product, error) {
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products := make([]Product, 0, len(docs))
	for i := range docs {
		var p Product
		if err := docs[i].Decode(&p); err != nil {
			s.logger.Warn().Err(err).Str("product_id", docs[i].ID).Msg("skip malformed product")
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *Service) card(p *Product) Card {
	category := p.Category
	if category == "" {
		category = defaultCategory
	}
	return Card{
		ID:            p.ID,
		Name:          p.Name,
		ImageURL:      s.images.Resolve(p.ImageURL),
		RegularPrice:  p.RegularPrice,
		DiscountPrice: p.DiscountPrice,
		Price:         p.Price(),
		Category:      category,
		Type:          p.Type,
	}
}
