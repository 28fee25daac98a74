package catalog

import (
	"strings"
	"time"
)

// 集合名
const Collection = "products"

// 商品状态
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// 商品类型
const (
	TypeProduct      = "product"
	TypeSubscription = "subscription"
	TypePC           = "pc"
	TypeAndroid      = "android"
)

const (
	defaultDescription = "No description available."
	defaultCategory    = "General"
)

// Product 商品
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	RegularPrice  float64   `json:"regularPrice"`
	DiscountPrice float64   `json:"discountPrice"`
	ImageURL      string    `json:"imageUrl"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsActive 没有状态的商品也算上架
func (p *Product) IsActive() bool {
	return p.Status == "" || p.Status == StatusActive
}

// Price 实际售价：有折扣价用折扣价
func (p *Product) Price() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.RegularPrice
}

// matchesType 未设置类型的商品在所有分类页都显示
func (p *Product) matchesType(productType string) bool {
	return productType == "" || p.Type == "" || p.Type == productType
}

// matchesSearch 名称、描述、分类中任意一个包含关键字（不区分大小写）
func (p *Product) matchesSearch(term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Description, p.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Card 列表中的商品卡片
type Card struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ImageURL      string  `json:"imageUrl"`
	RegularPrice  float64 `json:"regularPrice"`
	DiscountPrice float64 `json:"discountPrice"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	Type          string  `json:"type,omitempty"`
}

// Detail 商品详情，描述已净化
type Detail struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ImageURL        string  `json:"imageUrl"`
	Category        string  `json:"category"`
	RegularPrice    float64 `json:"regularPrice"`
	Price           float64 `json:"price"`
	DescriptionHTML string  `json:"descriptionHtml"`
	Related         []Card  `json:"related"`
}
