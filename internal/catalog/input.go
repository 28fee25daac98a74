package catalog

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrpremium/go-storefront-service/internal/sanitizer"
	"github.com/mrpremium/go-storefront-service/internal/validation"
)

// 表单提示语
const (
	msgNameAndPrices   = "Please fill in product name and valid prices"
	msgDiscountTooHigh = "Discount price cannot be higher than regular price"
	msgImageURL        = "Please enter a valid image URL"
	msgStatus          = "Please choose a valid status"
	msgType            = "Please choose a valid product type"
)

// Input 后台新增/编辑商品的表单
type Input struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	RegularPrice  float64 `json:"regularPrice" validate:"gt=0"`
	DiscountPrice float64 `json:"discountPrice" validate:"gt=0,ltefield=RegularPrice"`
	ImageURL      string  `json:"imageUrl" validate:"omitempty,weburl"`
	Category      string  `json:"category"`
	Status        string  `json:"status" validate:"omitempty,oneof=active inactive"`
	Type          string  `json:"type" validate:"omitempty,oneof=product subscription pc android"`
}

// normalize 去掉首尾空白，名称和分类只保留纯文本
func (in Input) normalize() Input {
	in.Name = sanitizer.Text(in.Name)
	in.Category = sanitizer.Text(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if in.Status == "" {
		in.Status = StatusActive
	}
	return in
}

func inputMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "discountPrice":
		if fe.Tag() == "ltefield" {
			return msgDiscountTooHigh
		}
		return msgNameAndPrices
	case "imageUrl":
		return msgImageURL
	case "status":
		return msgStatus
	case "type":
		return msgType
	default:
		return msgNameAndPrices
	}
}

// fields 写入存储的字段（不含时间戳）
func (in Input) fields() map[string]any {
	return map[string]any{
		"name":          in.Name,
		"description":   in.Description,
		"regularPrice":  in.RegularPrice,
		"discountPrice": in.DiscountPrice,
		"imageUrl":      in.ImageURL,
		"category":      in.Category,
		"status":        in.Status,
		"type":          in.Type,
	}
}

func validateInput(v *validator.Validate, in Input) error {
	return validation.Struct(v, in, inputMessage)
}
