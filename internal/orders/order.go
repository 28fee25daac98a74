package orders

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrpremium/go-storefront-service/internal/validation"
)

// 集合名
const Collection = "orders"

// 订单状态
const (
	StatusPending    = "pending"
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// 表单提示语
const (
	msgRequired = "This field is required"
	msgEmail    = "Please enter a valid email address"
	msgMobile   = "Please enter a valid mobile number"
	msgBkash    = "Please enter last 3 digits of bKash transaction"
)

var (
	mobileRe = regexp.MustCompile(`^[0-9]{11}$`)
	bkashRe  = regexp.MustCompile(`^[0-9]{3}$`)
)

// Order 订单
type Order struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName"`
	ProductPrice  float64   `json:"productPrice"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	BkashDigits   string    `json:"bkashDigits"`
	Status        string    `json:"status"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// IsComplete 旧数据只有 completed 字段，两者任一成立即为完成
func (o Order) IsComplete() bool {
	return o.Status == StatusComplete || o.Completed
}

// CheckoutForm 结账表单
type CheckoutForm struct {
	ProductID   string `json:"productId" validate:"required"`
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Mobile      string `json:"mobile" validate:"required,mobile"`
	BkashDigits string `json:"bkashDigits" validate:"required,bkash"`
}

func (f CheckoutForm) trimmed() CheckoutForm {
	f.ProductID = strings.TrimSpace(f.ProductID)
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.BkashDigits = strings.TrimSpace(f.BkashDigits)
	return f
}

func newValidator() *validator.Validate {
	v := validation.New()
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bkash", func(fl validator.FieldLevel) bool {
		return bkashRe.MatchString(fl.Field().String())
	})
	return v
}

func checkoutMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return msgEmail
	case "mobile":
		return msgMobile
	case "bkash":
		return msgBkash
	default:
		return msgRequired
	}
}

// Receipt 感谢页展示的订单信息
type Receipt struct {
	OrderID      string  `json:"orderId"`
	ProductName  string  `json:"productName"`
	Amount       float64 `json:"amount"`
	CustomerName string  `json:"customerName"`
}

// DefaultReceipt 订单不存在或读取失败时展示
func DefaultReceipt() *Receipt {
	return &Receipt{
		OrderID:      "N/A",
		ProductName:  "Product Order",
		Amount:       0,
		CustomerName: "Customer",
	}
}

func receiptFor(o *Order) *Receipt {
	r := &Receipt{
		OrderID:      o.ID,
		ProductName:  o.ProductName,
		Amount:       o.ProductPrice,
		CustomerName: o.CustomerName,
	}
	if r.ProductName == "" {
		r.ProductName = "Unknown Product"
	}
	if r.CustomerName == "" {
		r.CustomerName = "Unknown Customer"
	}
	return r
}
