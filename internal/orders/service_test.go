package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrpremium/go-storefront-service/internal/catalog"
	"github.com/mrpremium/go-storefront-service/internal/queue"
	"github.com/mrpremium/go-storefront-service/internal/store"
	"github.com/mrpremium/go-storefront-service/internal/validation"
)

type fakePublisher struct {
	events []*queue.OrderEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event *queue.OrderEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	svc       *Service
	store     *store.MemoryStore
	publisher *fakePublisher
	productID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	products := catalog.NewService(st, nil, zerolog.Nop())

	p, err := products.Create(context.Background(), catalog.Input{
		Name:          "Netflix Premium",
		RegularPrice:  500,
		DiscountPrice: 350,
	})
	require.NoError(t, err)

	pub := &fakePublisher{}
	svc := NewService(st, products, pub, zerolog.Nop())
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	return &fixture{svc: svc, store: st, publisher: pub, productID: p.ID}
}

func (f *fixture) form() CheckoutForm {
	return CheckoutForm{
		ProductID:   f.productID,
		FullName:    "Rahim Uddin",
		Email:       "rahim@example.com",
		Mobile:      "01712345678",
		BkashDigits: "123",
	}
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := f.form()
	form.FullName = "  Rahim Uddin  "
	id, err := f.svc.Checkout(ctx, form)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	o, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.productID, o.ProductID)
	assert.Equal(t, "Netflix Premium", o.ProductName)
	assert.Equal(t, float64(350), o.ProductPrice, "使用折扣价")
	assert.Equal(t, "Rahim Uddin", o.CustomerName)
	assert.Equal(t, "01712345678", o.CustomerPhone)
	assert.Equal(t, "123", o.BkashDigits)
	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.IsComplete())
	assert.False(t, o.CreatedAt.IsZero())
	assert.True(t, o.UpdatedAt.IsZero())

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, id, f.publisher.events[0].OrderID)
	assert.Equal(t, float64(350), f.publisher.events[0].ProductPrice)
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(form *CheckoutForm)
		field   string
		message string
	}{
		{name: "缺少姓名", mutate: func(form *CheckoutForm) { form.FullName = " " }, field: "fullName", message: "This field is required"},
		{name: "缺少邮箱", mutate: func(form *CheckoutForm) { form.Email = "" }, field: "email", message: "This field is required"},
		{name: "邮箱格式错误", mutate: func(form *CheckoutForm) { form.Email = "rahim@" }, field: "email", message: "Please enter a valid email address"},
		{name: "手机号位数不对", mutate: func(form *CheckoutForm) { form.Mobile = "0171234567" }, field: "mobile", message: "Please enter a valid mobile number"},
		{name: "手机号含字母", mutate: func(form *CheckoutForm) { form.Mobile = "0171234567a" }, field: "mobile", message: "Please enter a valid mobile number"},
		{name: "bKash 位数不对", mutate: func(form *CheckoutForm) { form.BkashDigits = "12" }, field: "bkashDigits", message: "Please enter last 3 digits of bKash transaction"},
		{name: "bKash 非数字", mutate: func(form *CheckoutForm) { form.BkashDigits = "12x" }, field: "bkashDigits", message: "Please enter last 3 digits of bKash transaction"},
		{name: "缺少 bKash", mutate: func(form *CheckoutForm) { form.BkashDigits = "" }, field: "bkashDigits", message: "This field is required"},
		{name: "缺少商品", mutate: func(form *CheckoutForm) { form.ProductID = "" }, field: "productId", message: "This field is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := f.form()
			tt.mutate(&form)

			_, err := f.svc.Checkout(context.Background(), form)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Fields[tt.field])
			assert.Len(t, verr.Fields, 1)
		})
	}

	assert.Empty(t, f.publisher.events)
}

func TestCheckout_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := f.form()
	form.ProductID = "missing"
	_, err := f.svc.Checkout(ctx, form)
	assert.ErrorIs(t, err, ErrProductNotFound)

	inactive, err := f.store.Add(ctx, catalog.Collection, map[string]any{"name": "Old", "status": "inactive", "regularPrice": 10})
	require.NoError(t, err)
	form.ProductID = inactive
	_, err = f.svc.Checkout(ctx, form)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCheckout_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")

	id, err := f.svc.Checkout(context.Background(), f.form())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCheckout_NoPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, catalog.NewService(f.store, nil, zerolog.Nop()), nil, zerolog.Nop())

	id, err := svc.Checkout(context.Background(), f.form())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Checkout(ctx, f.form())
	require.NoError(t, err)

	assert.Equal(t, &Receipt{
		OrderID:      id,
		ProductName:  "Netflix Premium",
		Amount:       350,
		CustomerName: "Rahim Uddin",
	}, f.svc.Receipt(ctx, id))

	assert.Equal(t, DefaultReceipt(), f.svc.Receipt(ctx, ""))
	assert.Equal(t, DefaultReceipt(), f.svc.Receipt(ctx, "missing"))
	assert.Equal(t, &Receipt{OrderID: "N/A", ProductName: "Product Order", Amount: 0, CustomerName: "Customer"}, DefaultReceipt())

	bare, err := f.store.Add(ctx, Collection, map[string]any{"status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, &Receipt{
		OrderID:      bare,
		ProductName:  "Unknown Product",
		CustomerName: "Unknown Customer",
	}, f.svc.Receipt(ctx, bare))
}

func TestAdminList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Checkout(ctx, f.form())
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, f.form())
	require.NoError(t, err)

	orders, err := f.svc.AdminList(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)
}

func TestAdminList_Limit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < adminListLimit+5; i++ {
		_, err := f.store.Add(ctx, Collection, map[string]any{
			"createdAt": time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	orders, err := f.svc.AdminList(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, adminListLimit)
	assert.Equal(t, 104, orders[0].CreatedAt.Minute()+60*(orders[0].CreatedAt.Hour()))
}

func TestSetCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Checkout(ctx, f.form())
	require.NoError(t, err)

	o, err := f.svc.SetCompleted(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, o.Status)
	assert.True(t, o.Completed)
	assert.True(t, o.IsComplete())
	assert.False(t, o.UpdatedAt.IsZero())
	assert.Equal(t, "Netflix Premium", o.ProductName, "合并写入保留其他字段")

	o, err = f.svc.SetCompleted(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, o.Status)
	assert.False(t, o.IsComplete())

	_, err = f.svc.SetCompleted(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  bool
	}{
		{name: "状态完成", order: Order{Status: StatusComplete}, want: true},
		{name: "旧字段完成", order: Order{Status: StatusPending, Completed: true}, want: true},
		{name: "待处理", order: Order{Status: StatusPending}, want: false},
		{name: "未完成", order: Order{Status: StatusIncomplete}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.IsComplete())
		})
	}
	assert.True(t, Order{Completed: true}.IsComplete(), "值类型上也可以调用")
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Checkout(ctx, f.form())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, id))
	_, err = f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, id), ErrNotFound)
}
