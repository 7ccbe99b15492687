package order

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopbot/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartTaker hands over a user's cart exactly once.
type CartTaker interface {
	// Take atomically removes and returns the user's non-empty cart, or nil
	// when there is nothing to check out.
	Take(ctx context.Context, userID string) (*models.Cart, error)
	// Restore merges the lines of a previously taken cart back.
	Restore(ctx context.Context, cart *models.Cart) error
}

type Store interface {
	Create(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)
}

type Auditor interface {
	Record(action, userID string, data map[string]any)
}

type Counter interface {
	OrderPlaced(total float64)
}

// Finalizer turns a cart into an order.
type Finalizer struct {
	carts   CartTaker
	orders  Store
	logger  *zap.Logger
	status  models.OrderStatus
	audit   Auditor
	metrics Counter
	now     func() time.Time
	newID   func() string
}

type Option func(*Finalizer)

// WithStatus sets the status every new order gets.
func WithStatus(s models.OrderStatus) Option { return func(f *Finalizer) { f.status = s } }
func WithAuditor(a Auditor) Option { return func(f *Finalizer) { f.audit = a } }
func WithMetrics(c Counter) Option { return func(f *Finalizer) { f.metrics = c } }
func WithClock(now func() time.Time) Option { return func(f *Finalizer) { f.now = now } }

func NewFinalizer(carts CartTaker, orders Store, logger *zap.Logger, opts ...Option) *Finalizer {
	f := &Finalizer{
		carts:  carts,
		orders: orders,
		logger: logger.Named("order"),
		status: models.OrderPending,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize snapshots the cart into a new order and deletes the cart. It returns
// ErrEmptyCart when the user has nothing to check out. If the order cannot be
// stored the cart is put back.
func (f *Finalizer) Finalize(ctx context.Context, userID string) (*models.Order, error) {
	c, err := f.carts.Take(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("take cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	order := f.snapshot(userID, c)
	if err := f.orders.Create(ctx, order); err != nil {
		if rerr := f.carts.Restore(ctx, c); rerr != nil {
			f.logger.Error("Failed to restore cart after order failure",
				zap.String("user_id", userID),
				zap.Int("lines", len(c.Items)),
				zap.Error(rerr))
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	f.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("lines", len(order.Items)))

	if f.metrics != nil {
		f.metrics.OrderPlaced(order.TotalAmount)
	}
	if f.audit != nil {
		f.audit.Record("order_placed", userID, map[string]any{
			"order_id":     order.ID,
			"total_amount": order.TotalAmount,
			"status":       string(order.Status),
		})
	}
	return order, nil
}

func (f *Finalizer) snapshot(userID string, c *models.Cart) *models.Order {
	items := make([]models.OrderItem, len(c.Items))
	total := decimal.Zero
	for i, line := range c.Items {
		items[i] = models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			Price:     line.Price,
			Size:      line.Size,
			Quantity:  line.Quantity,
		}
		total = total.Add(line.Subtotal())
	}
	return &models.Order{
		ID:          f.newID(),
		UserID:      userID,
		Items:       items,
		TotalAmount: total.Round(2).InexactFloat64(),
		Status:      f.status,
		CreatedAt:   f.now(),
	}
}

// History lists a user's most recent orders.
func (f *Finalizer) History(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	orders, err := f.orders.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
