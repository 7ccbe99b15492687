// Package cart applies shopper actions to the single cart document each user owns.
// Every mutation is one atomic store call keyed by user id, and a cart that
// loses its last line is deleted rather than left empty.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shopbot/pkg/models"
	"go.uber.org/zap"
)

// Store is the cart document store.
type Store interface {
	// Get returns nil when the user has no cart.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// IncrementOrAppend adds line.Quantity to the matching (product, size) line,
	// or appends the line, creating the cart if needed. merged reports which.
	IncrementOrAppend(ctx context.Context, userID string, line models.CartItem) (cart *models.Cart, merged bool, err error)
	// AdjustQuantity adds delta to an existing line. A negative delta only
	// applies when the resulting quantity stays at least 1; otherwise
	// ErrItemNotFound is returned and nothing changes.
	AdjustQuantity(ctx context.Context, userID, productID string, size models.Size, delta int) (*models.Cart, error)
	// PullLine removes a line and returns the cart afterwards.
	PullLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error)
	// DeleteIfEmpty removes the cart only if it has no lines.
	DeleteIfEmpty(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// Auditor receives a record of every applied mutation.
type Auditor interface {
	Record(action, userID string, data map[string]any)
}

// Counter counts applied mutations by operation.
type Counter interface {
	CartMutation(op string)
}

type Mutator struct {
	store   Store
	logger  *zap.Logger
	audit   Auditor
	metrics Counter
}

type Option func(*Mutator)

func WithAuditor(a Auditor) Option { return func(m *Mutator) { m.audit = a } }
func WithMetrics(c Counter) Option { return func(m *Mutator) { m.metrics = c } }

func NewMutator(store Store, logger *zap.Logger, opts ...Option) *Mutator {
	m := &Mutator{store: store, logger: logger.Named("cart")}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddResult is the outcome of AddItem.
type AddResult struct {
	Cart *models.Cart
	// Merged is true when the line already existed and its quantity grew.
	Merged bool
}

// Get returns the user's cart, or nil when there is none. An empty cart left
// behind by an interrupted operation is deleted on sight.
func (m *Mutator) Get(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if c != nil && c.IsEmpty() {
		if _, err := m.store.DeleteIfEmpty(ctx, userID); err != nil {
			m.logger.Warn("Failed to delete empty cart", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, nil
	}
	return c, nil
}

// AddItem puts one pair of product in size into the cart.
func (m *Mutator) AddItem(ctx context.Context, userID string, product *models.Product, size models.Size) (*AddResult, error) {
	if !product.HasSize(size) {
		return nil, fmt.Errorf("%w: %s has no size %s", models.ErrInvalidSize, product.Name, size)
	}

	c, merged, err := m.store.IncrementOrAppend(ctx, userID, models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Price:     product.Price,
		Size:      size,
		Quantity:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	op := "add"
	if merged {
		op = "increment"
	}
	m.applied(op, userID, product.ID, size)
	return &AddResult{Cart: c, Merged: merged}, nil
}

// RemoveItem deletes the (product, size) line. The returned cart is nil when
// the cart was deleted because it became empty.
func (m *Mutator) RemoveItem(ctx context.Context, userID string, product *models.Product, size models.Size) (*models.Cart, error) {
	return m.RemoveLine(ctx, userID, product.ID, size)
}

func (m *Mutator) RemoveLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error) {
	c, err := m.store.PullLine(ctx, userID, productID, size)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("remove item: %w", err)
	}
	m.applied("remove", userID, productID, size)

	if c.IsEmpty() {
		if _, err := m.store.DeleteIfEmpty(ctx, userID); err != nil {
			return nil, fmt.Errorf("delete empty cart: %w", err)
		}
		return nil, nil
	}
	return c, nil
}

func (m *Mutator) IncrementLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error) {
	c, err := m.store.AdjustQuantity(ctx, userID, productID, size, 1)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("increment line: %w", err)
	}
	m.applied("increment", userID, productID, size)
	return c, nil
}

// DecrementLine lowers the quantity by one, removing the line instead of
// leaving it at zero.
func (m *Mutator) DecrementLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error) {
	c, err := m.store.AdjustQuantity(ctx, userID, productID, size, -1)
	switch {
	case err == nil:
		m.applied("decrement", userID, productID, size)
		return c, nil
	case errors.Is(err, models.ErrItemNotFound):
		// Either the line has quantity 1 or it does not exist.
		return m.RemoveLine(ctx, userID, productID, size)
	default:
		return nil, fmt.Errorf("decrement line: %w", err)
	}
}

// Clear deletes the cart. Clearing a user without a cart is not an error.
func (m *Mutator) Clear(ctx context.Context, userID string) error {
	deleted, err := m.store.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if deleted {
		m.applied("clear", userID, "", 0)
	}
	return nil
}

func (m *Mutator) applied(op, userID, productID string, size models.Size) {
	m.logger.Debug("Cart updated",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Stringer("size", size))

	if m.metrics != nil {
		m.metrics.CartMutation(op)
	}
	if m.audit != nil {
		data := map[string]any{"op": op}
		if productID != "" {
			data["product_id"] = productID
			data["size"] = float64(size)
		}
		m.audit.Record("cart_"+op, userID, data)
	}
}
