package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/repository"
	"go.uber.org/zap"
)

type failingOrders struct{ repository.MemoryOrders }

func (f *failingOrders) Create(ctx context.Context, order *models.Order) error {
	return errors.New("mysql: connection refused")
}

func fill(t *testing.T, carts *repository.MemoryCarts, userID string) {
	t.Helper()
	ctx := context.Background()
	lines := []models.CartItem{
		{ProductID: "p-vans", Name: "Vans Old Skool", Price: 20, Size: 9, Quantity: 2},
		{ProductID: "p-socks", Name: "Running Socks", Price: 0.1, Size: 1, Quantity: 3},
	}
	for _, l := range lines {
		if _, _, err := carts.IncrementOrAppend(ctx, userID, l); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFinalize(t *testing.T) {
	carts := repository.NewMemoryCarts()
	orders := repository.NewMemoryOrders()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := NewFinalizer(carts, orders, zap.NewNop(), WithStatus(models.OrderCompleted), WithClock(func() time.Time { return fixed }))
	fill(t, carts, "u1")

	o, err := f.Finalize(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if o.TotalAmount != 40.3 {
		t.Fatalf("total = %v, want 40.3", o.TotalAmount)
	}
	if o.Status != models.OrderCompleted || !o.CreatedAt.Equal(fixed) || len(o.ID) != 36 {
		t.Fatalf("order = %+v", o)
	}
	if len(o.Items) != 2 || o.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", o.Items)
	}
	if carts.Len() != 0 {
		t.Fatalf("cart not deleted")
	}

	history, _ := f.History(context.Background(), "u1", 10)
	if len(history) != 1 || history[0].ID != o.ID {
		t.Fatalf("history = %+v", history)
	}

	if _, err := f.Finalize(context.Background(), "u1"); !errors.Is(err, models.ErrEmptyCart) {
		t.Fatalf("second finalize err = %v, want ErrEmptyCart", err)
	}
}

func TestFinalize_RestoresCartWhenOrderFails(t *testing.T) {
	carts := repository.NewMemoryCarts()
	f := NewFinalizer(carts, &failingOrders{}, zap.NewNop())
	fill(t, carts, "u1")

	if _, err := f.Finalize(context.Background(), "u1"); err == nil {
		t.Fatal("expected an error")
	}
	c, _ := carts.Get(context.Background(), "u1")
	if c == nil || len(c.Items) != 2 {
		t.Fatalf("cart not restored: %+v", c)
	}
	if line, _ := c.Line("p-vans", 9); line.Quantity != 2 {
		t.Fatalf("restored quantity = %d", line.Quantity)
	}
}
