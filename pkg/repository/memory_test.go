package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/shopbot/pkg/models"
)

func TestMemoryCarts_LineIdentity(t *testing.T) {
	s := NewMemoryCarts()
	ctx := context.Background()
	line := models.CartItem{ProductID: "p1", Name: "Vans Old Skool", Price: 20, Size: 9, Quantity: 1}

	if _, merged, _ := s.IncrementOrAppend(ctx, "u1", line); merged {
		t.Fatal("first add merged")
	}
	c, merged, _ := s.IncrementOrAppend(ctx, "u1", line)
	if !merged || len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("cart = %+v merged=%v", c.Items, merged)
	}
	line.Size = 9.5
	c, _, _ = s.IncrementOrAppend(ctx, "u1", line)
	if len(c.Items) != 2 {
		t.Fatalf("half size should be its own line: %+v", c.Items)
	}

	// Returned carts are copies.
	c.Items[0].Quantity = 99
	got, _ := s.Get(ctx, "u1")
	if got.Items[0].Quantity != 2 {
		t.Fatalf("store aliased a returned cart")
	}
}

func TestMemoryCarts_AdjustQuantityFloor(t *testing.T) {
	s := NewMemoryCarts()
	ctx := context.Background()
	s.IncrementOrAppend(ctx, "u1", models.CartItem{ProductID: "p1", Size: 9, Quantity: 1})

	if _, err := s.AdjustQuantity(ctx, "u1", "p1", 9, -1); !errors.Is(err, models.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
	c, err := s.AdjustQuantity(ctx, "u1", "p1", 9, 2)
	if err != nil || c.Items[0].Quantity != 3 {
		t.Fatalf("adjust = %+v, %v", c, err)
	}
}

func TestMemoryCarts_TakeIsOnce(t *testing.T) {
	s := NewMemoryCarts()
	ctx := context.Background()
	s.IncrementOrAppend(ctx, "u1", models.CartItem{ProductID: "p1", Size: 9, Quantity: 1})

	c, _ := s.Take(ctx, "u1")
	if c == nil || len(c.Items) != 1 {
		t.Fatalf("take = %+v", c)
	}
	if again, _ := s.Take(ctx, "u1"); again != nil {
		t.Fatalf("second take = %+v", again)
	}
	if err := s.Restore(ctx, c); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("restore did not recreate the cart")
	}
}

func TestMemoryHistory_CapsMessages(t *testing.T) {
	s := NewMemoryHistory(4)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := s.Append(ctx, "u1", models.Awaiting{Kind: models.AwaitSizeForAdd, ProductID: "p1"},
			models.ChatMessage{Role: models.RoleUser, Text: fmt.Sprint("u", i)},
			models.ChatMessage{Role: models.RoleBot, Text: fmt.Sprint("b", i)})
		if err != nil {
			t.Fatal(err)
		}
	}
	h, _ := s.Get(ctx, "u1")
	if len(h.Messages) != 4 || h.Messages[0].Text != "u1" {
		t.Fatalf("messages = %+v", h.Messages)
	}
	if h.Awaiting == nil || !h.Awaiting.Is(models.AwaitSizeForAdd) {
		t.Fatalf("awaiting = %+v", h.Awaiting)
	}
	if missing, _ := s.Get(ctx, "u2"); missing != nil {
		t.Fatalf("unknown user has history %+v", missing)
	}
}

func TestMemoryCatalog_Search(t *testing.T) {
	c := NewMemoryCatalog(
		models.Product{ID: "1", Name: "Nike Air Max", Category: "running", Sizes: []models.Size{9}},
		models.Product{ID: "2", Name: "Vans Old Skool", Category: "casual", Sizes: []models.Size{9}},
		models.Product{ID: "3", Name: "Nike Pegasus", Category: "Running", Sizes: []models.Size{9}},
	)
	ctx := context.Background()
	got, _ := c.Search(ctx, "running", "")
	if len(got) != 2 {
		t.Fatalf("category search = %+v", got)
	}
	got, _ = c.Search(ctx, "", "NIKE air")
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("name search = %+v", got)
	}
	if _, err := c.FindByID(ctx, "9"); !errors.Is(err, models.ErrProductNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := c.ReplaceAll(ctx, []models.Product{{Name: "No sizes"}}); !errors.Is(err, models.ErrInvalidProduct) {
		t.Fatalf("ReplaceAll accepted an invalid product: %v", err)
	}
}

func TestMemoryReplay_Expires(t *testing.T) {
	r := NewMemoryReplay(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if err := r.Save(ctx, "u1", "k1", map[string]string{"response": "hi"}); err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if ok, err := r.Load(ctx, "u1", "k1", &got); !ok || err != nil || got["response"] != "hi" {
		t.Fatalf("load = %v, %v, %v", ok, err, got)
	}
	if ok, _ := r.Load(ctx, "u2", "k1", &got); ok {
		t.Fatal("keys are not scoped per user")
	}
	now = now.Add(2 * time.Hour)
	if ok, _ := r.Load(ctx, "u1", "k1", &got); ok {
		t.Fatal("expired entry replayed")
	}
}
