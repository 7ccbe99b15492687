package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/models"
	"github.com/google/uuid"
)

// These tests need a running MongoDB; set SHOPBOT_TEST_MONGO_URI to run them.
func testMongo(t *testing.T) *MongoRepository {
	t.Helper()
	uri := os.Getenv("SHOPBOT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SHOPBOT_TEST_MONGO_URI not set")
	}
	repo, err := NewMongoRepository(&config.MongoDBConfig{
		URI:        uri,
		Database:   "shopbot_test_" + uuid.NewString()[:8],
		Collection: "audit_logs",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		repo.database.Drop(ctx)
		repo.Close(ctx)
	})
	return repo
}

func TestMongoCarts(t *testing.T) {
	repo := testMongo(t)
	s := repo.Carts()
	ctx := context.Background()
	line := models.CartItem{ProductID: "p1", Name: "Vans Old Skool", Price: 20, Size: 9.5, Quantity: 1}

	if _, merged, err := s.IncrementOrAppend(ctx, "u1", line); err != nil || merged {
		t.Fatalf("first add: merged=%v err=%v", merged, err)
	}
	c, merged, err := s.IncrementOrAppend(ctx, "u1", line)
	if err != nil || !merged || c.Items[0].Quantity != 2 {
		t.Fatalf("second add: %+v merged=%v err=%v", c, merged, err)
	}
	if _, err := s.AdjustQuantity(ctx, "u1", "p1", 9.5, -2); err != models.ErrItemNotFound {
		t.Fatalf("decrement below one: %v", err)
	}
	c, err = s.PullLine(ctx, "u1", "p1", 9.5)
	if err != nil || !c.IsEmpty() {
		t.Fatalf("pull: %+v %v", c, err)
	}
	if deleted, _ := s.DeleteIfEmpty(ctx, "u1"); !deleted {
		t.Fatal("empty cart not deleted")
	}

	s.IncrementOrAppend(ctx, "u1", line)
	taken, err := s.Take(ctx, "u1")
	if err != nil || taken == nil {
		t.Fatalf("take: %+v %v", taken, err)
	}
	if again, _ := s.Take(ctx, "u1"); again != nil {
		t.Fatal("cart taken twice")
	}
}

func TestMongoHistory(t *testing.T) {
	repo := testMongo(t)
	s := repo.History(3)
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c", "d"} {
		if err := s.Append(ctx, "u1", models.Awaiting{}, models.ChatMessage{Role: models.RoleUser, Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	h, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Messages) != 3 || h.Messages[0].Text != "b" || h.Awaiting == nil {
		t.Fatalf("history = %+v", h)
	}
}
