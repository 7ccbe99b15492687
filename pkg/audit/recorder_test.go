package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Write(ctx context.Context, e Entry) error {
	if s.fail {
		return errors.New("sink down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func TestRecorder_DeliversInOrder(t *testing.T) {
	good := &memorySink{}
	bad := &memorySink{fail: true}
	r, err := NewRecorder(zap.NewNop(), good, bad)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	r.Record("cart_add", "u1", map[string]any{"product_id": "p1"})
	r.Record("cart_increment", "u1", nil)
	r.Record("order_placed", "u1", map[string]any{"total_amount": 40.0})

	failures, err := r.Flush(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if failures != 3 {
		t.Fatalf("failures = %d, want 3", failures)
	}

	good.mu.Lock()
	defer good.mu.Unlock()
	if len(good.entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(good.entries))
	}
	if good.entries[0].Action != "cart_add" || good.entries[2].Action != "order_placed" {
		t.Fatalf("entries out of order: %+v", good.entries)
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_KeysByUser(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{writer: w}
	err := s.Write(context.Background(), Entry{Action: "order_placed", UserID: "u42", At: time.Unix(0, 0).UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "u42" {
		t.Fatalf("messages = %+v", w.msgs)
	}
	var e Entry
	if err := json.Unmarshal(w.msgs[0].Value, &e); err != nil || e.Action != "order_placed" {
		t.Fatalf("value = %s (%v)", w.msgs[0].Value, err)
	}
}
