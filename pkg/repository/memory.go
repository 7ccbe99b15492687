package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/shopbot/pkg/models"
)

// The in-memory stores back the "memory" storage driver and the tests. Each
// operation holds the store lock for its whole read-modify-write, matching the
// single-document atomicity of the Mongo stores.

type MemoryCatalog struct {
	mu       sync.RWMutex
	products []models.Product
}

func NewMemoryCatalog(products ...models.Product) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.products = append(c.products, products...)
	return c
}

func (c *MemoryCatalog) ListAll(ctx context.Context) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

func (c *MemoryCatalog) Search(ctx context.Context, category, query string) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	query = strings.ToLower(query)
	out := []models.Product{}
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *MemoryCatalog) FindByID(ctx context.Context, id string) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (c *MemoryCatalog) ReplaceAll(ctx context.Context, products []models.Product) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = append([]models.Product(nil), products...)
	return nil
}

type MemoryCarts struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
	now   func() time.Time
}

func NewMemoryCarts() *MemoryCarts {
	return &MemoryCarts{carts: make(map[string]*models.Cart), now: time.Now}
}

func (s *MemoryCarts) Get(ctx context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.carts[userID]), nil
}

func (s *MemoryCarts) IncrementOrAppend(ctx context.Context, userID string, line models.CartItem) (*models.Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.carts[userID]
	if !ok {
		c = &models.Cart{UserID: userID, CreatedAt: now}
		s.carts[userID] = c
	}
	c.UpdatedAt = now
	if existing, found := c.Line(line.ProductID, line.Size); found {
		existing.Quantity += line.Quantity
		return cloneCart(c), true, nil
	}
	c.Items = append(c.Items, line)
	return cloneCart(c), false, nil
}

func (s *MemoryCarts) AdjustQuantity(ctx context.Context, userID, productID string, size models.Size, delta int) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[userID]
	line, ok := c.Line(productID, size)
	if !ok || line.Quantity+delta < 1 {
		return nil, models.ErrItemNotFound
	}
	line.Quantity += delta
	c.UpdatedAt = s.now()
	return cloneCart(c), nil
}

func (s *MemoryCarts) PullLine(ctx context.Context, userID, productID string, size models.Size) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[userID]
	if _, ok := c.Line(productID, size); !ok {
		return nil, models.ErrItemNotFound
	}
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID == productID && item.Size == size {
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	c.UpdatedAt = s.now()
	return cloneCart(c), nil
}

func (s *MemoryCarts) DeleteIfEmpty(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok || !c.IsEmpty() {
		return false, nil
	}
	delete(s.carts, userID)
	return true, nil
}

func (s *MemoryCarts) Delete(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.carts[userID]
	delete(s.carts, userID)
	return ok, nil
}

func (s *MemoryCarts) Take(ctx context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	delete(s.carts, userID)
	if c.IsEmpty() {
		return nil, nil
	}
	return c, nil
}

func (s *MemoryCarts) Restore(ctx context.Context, cart *models.Cart) error {
	for _, line := range cart.Items {
		if _, _, err := s.IncrementOrAppend(ctx, cart.UserID, line); err != nil {
			return err
		}
	}
	return nil
}

// Len is the number of stored cart documents.
func (s *MemoryCarts) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func cloneCart(c *models.Cart) *models.Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]models.CartItem(nil), c.Items...)
	return &out
}

type MemoryHistory struct {
	mu        sync.Mutex
	histories map[string]*models.ChatHistory
	limit     int
	now       func() time.Time
}

// NewMemoryHistory keeps at most limit messages per user; 0 means unbounded.
func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{histories: make(map[string]*models.ChatHistory), limit: limit, now: time.Now}
}

func (s *MemoryHistory) Get(ctx context.Context, userID string) (*models.ChatHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok {
		return nil, nil
	}
	out := *h
	out.Messages = append([]models.ChatMessage(nil), h.Messages...)
	if h.Awaiting != nil {
		a := *h.Awaiting
		out.Awaiting = &a
	}
	return &out, nil
}

func (s *MemoryHistory) Append(ctx context.Context, userID string, awaiting models.Awaiting, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	h, ok := s.histories[userID]
	if !ok {
		h = &models.ChatHistory{UserID: userID, CreatedAt: now}
		s.histories[userID] = h
	}
	h.Messages = append(h.Messages, msgs...)
	if s.limit > 0 && len(h.Messages) > s.limit {
		h.Messages = h.Messages[len(h.Messages)-s.limit:]
	}
	h.Awaiting = &awaiting
	h.UpdatedAt = now
	return nil
}

type MemoryOrders struct {
	mu     sync.Mutex
	orders []models.Order
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{}
}

func (s *MemoryOrders) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := *order
	o.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders = append(s.orders, o)
	return nil
}

func (s *MemoryOrders) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type replayEntry struct {
	data    []byte
	expires time.Time
}

// MemoryReplay is the in-process counterpart of RedisReplay.
type MemoryReplay struct {
	mu      sync.Mutex
	entries map[string]replayEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryReplay(ttl time.Duration) *MemoryReplay {
	return &MemoryReplay{entries: make(map[string]replayEntry), ttl: ttl, now: time.Now}
}

func (r *MemoryReplay) Load(ctx context.Context, userID, key string, dest interface{}) (bool, error) {
	r.mu.Lock()
	e, ok := r.entries[replayKey(userID, key)]
	r.mu.Unlock()
	if !ok || r.now().After(e.expires) {
		return false, nil
	}
	return true, json.Unmarshal(e.data, dest)
}

func (r *MemoryReplay) Save(ctx context.Context, userID, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[replayKey(userID, key)] = replayEntry{data: data, expires: r.now().Add(r.ttl)}
	return nil
}
