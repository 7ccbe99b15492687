package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/shopbot/pkg/cart"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/order"
	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("message is required")

// Catalog is the read side of the product catalog.
type Catalog interface {
	ListAll(ctx context.Context) ([]models.Product, error)
}

type HistoryStore interface {
	// Get returns nil when the user has never chatted.
	Get(ctx context.Context, userID string) (*models.ChatHistory, error)
	// Append adds messages and replaces the awaiting state in one write.
	Append(ctx context.Context, userID string, awaiting models.Awaiting, msgs ...models.ChatMessage) error
}

// LanguageModel answers messages no rule understood.
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt string, history []models.ChatMessage, userMessage string) (string, error)
}

type Observer interface {
	ObserveTurn(intent string, d time.Duration)
	ObserveLLM(outcome string, d time.Duration)
}

// TurnResult is what one chat turn returns to the caller.
type TurnResult struct {
	Reply    string           `json:"response"`
	Intent   Intent           `json:"intent,omitempty"`
	Products []models.Product `json:"products"`
	Cart     *models.Cart     `json:"cart"`
	OrderID  *string          `json:"orderId"`
}

type Options struct {
	HistoryWindow   int
	OpeningQuestion string
}

type Orchestrator struct {
	catalog  Catalog
	history  HistoryStore
	carts    *cart.Mutator
	orders   *order.Finalizer
	model    LanguageModel
	logger   *zap.Logger
	observer Observer
	opts     Options
	now      func() time.Time
}

func NewOrchestrator(catalog Catalog, history HistoryStore, carts *cart.Mutator, orders *order.Finalizer,
	model LanguageModel, logger *zap.Logger, observer Observer, opts Options) *Orchestrator {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	if opts.OpeningQuestion == "" {
		opts.OpeningQuestion = "What type of shoes do you need?"
	}
	return &Orchestrator{
		catalog:  catalog,
		history:  history,
		carts:    carts,
		orders:   orders,
		model:    model,
		logger:   logger.Named("dialogue"),
		observer: observer,
		opts:     opts,
		now:      time.Now,
	}
}

// turn carries one request through dispatch.
type turn struct {
	userID   string
	text     string
	catalog  []models.Product
	names    []string
	history  *models.ChatHistory
	awaiting models.Awaiting
	ex       Extraction

	result    TurnResult
	next      models.Awaiting
	cartKnown bool
}

// HandleTurn answers one user message. Nothing is written to the history
// unless the whole turn succeeds; on failure the result still carries an
// apology the caller can show, and the error wraps models.ErrUpstream.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	start := o.now()

	hist, err := o.history.Get(ctx, userID)
	if err != nil {
		return o.fail(userID, fmt.Errorf("get history: %w", err))
	}

	if hist.IsEmpty() {
		reply := o.opts.OpeningQuestion
		if err := o.history.Append(ctx, userID, models.Awaiting{}, o.message(models.RoleBot, reply)); err != nil {
			return o.fail(userID, fmt.Errorf("append history: %w", err))
		}
		o.observe("OPENING", start)
		return &TurnResult{Reply: reply, Products: []models.Product{}}, nil
	}

	products, err := o.catalog.ListAll(ctx)
	if err != nil {
		return o.fail(userID, fmt.Errorf("list catalog: %w", err))
	}

	t := &turn{
		userID:  userID,
		text:    text,
		catalog: products,
		names:   productNames(products),
		history: hist,
	}
	t.awaiting = o.awaitingFor(hist, products)
	t.ex = NewExtractor(t.names).Extract(text)

	intent := Classify(Turn{Text: text, Awaiting: t.awaiting, Extracted: t.ex})
	t.result.Intent = intent

	if err := o.dispatch(ctx, intent, t); err != nil {
		return o.fail(userID, err)
	}

	if !t.cartKnown {
		c, err := o.carts.Get(ctx, userID)
		if err != nil {
			return o.fail(userID, err)
		}
		t.result.Cart = c
	}
	if t.result.Products == nil {
		t.result.Products = []models.Product{}
	}

	err = o.history.Append(ctx, userID, t.next,
		o.message(models.RoleUser, text),
		o.message(models.RoleBot, t.result.Reply))
	if err != nil {
		return o.fail(userID, fmt.Errorf("append history: %w", err))
	}

	o.logger.Debug("Turn handled",
		zap.String("user_id", userID),
		zap.String("intent", string(intent)),
		zap.String("awaiting", string(t.next.Kind)))
	o.observe(string(intent), start)
	return &t.result, nil
}

// awaitingFor prefers the stored state and falls back to reading the last bot
// message of histories that predate it.
func (o *Orchestrator) awaitingFor(hist *models.ChatHistory, catalog []models.Product) models.Awaiting {
	if hist.Awaiting != nil {
		return *hist.Awaiting
	}
	return InferAwaiting(LastBotUtterance(hist.Messages), catalog)
}

func (o *Orchestrator) dispatch(ctx context.Context, intent Intent, t *turn) error {
	switch intent {
	case IntentCheckoutConfirm:
		return o.checkout(ctx, t)

	case IntentViewCart:
		c, err := o.carts.Get(ctx, t.userID)
		if err != nil {
			return err
		}
		t.setCart(c)
		t.result.Reply = CartSummary(c)
		return nil

	case IntentRemoveItem:
		p := findByName(t.catalog, t.ex.Product)
		return o.removeLine(ctx, t, p, *t.ex.Size)

	case IntentRemoveItemNeedSize:
		return o.askRemoveSize(ctx, t, findByName(t.catalog, t.ex.Product))

	case IntentRemoveItemSize:
		p := findByID(t.catalog, t.awaiting.ProductID)
		if p == nil {
			t.result.Reply = replyUnknownProduct
			return nil
		}
		return o.removeLine(ctx, t, p, *t.ex.Size)

	case IntentAddConfirmDuplicate:
		p := findByID(t.catalog, t.awaiting.ProductID)
		if p == nil {
			t.result.Reply = replyUnknownProduct
			return nil
		}
		return o.addLine(ctx, t, p, t.awaiting.Size, false)

	case IntentDeclineDuplicate:
		t.result.Reply = replyDeclined
		return nil

	case IntentAddItem:
		p := findByName(t.catalog, t.ex.Product)
		return o.addLine(ctx, t, p, *t.ex.Size, true)

	case IntentAddItemSize:
		p := findByID(t.catalog, t.awaiting.ProductID)
		if p == nil {
			t.result.Reply = replyUnknownProduct
			return nil
		}
		return o.addLine(ctx, t, p, *t.ex.Size, true)

	case IntentAddItemNeedSize:
		p := findByName(t.catalog, t.ex.Product)
		t.result.Products = []models.Product{*p}
		t.result.Reply = replyAskSizeForAdd(p)
		t.next = awaitingProduct(models.AwaitSizeForAdd, p)
		return nil
	}
	return o.fallback(ctx, t)
}

func (o *Orchestrator) checkout(ctx context.Context, t *turn) error {
	ord, err := o.orders.Finalize(ctx, t.userID)
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		t.setCart(nil)
		t.result.Reply = replyEmptyCart
		return nil
	case err != nil:
		return err
	}
	t.setCart(nil)
	id := ord.ID
	t.result.OrderID = &id
	t.result.Reply = replyOrderPlaced(ord)
	return nil
}

// addLine adds one pair. With confirmDuplicate set, a line that is already in
// the cart is not incremented until the shopper says yes.
func (o *Orchestrator) addLine(ctx context.Context, t *turn, p *models.Product, size models.Size, confirmDuplicate bool) error {
	t.result.Products = []models.Product{*p}

	if !p.HasSize(size) {
		t.result.Reply = replyInvalidSize(p, size)
		t.next = awaitingProduct(models.AwaitSizeForAdd, p)
		return nil
	}

	if confirmDuplicate {
		c, err := o.carts.Get(ctx, t.userID)
		if err != nil {
			return err
		}
		if _, ok := c.Line(p.ID, size); ok {
			t.setCart(c)
			t.result.Reply = replyAlreadyInCart(p, size)
			t.next = awaitingProduct(models.AwaitConfirmDuplicate, p)
			t.next.Size = size
			return nil
		}
	}

	res, err := o.carts.AddItem(ctx, t.userID, p, size)
	if err != nil {
		return err
	}
	t.setCart(res.Cart)
	if res.Merged {
		qty := 0
		if line, ok := res.Cart.Line(p.ID, size); ok {
			qty = line.Quantity
		}
		t.result.Reply = replyIncremented(p, size, qty)
		return nil
	}
	t.result.Reply = replyAdded(p, size)
	return nil
}

func (o *Orchestrator) removeLine(ctx context.Context, t *turn, p *models.Product, size models.Size) error {
	t.result.Products = []models.Product{*p}

	c, err := o.carts.RemoveItem(ctx, t.userID, p, size)
	switch {
	case errors.Is(err, models.ErrItemNotFound):
		t.result.Reply = replyNotInCart(p, &size)
		return nil
	case err != nil:
		return err
	}
	t.setCart(c)
	t.result.Reply = replyRemoved(p, size, c.IsEmpty())
	return nil
}

func (o *Orchestrator) askRemoveSize(ctx context.Context, t *turn, p *models.Product) error {
	t.result.Products = []models.Product{*p}

	c, err := o.carts.Get(ctx, t.userID)
	if err != nil {
		return err
	}
	t.setCart(c)

	var sizes []models.Size
	if c != nil {
		for _, line := range c.Items {
			if line.ProductID == p.ID {
				sizes = append(sizes, line.Size)
			}
		}
	}
	if len(sizes) == 0 {
		t.result.Reply = replyNotInCart(p, nil)
		return nil
	}
	t.result.Reply = replyAskSizeForRemove(p, sizes)
	t.next = awaitingProduct(models.AwaitSizeForRemove, p)
	return nil
}

func (o *Orchestrator) fallback(ctx context.Context, t *turn) error {
	window := HistoryWindow(t.history.Messages, o.opts.HistoryWindow)

	start := o.now()
	reply, err := o.model.Complete(ctx, SystemPrompt(t.catalog), window, t.text)
	if err != nil {
		o.observeLLM("error", start)
		return fmt.Errorf("language model: %w", err)
	}
	o.observeLLM("ok", start)

	if looksLikeCheckoutPrompt(reply) {
		c, err := o.carts.Get(ctx, t.userID)
		if err != nil {
			return err
		}
		t.setCart(c)
		if c.IsEmpty() {
			t.result.Reply = replyEmptyCart
			return nil
		}
		t.result.Reply = replyCheckoutPrompt(c)
		t.next = models.Awaiting{Kind: models.AwaitConfirmCheckout}
		return nil
	}

	t.result.Reply = reply
	ex := NewExtractor(t.names)
	for _, name := range ex.Mentioned(reply) {
		if p := findByName(t.catalog, name); p != nil {
			t.result.Products = append(t.result.Products, *p)
		}
	}
	// The model may ask for a size in its own words; keep following along.
	t.next = InferAwaiting(strings.ToLower(reply), t.catalog)
	return nil
}

func (o *Orchestrator) fail(userID string, err error) (*TurnResult, error) {
	o.logger.Error("Turn failed", zap.String("user_id", userID), zap.Error(err))
	return &TurnResult{Reply: replyApology, Products: []models.Product{}}, fmt.Errorf("%w: %w", models.ErrUpstream, err)
}

func (o *Orchestrator) message(role models.Role, text string) models.ChatMessage {
	return models.ChatMessage{Role: role, Text: text, Timestamp: o.now()}
}

func (o *Orchestrator) observe(intent string, start time.Time) {
	if o.observer != nil {
		o.observer.ObserveTurn(intent, o.now().Sub(start))
	}
}

func (o *Orchestrator) observeLLM(outcome string, start time.Time) {
	if o.observer != nil {
		o.observer.ObserveLLM(outcome, o.now().Sub(start))
	}
}

func (t *turn) setCart(c *models.Cart) {
	t.result.Cart = c
	t.cartKnown = true
}

func awaitingProduct(kind models.AwaitingKind, p *models.Product) models.Awaiting {
	return models.Awaiting{Kind: kind, ProductID: p.ID, ProductName: p.Name}
}
