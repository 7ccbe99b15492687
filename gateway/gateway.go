package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/shopbot/pkg/cart"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/dialogue"
	"github.com/example/shopbot/pkg/metrics"
	"github.com/example/shopbot/pkg/models"
	"github.com/example/shopbot/pkg/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDKey         = "user_id"
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxUserIDLength   = 64
)

type Catalog interface {
	Search(ctx context.Context, category, query string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

// Replay stores chat results by idempotency key.
type Replay interface {
	Load(ctx context.Context, userID, key string, dest interface{}) (bool, error)
	Save(ctx context.Context, userID, key string, value interface{}) error
}

type HealthChecker interface {
	Check(ctx context.Context) []string
}

// Deps are the services behind the HTTP API. Replay, Metrics and Health are
// optional.
type Deps struct {
	Orchestrator *dialogue.Orchestrator
	Catalog      Catalog
	Carts        *cart.Mutator
	Orders       *order.Finalizer
	History      dialogue.HistoryStore
	Replay       Replay
	Metrics      *metrics.Registry
	Health       HealthChecker
}

type Gateway struct {
	config *config.Config
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.Gateway.CORSOrigins)))

	g := &Gateway{
		config: cfg,
		deps:   deps,
		logger: logger,
		router: router,
	}
	g.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", idempotencyHeader},
		ExposeHeaders: []string{"Content-Length", replayedHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)
	if g.deps.Metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := g.router.Group("/api/v1")
	v1.GET("/products", g.listProducts)
	v1.GET("/products/:id", g.getProduct)

	shopper := v1.Group("", g.authMiddleware())
	{
		shopper.POST("/chat", g.chat)
		shopper.GET("/chat/history", g.chatHistory)

		shopper.GET("/cart", g.getCart)
		shopper.POST("/cart", g.addToCart)
		shopper.PUT("/cart", g.updateCart)
		shopper.DELETE("/cart", g.clearCart)

		shopper.POST("/checkout", g.checkout)
		shopper.GET("/orders", g.listOrders)
	}
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

func (g *Gateway) health(c *gin.Context) {
	if g.deps.Health != nil {
		if failing := g.deps.Health.Check(c.Request.Context()); len(failing) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failing": failing})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success bool `json:"success"`
	*dialogue.TurnResult
}

func (g *Gateway) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))

	if key != "" && g.deps.Replay != nil {
		var stored chatResponse
		found, err := g.deps.Replay.Load(ctx, userID, key, &stored)
		if err != nil {
			g.logger.Warn("Replay lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		if found {
			g.deps.Metrics.TurnReplayed()
			c.Header(replayedHeader, "true")
			c.JSON(http.StatusOK, stored)
			return
		}
	}

	res, err := g.deps.Orchestrator.HandleTurn(ctx, userID, req.Message)
	if err != nil {
		status := g.status(err)
		body := gin.H{"success": false, "message": http.StatusText(status)}
		if res != nil {
			body["response"] = res.Reply
		}
		c.JSON(status, body)
		return
	}

	out := chatResponse{Success: true, TurnResult: res}
	if key != "" && g.deps.Replay != nil {
		if err := g.deps.Replay.Save(ctx, userID, key, out); err != nil {
			g.logger.Warn("Replay save failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (g *Gateway) chatHistory(c *gin.Context) {
	h, err := g.deps.History.Get(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		g.fail(c, err)
		return
	}
	messages := []models.ChatMessage{}
	if h != nil {
		messages = h.Messages
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.deps.Catalog.Search(c.Request.Context(), c.Query("category"), c.Query("q"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (g *Gateway) getProduct(c *gin.Context) {
	p, err := g.deps.Catalog.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (g *Gateway) getCart(c *gin.Context) {
	ct, err := g.deps.Carts.Get(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(ct))
}

type cartLineRequest struct {
	ProductID string      `json:"productId"`
	Size      models.Size `json:"size"`
	Action    string      `json:"action"`
}

func (r *cartLineRequest) validate() string {
	switch {
	case strings.TrimSpace(r.ProductID) == "":
		return "productId is required"
	case r.Size <= 0:
		return "size must be positive"
	}
	return ""
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	p, err := g.deps.Catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		g.fail(c, err)
		return
	}
	res, err := g.deps.Carts.AddItem(ctx, c.GetString(userIDKey), p, req.Size)
	if err != nil {
		g.fail(c, err)
		return
	}
	body := cartBody(res.Cart)
	body["merged"] = res.Merged
	c.JSON(http.StatusOK, body)
}

func (g *Gateway) updateCart(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)
	var (
		ct  *models.Cart
		err error
	)
	switch req.Action {
	case "increment":
		ct, err = g.deps.Carts.IncrementLine(ctx, userID, req.ProductID, req.Size)
	case "decrement":
		ct, err = g.deps.Carts.DecrementLine(ctx, userID, req.ProductID, req.Size)
	case "remove":
		ct, err = g.deps.Carts.RemoveLine(ctx, userID, req.ProductID, req.Size)
	default:
		badRequest(c, "action must be increment, decrement or remove")
		return
	}
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(ct))
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.deps.Carts.Clear(c.Request.Context(), c.GetString(userIDKey)); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) checkout(c *gin.Context) {
	o, err := g.deps.Orders.Finalize(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": o, "orderId": o.ID, "reference": o.Reference()})
}

func (g *Gateway) listOrders(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	orders, err := g.deps.Orders.History(c.Request.Context(), c.GetString(userIDKey), limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func cartBody(ct *models.Cart) gin.H {
	return gin.H{"success": true, "cart": ct, "total": ct.Total().StringFixed(2)}
}

// status maps domain errors to HTTP status codes.
func (g *Gateway) status(err error) int {
	switch {
	case errors.Is(err, dialogue.ErrEmptyMessage),
		errors.Is(err, models.ErrInvalidSize),
		errors.Is(err, models.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrItemNotFound),
		errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (g *Gateway) fail(c *gin.Context, err error) {
	status := g.status(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", c.GetString(userIDKey)),
			zap.Error(err))
		c.JSON(status, gin.H{"success": false, "message": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
