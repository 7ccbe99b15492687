package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's collectors. A nil *Registry is valid and
// records nothing, which keeps tests and tools free of metric wiring.
type Registry struct {
	reg           *prometheus.Registry
	Turns         *prometheus.CounterVec
	TurnLatency   prometheus.Histogram
	LLMRequests   *prometheus.CounterVec
	LLMLatency    prometheus.Histogram
	CartMutations *prometheus.CounterVec
	Orders        prometheus.Counter
	OrderAmount   prometheus.Counter
	ReplayHits    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	turns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopbot_turns_total",
		Help: "Chat turns handled, by classified intent.",
	}, []string{"intent"})
	turnLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopbot_turn_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	llmRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopbot_llm_requests_total",
	}, []string{"outcome"})
	llmLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopbot_llm_request_duration_seconds",
		Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
	})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopbot_cart_mutations_total",
	}, []string{"op"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "shopbot_orders_total"})
	orderAmount := prometheus.NewCounter(prometheus.CounterOpts{Name: "shopbot_order_amount_total"})
	replayHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "shopbot_turn_replays_total"})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		turns, turnLatency, llmRequests, llmLatency, cartMutations, orders, orderAmount, replayHits,
	)
	return &Registry{
		reg:           r,
		Turns:         turns,
		TurnLatency:   turnLatency,
		LLMRequests:   llmRequests,
		LLMLatency:    llmLatency,
		CartMutations: cartMutations,
		Orders:        orders,
		OrderAmount:   orderAmount,
		ReplayHits:    replayHits,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ObserveTurn(intent string, d time.Duration) {
	if r == nil {
		return
	}
	r.Turns.WithLabelValues(intent).Inc()
	r.TurnLatency.Observe(d.Seconds())
}

func (r *Registry) ObserveLLM(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.LLMRequests.WithLabelValues(outcome).Inc()
	r.LLMLatency.Observe(d.Seconds())
}

func (r *Registry) CartMutation(op string) {
	if r == nil {
		return
	}
	r.CartMutations.WithLabelValues(op).Inc()
}

func (r *Registry) OrderPlaced(total float64) {
	if r == nil {
		return
	}
	r.Orders.Inc()
	r.OrderAmount.Add(total)
}

func (r *Registry) TurnReplayed() {
	if r == nil {
		return
	}
	r.ReplayHits.Inc()
}
