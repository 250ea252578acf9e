// Package monitoring collects and exposes Prometheus metrics for game,
// ledger and HTTP activity.
package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ByGamer01/DamnBruh/events"
)

// Collector registers and updates the application metrics
type Collector struct {
	gamesJoined          *prometheus.CounterVec
	gamesSettled         *prometheus.CounterVec
	amountWagered        prometheus.Counter
	amountPaidOut        prometheus.Counter
	usersCreated         prometheus.Counter
	withdrawalsRequested prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a collector and registers its metrics with the
// given registry
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gamesJoined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "damnbruh_games_joined_total",
			Help: "Game sessions created, by game type",
		}, []string{"game_type"}),
		gamesSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "damnbruh_games_settled_total",
			Help: "Game sessions settled, by game type and result",
		}, []string{"game_type", "result"}),
		amountWagered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "damnbruh_amount_wagered_total",
			Help: "Total amount wagered across all sessions",
		}),
		amountPaidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "damnbruh_amount_paid_out_total",
			Help: "Total amount paid out across all settlements",
		}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "damnbruh_users_created_total",
			Help: "Users created on first authentication",
		}),
		withdrawalsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "damnbruh_withdrawals_requested_total",
			Help: "Withdrawal requests accepted",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "damnbruh_http_requests_total",
			Help: "HTTP requests, by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "damnbruh_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.gamesJoined,
		c.gamesSettled,
		c.amountWagered,
		c.amountPaidOut,
		c.usersCreated,
		c.withdrawalsRequested,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// Subscribe attaches the collector to the event bus so committed domain
// events feed the counters
func (c *Collector) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) {
		c.usersCreated.Inc()
	})

	bus.Subscribe(events.EventTypeGameJoined, func(ctx context.Context, e events.Event) {
		joined, ok := e.(events.GameJoinedEvent)
		if !ok {
			return
		}
		c.gamesJoined.WithLabelValues(string(joined.GameType)).Inc()
		c.amountWagered.Add(joined.BetAmount.InexactFloat64())
	})

	bus.Subscribe(events.EventTypeGameSettled, func(ctx context.Context, e events.Event) {
		settled, ok := e.(events.GameSettledEvent)
		if !ok {
			return
		}
		result := "loss"
		if settled.FinalRank <= 3 {
			result = "win"
		}
		c.gamesSettled.WithLabelValues(string(settled.GameType), result).Inc()
		c.amountPaidOut.Add(settled.Payout.InexactFloat64())
	})

	bus.Subscribe(events.EventTypeWithdrawalRequested, func(ctx context.Context, e events.Event) {
		c.withdrawalsRequested.Inc()
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// HTTPMiddleware records request counts and latency per chi route pattern
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		c.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the scrape endpoint handler for the given gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
