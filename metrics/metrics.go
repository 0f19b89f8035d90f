package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"wagerly/events"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wagerly"

// Metrics holds the application collectors and the registry they are exposed from
type Metrics struct {
	registry *prometheus.Registry

	betsCreated        prometheus.Counter
	participations     prometheus.Counter
	stakedVolume       prometheus.Counter
	resolutions        *prometheus.CounterVec
	paidOut            prometheus.Counter
	disputes           prometheus.Counter
	ledgerEntries      *prometheus.CounterVec
	withdrawalsSettled *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, including the process and Go runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		betsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "created_total",
			Help:      "Total number of bets created.",
		}),
		participations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "participations_total",
			Help:      "Total number of answers staked on bets.",
		}),
		stakedVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "resolved_pot_dollars_total",
			Help:      "Sum of the pots of resolved bets.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "resolved_total",
			Help:      "Total number of resolved bets by outcome.",
		}, []string{"outcome"}),
		paidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "paid_out_dollars_total",
			Help:      "Sum of rewards credited to winners.",
		}),
		disputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disputes",
			Name:      "filed_total",
			Help:      "Total number of disputes filed.",
		}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Total number of ledger entries written by type and status.",
		}, []string{"type", "status"}),
		withdrawalsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "withdrawals_settled_total",
			Help:      "Total number of withdrawals settled by the payment gateway by final status.",
		}, []string{"status"}),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.betsCreated,
		m.participations,
		m.stakedVolume,
		m.resolutions,
		m.paidOut,
		m.disputes,
		m.ledgerEntries,
		m.withdrawalsSettled,
		m.httpInFlight,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Subscribe feeds the domain counters from committed events
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(m.observe)
}

func (m *Metrics) observe(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BetCreatedEvent:
		m.betsCreated.Inc()
	case events.BetParticipatedEvent:
		m.participations.Inc()
	case events.BetResolvedEvent:
		outcome := "winners"
		if len(e.WinnerIDs) == 0 {
			outcome = "no_winners"
		}
		m.resolutions.WithLabelValues(outcome).Inc()
		m.stakedVolume.Add(e.TotalPot.InexactFloat64())
		m.paidOut.Add(e.RewardPerWinner.InexactFloat64() * float64(len(e.WinnerIDs)))
	case events.DisputeFiledEvent:
		m.disputes.Inc()
	case events.BalanceChangeEvent:
		m.ledgerEntries.WithLabelValues(string(e.TransactionType), string(e.Status)).Inc()
	case events.WithdrawalSettledEvent:
		m.withdrawalsSettled.WithLabelValues(string(e.Status)).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument records request durations labelled by chi route pattern, so path
// parameters do not explode label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.
			WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
