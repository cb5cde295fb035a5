package middleware

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/orderbot/core/metrics"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

var (
	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "tg",
		Name:      "updates_total",
		Help:      "Updates received, by kind.",
	}, []string{"kind"})
	updateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "tg",
		Name:      "update_duration_seconds",
		Help:      "Time spent handling one update, by kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "tg",
		Name:      "messages_sent_total",
		Help:      "Replies recorded by handlers.",
	})
	rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "tg",
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the rate limiter, by kind.",
	}, []string{"kind"})
	panicsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "tg",
		Name:      "panics_total",
		Help:      "Handler panics recovered.",
	})
)

func init() {
	metrics.MustRegister(updatesTotal, updateDuration, messagesSent, rateLimitedTotal, panicsTotal)
}

// Counters tracks replies produced while handling one update.
type Counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// Note records one reply and whether it carried a keyboard.
func (c *Counters) Note(hasKeyboard bool) {
	if c == nil {
		return
	}
	c.messages.Add(1)
	if hasKeyboard {
		c.keyboard.Store(true)
	}
	messagesSent.Inc()
}

// Snapshot returns the reply count and keyboard flag.
func (c *Counters) Snapshot() (int, bool) {
	if c == nil {
		return 0, false
	}
	return int(c.messages.Load()), c.keyboard.Load()
}

type countersKey struct{}

const countersSlot = "counters"

// CountersFrom returns the counters attached to ctx, or nil.
func CountersFrom(ctx context.Context) *Counters {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(countersKey{}).(*Counters)
	return c
}

// NoteSent records a reply on the counters carried by ctx.
func NoteSent(ctx context.Context, hasKeyboard bool) {
	CountersFrom(ctx).Note(hasKeyboard)
}

// MessageMetricsMiddleware attaches reply counters to the update and observes
// update totals and latency.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		kind := UpdateKind(c.Update())
		updatesTotal.WithLabelValues(kind).Inc()

		counters := &Counters{}
		c.Set(countersSlot, counters)
		ctx := context.WithValue(tghelpers.BuildContext(c), countersKey{}, counters)
		tghelpers.StoreContext(c, ctx)

		start := time.Now()
		err := next(c)
		updateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		return err
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	counters, _ := c.Get(countersSlot).(*Counters)
	return counters.Snapshot()
}
