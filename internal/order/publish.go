package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/sender"
)

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	Destination string
	Broadcaster Broadcaster
	Catalog     Catalog
	// Journal is optional; it receives every successfully published order.
	Journal Journal
	Metrics *Metrics
}

// Publisher sends completed orders to the broadcast destination once per call
// and never retries a failed broadcast itself. The Telegram HTTP client below
// it does repeat a request on dial, connection reset and timeout errors (see
// retryTransport in core/telegram/httpclient.go), so one Publish may reach the
// Bot API more than once when the first request timed out.
type Publisher struct {
	dest    string
	out     Broadcaster
	cat     Catalog
	journal Journal
	metrics *Metrics

	published atomic.Uint64
	failed    atomic.Uint64
}

// PublishStats counts publish outcomes since process start.
type PublishStats struct {
	Published uint64
	Failed    uint64
}

// NewPublisher validates opts and builds a Publisher.
func NewPublisher(opts PublisherOptions) (*Publisher, error) {
	if opts.Broadcaster == nil {
		return nil, errors.New("order: publisher needs a broadcaster")
	}
	if opts.Destination == "" {
		return nil, errors.New("order: publisher needs a destination")
	}
	return &Publisher{
		dest:    opts.Destination,
		out:     opts.Broadcaster,
		cat:     opts.Catalog,
		journal: opts.Journal,
		metrics: opts.Metrics,
	}, nil
}

// Publish renders o and sends it. It never panics or returns an error:
// every failure is logged and reported as false.
func (p *Publisher) Publish(ctx context.Context, o Order) (ok bool) {
	start := time.Now()
	err := p.broadcast(ctx, FormatBroadcast(p.cat, o))
	ok = err == nil

	attrs := []slog.Attr{
		slog.String("order_id", o.ID),
		slog.String("currency", o.Currency),
		slog.Duration("duration", logger.Took(start)),
	}
	if ok {
		p.published.Add(1)
		logger.Info(ctx, "order.publish", "order.publish", append(attrs, slog.String("status", "ok"))...)
	} else {
		p.failed.Add(1)
		logger.Error(ctx, "order.publish", "order.publish", append(attrs,
			slog.String("status", "fail"),
			slog.String("err", sender.SanitizeError(err)),
			slog.String("err_kind", sender.ClassifyError(err)),
		)...)
	}
	p.metrics.published(ok)

	if ok && p.journal != nil {
		if jerr := p.journal.Record(ctx, o); jerr != nil {
			logger.Warn(ctx, "journal", "journal.record",
				slog.String("status", "fail"),
				slog.String("order_id", o.ID),
				slog.String("err", jerr.Error()),
			)
		}
	}
	return ok
}

func (p *Publisher) broadcast(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("order: broadcast panic: %v", r)
		}
	}()
	return p.out.Broadcast(ctx, p.dest, text)
}

// Stats returns the publish counters.
func (p *Publisher) Stats() PublishStats {
	return PublishStats{Published: p.published.Load(), Failed: p.failed.Load()}
}
