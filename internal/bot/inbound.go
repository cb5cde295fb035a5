package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"
	"github.com/m3rciful/orderbot/internal/order"
)

// inbox hands engine events to a dispatcher keyed by session id. The bot
// delivers updates in arrival order on one goroutine, so events of one user
// run in that order while other users proceed on other shards.
// A nil dispatcher handles events inline.
type inbox struct {
	engine *order.Engine
	disp   *tgsender.Dispatcher
}

func newInboundDispatcher() *tgsender.Dispatcher {
	return tgsender.NewDispatcher(tgsender.Options{
		Workers:        8,
		QueueSize:      64,
		EnqueueTimeout: 5 * time.Second,
		Component:      "order.inbound",
	})
}

func (in *inbox) submit(ctx context.Context, ev order.Event) error {
	if in.disp == nil {
		return in.engine.Handle(ctx, ev)
	}
	err := in.disp.Enqueue(ctx, ev.SessionID, "event."+ev.Kind.String(), "", func() error {
		return in.engine.Handle(ctx, ev)
	})
	if err != nil {
		logger.Warn(ctx, "order.inbound", "event.drop",
			slog.String("status", "fail"),
			slog.String("kind", ev.Kind.String()),
			slog.String("cause", err.Error()),
		)
	}
	return err
}
