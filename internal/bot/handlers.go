package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/middleware"
	"github.com/m3rciful/orderbot/internal/journal"
	"github.com/m3rciful/orderbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

// handlers maps Telegram updates onto engine events.
type handlers struct {
	inbox     *inbox
	engine    *order.Engine
	publisher *order.Publisher
	journal   *journal.Repository
}

func eventFrom(c tele.Context, kind order.EventKind) order.Event {
	ev := order.Event{Kind: kind}
	if u := c.Sender(); u != nil {
		ev.SessionID = u.ID
		ev.User = order.User{ID: u.ID, Username: u.Username}
	}
	ev.ChatID = ev.SessionID
	if ch := c.Chat(); ch != nil {
		ev.ChatID = ch.ID
	}
	return ev
}

func (h *handlers) start(c tele.Context) error {
	return h.inbox.submit(tghelpers.BuildContext(c), eventFrom(c, order.EventBegin))
}

// InProgress reports whether the sender has a stored session.
func (h *handlers) InProgress(c tele.Context) bool {
	u := c.Sender()
	if u == nil {
		return false
	}
	_, ok, err := h.engine.Session(tghelpers.BuildContext(c), u.ID)
	return err == nil && ok
}

// HandleText feeds a text message to the engine.
func (h *handlers) HandleText(c tele.Context) error {
	ev := eventFrom(c, order.EventText)
	ev.Text = c.Text()
	return h.inbox.submit(tghelpers.BuildContext(c), ev)
}

func (h *handlers) selectCurrency(c tele.Context) error {
	ev := eventFrom(c, order.EventSelection)
	ev.SelectionID = callbacks.CallbackPayload(c)
	if msg := c.Callback().Message; msg != nil {
		ev.MessageID = msg.ID
	}
	return h.inbox.submit(tghelpers.BuildContext(c), ev)
}

func (h *handlers) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	text, err := h.statsText(ctx)
	if err != nil {
		return err
	}
	middleware.NoteSent(ctx, false)
	return c.Send(text)
}

func (h *handlers) statsText(ctx context.Context) (string, error) {
	active, err := h.engine.Active(ctx)
	if err != nil {
		return "", fmt.Errorf("stats: count sessions: %w", err)
	}
	st := h.publisher.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions: %d\n", active)
	fmt.Fprintf(&b, "Published: %d\n", st.Published)
	fmt.Fprintf(&b, "Failed: %d", st.Failed)
	if h.journal != nil {
		total, err := h.journal.Count(ctx)
		if err != nil {
			logger.Warn(ctx, "journal", "journal.count",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			b.WriteString("\nJournal total: n/a")
		} else {
			fmt.Fprintf(&b, "\nJournal total: %d", total)
		}
	}
	return b.String(), nil
}
