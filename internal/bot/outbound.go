package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/core/telegram/middleware"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"
	"github.com/m3rciful/orderbot/internal/order"

	tele "gopkg.in/telebot.v4"
)

type messenger interface {
	sender
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
}

// Outbound delivers engine prompts through the sender dispatcher so prompts
// to one chat keep their order. A full queue is waited on up to the
// dispatcher's enqueue timeout and the prompt is dropped after that. Once
// the dispatcher is closed, prompts are sent inline after the queue drained.
type Outbound struct {
	bot  messenger
	disp *tgsender.Dispatcher
}

var _ order.Outbound = (*Outbound)(nil)

// NewOutbound builds an Outbound. A nil dispatcher sends synchronously.
func NewOutbound(b messenger, d *tgsender.Dispatcher) *Outbound {
	return &Outbound{bot: b, disp: d}
}

// SendText sends or edits a plain text message.
func (o *Outbound) SendText(ctx context.Context, chatID int64, text string, opts order.SendOptions) error {
	if opts.EditMessageID != 0 {
		msg := tele.StoredMessage{MessageID: strconv.Itoa(opts.EditMessageID), ChatID: chatID}
		return o.enqueue(ctx, chatID, "edit_text", "editMessageText", false, func() error {
			_, err := o.bot.Edit(msg, text)
			return err
		})
	}

	var sendOpts []any
	if len(opts.Keyboard) > 0 {
		sendOpts = append(sendOpts, keyboard.ReplyButtons(opts.Keyboard...))
	}
	return o.enqueue(ctx, chatID, "send_text", "sendMessage", len(sendOpts) > 0, func() error {
		_, err := o.bot.Send(tele.ChatID(chatID), text, sendOpts...)
		return err
	})
}

// SendChoice sends prompt with one inline button per choice.
func (o *Outbound) SendChoice(ctx context.Context, chatID int64, prompt string, choices []order.Choice) error {
	buttons := make([]keyboard.InlineBtn, 0, len(choices))
	for _, ch := range choices {
		buttons = append(buttons, keyboard.InlineBtn{Text: ch.Label, Unique: order.SelectCallback, Data: ch.Value})
	}
	markup := keyboard.InlineButtons(buttons)
	return o.enqueue(ctx, chatID, "send_choice", "sendMessage", true, func() error {
		_, err := o.bot.Send(tele.ChatID(chatID), prompt, markup)
		return err
	})
}

func (o *Outbound) enqueue(ctx context.Context, chatID int64, action, endpoint string, hasKeyboard bool, run func() error) error {
	middleware.NoteSent(ctx, hasKeyboard)
	if o.disp == nil {
		return run()
	}
	err := o.disp.Enqueue(ctx, chatID, action, endpoint, run)
	if !errors.Is(err, tgsender.ErrQueueClosed) {
		return err
	}
	select {
	case <-o.disp.Drained():
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.Debug(ctx, "tg.sender", "queue.closed_inline",
		slog.String("action", action),
		slog.Int64("chat_id", chatID),
	)
	return run()
}
