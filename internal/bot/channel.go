package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// chatRecipient addresses a chat by numeric id or @handle as given.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

type sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// ChannelBroadcaster publishes rendered orders with a single synchronous send.
type ChannelBroadcaster struct {
	bot sender
}

// NewChannelBroadcaster wraps b.
func NewChannelBroadcaster(b sender) *ChannelBroadcaster {
	return &ChannelBroadcaster{bot: b}
}

// Broadcast sends text to destination.
func (c *ChannelBroadcaster) Broadcast(_ context.Context, destination, text string) error {
	_, err := c.bot.Send(chatRecipient(destination), text)
	return err
}
