package order

import "context"

// SendOptions controls how an outbound text is rendered.
type SendOptions struct {
	// Keyboard requests a reply keyboard made of rows of labels.
	Keyboard [][]string
	// EditMessageID replaces the text of an earlier message instead of sending a new one.
	EditMessageID int
}

// Choice is one button of a discrete choice control.
type Choice struct {
	Label string
	Value string
}

// Outbound delivers prompts to a chat. Delivery is one-way: errors are
// reported for diagnostics only.
type Outbound interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
	SendChoice(ctx context.Context, chatID int64, prompt string, choices []Choice) error
}

// Broadcaster sends a rendered order to the broadcast destination.
type Broadcaster interface {
	Broadcast(ctx context.Context, destination, text string) error
}

// Journal records published orders.
type Journal interface {
	Record(ctx context.Context, o Order) error
}
