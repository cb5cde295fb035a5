package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"
	"github.com/m3rciful/orderbot/internal/order"
)

type call struct {
	method string
	to     string
	edit   tele.StoredMessage
	text   string
	markup *tele.ReplyMarkup
}

type fakeMessenger struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeMessenger) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	c := call{method: "send", to: to.Recipient(), text: what.(string)}
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			c.markup = m
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return &tele.Message{}, f.err
}

func (f *fakeMessenger) Edit(msg tele.Editable, what any, _ ...any) (*tele.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{method: "edit", edit: msg.(tele.StoredMessage), text: what.(string)})
	f.mu.Unlock()
	return &tele.Message{}, f.err
}

func TestOutboundSendTextWithKeyboard(t *testing.T) {
	m := &fakeMessenger{}
	out := NewOutbound(m, nil)

	err := out.SendText(context.Background(), 42, "hi", order.SendOptions{Keyboard: [][]string{{"a", "b"}, {"c"}}})
	require.NoError(t, err)
	require.Len(t, m.calls, 1)
	got := m.calls[0]
	assert.Equal(t, "42", got.to)
	assert.Equal(t, "hi", got.text)
	require.NotNil(t, got.markup)
	require.Len(t, got.markup.ReplyKeyboard, 2)
	assert.Equal(t, "b", got.markup.ReplyKeyboard[0][1].Text)
	assert.True(t, got.markup.ResizeKeyboard)
}

func TestOutboundEditsMessage(t *testing.T) {
	m := &fakeMessenger{}
	out := NewOutbound(m, nil)

	require.NoError(t, out.SendText(context.Background(), 42, "chosen", order.SendOptions{EditMessageID: 9}))
	require.Len(t, m.calls, 1)
	assert.Equal(t, "edit", m.calls[0].method)
	assert.Equal(t, tele.StoredMessage{MessageID: "9", ChatID: 42}, m.calls[0].edit)
}

func TestOutboundSendChoiceBuildsInlineButtons(t *testing.T) {
	m := &fakeMessenger{}
	out := NewOutbound(m, nil)

	choices := []order.Choice{{Label: "💠 USDT - تتر", Value: "USDT"}, {Label: "🇹🇷 TRY - لیر", Value: "TRY"}}
	require.NoError(t, out.SendChoice(context.Background(), 42, "pick", choices))
	require.Len(t, m.calls, 1)

	kb := m.calls[0].markup.InlineKeyboard
	require.Len(t, kb, 2)
	assert.Equal(t, "💠 USDT - تتر", kb[0][0].Text)
	assert.Equal(t, order.SelectCallback, kb[0][0].Unique)
	assert.Equal(t, "TRY", kb[1][0].Data)
}

func TestOutboundKeepsOrderThroughDispatcher(t *testing.T) {
	m := &fakeMessenger{}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 2})
	out := NewOutbound(m, d)

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, out.SendText(ctx, 7, text, order.SendOptions{}))
	}
	d.Close()

	var texts []string
	for _, c := range m.calls {
		texts = append(texts, c.text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
	assert.Equal(t, uint64(3), d.SentCount())
}

func TestOutboundSendsInlineAfterQueueDrained(t *testing.T) {
	m := &fakeMessenger{}
	d := tgsender.NewDispatcher(tgsender.Options{})
	d.Close()

	out := NewOutbound(m, d)
	require.NoError(t, out.SendText(context.Background(), 7, "late", order.SendOptions{}))
	assert.Len(t, m.calls, 1)
}

func TestOutboundWaitsInsteadOfOvertaking(t *testing.T) {
	m := &fakeMessenger{}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1, QueueSize: 1, EnqueueTimeout: time.Second})
	out := NewOutbound(m, d)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(ctx, 7, "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, out.SendText(ctx, 7, "queued", order.SendOptions{}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, out.SendText(ctx, 7, "next", order.SendOptions{}))
	d.Close()

	var texts []string
	for _, c := range m.calls {
		texts = append(texts, c.text)
	}
	assert.Equal(t, []string{"queued", "next"}, texts)
}

func TestOutboundDropsWhenQueueStaysFull(t *testing.T) {
	m := &fakeMessenger{}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 5 * time.Millisecond})
	out := NewOutbound(m, d)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(ctx, 7, "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, out.SendText(ctx, 7, "queued", order.SendOptions{}))
	assert.ErrorIs(t, out.SendText(ctx, 7, "dropped", order.SendOptions{}), tgsender.ErrQueueFull)

	close(release)
	d.Close()
	require.Len(t, m.calls, 1)
	assert.Equal(t, "queued", m.calls[0].text)
}

func TestChannelBroadcasterSendsToDestination(t *testing.T) {
	m := &fakeMessenger{}
	b := NewChannelBroadcaster(m)

	require.NoError(t, b.Broadcast(context.Background(), "@simorgh_orders", "order"))
	require.Len(t, m.calls, 1)
	assert.Equal(t, "@simorgh_orders", m.calls[0].to)

	m.err = errors.New("Forbidden")
	assert.Error(t, b.Broadcast(context.Background(), "-100", "order"))
}
