package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID, Username: "trader"},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	}
}

func callbackUpdate(id int, userID int64, data string) tele.Update {
	return tele.Update{
		ID: id,
		Callback: &tele.Callback{
			Sender:  &tele.User{ID: userID},
			Message: &tele.Message{Chat: &tele.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "message", UpdateKind(textUpdate(1, 1, "x")))
	assert.Equal(t, "callback", UpdateKind(callbackUpdate(1, 1, "\fselect|USDT")))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestRateLimitMiddleware(t *testing.T) {
	b := offlineBot(t)
	var limited, passed int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 10, "a"))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 10, "b"))))
	require.NoError(t, h(b.NewContext(textUpdate(3, 11, "c"))))
	require.NoError(t, h(b.NewContext(callbackUpdate(4, 10, "\fselect|EUR"))))

	assert.Equal(t, 3, passed)
	assert.Equal(t, 1, limited)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := offlineBot(t)
	var rejected, served int
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  99,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	h := mw(func(tele.Context) error { served++; return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 99, "/stats"))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 5, "/stats"))))
	assert.Equal(t, 1, served)
	assert.Equal(t, 1, rejected)

	assert.False(t, AdminOptions{}.IsAdmin(b.NewContext(textUpdate(3, 0, "x"))))
}

func TestRecoverMiddleware(t *testing.T) {
	b := offlineBot(t)
	before := testutil.ToFloat64(panicsTotal)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NoError(t, h(b.NewContext(textUpdate(1, 1, "x"))))
	assert.Equal(t, before+1, testutil.ToFloat64(panicsTotal))

	sentinel := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return sentinel })
	assert.ErrorIs(t, h(b.NewContext(textUpdate(2, 1, "x"))), sentinel)
}

func TestLoggerAndMetricsMiddlewareShareContext(t *testing.T) {
	b := offlineBot(t)
	before := testutil.ToFloat64(updatesTotal.WithLabelValues("message"))

	chain := LoggerMiddleware(MessageMetricsMiddleware(func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		assert.Equal(t, logger.BuildRID(7, 42, 42), logger.RIDFrom(ctx))
		assert.Equal(t, int64(42), logger.UserIDFrom(ctx))
		NoteSent(ctx, false)
		NoteSent(ctx, true)
		return nil
	}))

	c := b.NewContext(textUpdate(7, 42, "سلام"))
	require.NoError(t, chain(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Equal(t, before+1, testutil.ToFloat64(updatesTotal.WithLabelValues("message")))
}

func TestCountersNilSafe(t *testing.T) {
	var c *Counters
	c.Note(true)
	n, kb := c.Snapshot()
	assert.Zero(t, n)
	assert.False(t, kb)
	NoteSent(context.Background(), true)
}
