package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start a new order"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Bot statistics", AdminOnly: true, Hidden: true})
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})

	require.Len(t, reg.Commands(), 2)
	assert.Equal(t, []tele.Command{{Text: "/start", Description: "Start a new order"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 2)

	key, _, ok := reg.LookupCommand("start")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("start now")
	assert.False(t, ok)
	_, _, ok = reg.LookupCommand("")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("select", noop))
	assert.Error(t, reg.RegisterCallback("select", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("select")
	assert.True(t, ok)
	assert.Equal(t, []string{"select"}, reg.ListCallbacks())
}

func TestDefaultMiddlewares(t *testing.T) {
	cfg := &coreconfig.Config{}
	names := func(mws []Middleware) []string {
		out := make([]string, 0, len(mws))
		for _, mw := range mws {
			out = append(out, mw.Name)
		}
		return out
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil)))

	cfg.RateLimit.IntervalMS = 500
	assert.Equal(t, []string{"recover", "logger", "metrics", "rate_limit"}, names(DefaultMiddlewares(cfg, nil)))
}
