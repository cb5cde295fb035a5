package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"💰 Buy - خرید دارم", "💵 Sell - فروش دارم"}, nil, []string{"🔄 ثبت مجدد درخواست"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.True(t, m.ResizeKeyboard)
	assert.Equal(t, "💰 Buy - خرید دارم", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "💵 Sell - فروش دارم", m.ReplyKeyboard[0][1].Text)
	assert.Equal(t, "🔄 ثبت مجدد درخواست", m.ReplyKeyboard[1][0].Text)
}

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons([]InlineBtn{
		{Text: "💠 USDT - تتر", Unique: "select", Data: "USDT"},
		{Text: "🇹🇷 TRY - لیر", Unique: "select", Data: "TRY"},
	})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "💠 USDT - تتر", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "select", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "TRY", m.InlineKeyboard[1][0].Data)
}
