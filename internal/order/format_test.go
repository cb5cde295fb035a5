package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder(currency, direction string) Order {
	return Order{
		ID:             "id-1",
		Direction:      direction,
		Currency:       currency,
		TransferMethod: "حسابی",
		Amount:         1000,
		Price:          50000,
		UserID:         42,
		Username:       "trader",
		SubmittedAt:    time.Date(2024, 5, 1, 9, 5, 7, 0, time.UTC),
	}
}

func TestFormatSummaryUSDT(t *testing.T) {
	cat, err := CatalogFor("fa")
	require.NoError(t, err)

	got := FormatSummary(cat, sampleOrder(USDT, "💰 Buy - خرید دارم"))
	want := "سفارش مشتری (090507)\n" +
		"💰 Buy - خرید دارم\n" +
		"مقدار: 1,000 USDT (تتر)\n" +
		"قیمت: 50,000 تومان\n" +
		"ID: 42"
	assert.Equal(t, want, got)
}

func TestFormatSummaryIncludesTransferForOtherCurrencies(t *testing.T) {
	cat, _ := CatalogFor("fa")
	got := FormatSummary(cat, sampleOrder("EUR", "💵 Sell - فروش دارم"))
	assert.Contains(t, got, "\nحسابی\n")
	assert.Contains(t, got, "مقدار: 1,000 EUR (یورو)")
}

func TestFormatBroadcast(t *testing.T) {
	cat, _ := CatalogFor("fa")
	got := FormatBroadcast(cat, sampleOrder("EUR", "💰 Buy - خرید دارم"))
	want := "💰 سفارش جدید مشتری (090507)\n\n" +
		"💱خریدار : 1,000 یورو EUR\n" +
		"💵 با قیمت 50,000 تومان\n" +
		"🏦 واریز به حساب فروشنده\n" +
		"👤 ID : @trader"
	assert.Equal(t, want, got)
}

func TestFormatBroadcastRoles(t *testing.T) {
	cat, _ := CatalogFor("en")

	buy := FormatBroadcast(cat, sampleOrder("EUR", "💰 Buy"))
	assert.Contains(t, buy, "buyer")
	assert.Contains(t, buy, "deposit to seller's account")

	sell := FormatBroadcast(cat, sampleOrder("GBP", "💵 Sell"))
	assert.Contains(t, sell, "seller")
	assert.Contains(t, sell, "deposit to buyer's account")

	usdt := FormatBroadcast(cat, sampleOrder(USDT, "buy"))
	assert.NotContains(t, usdt, "deposit to")
	assert.NotContains(t, usdt, "🏦")
}

func TestFormatBroadcastFallsBackToUserID(t *testing.T) {
	cat, _ := CatalogFor("fa")
	o := sampleOrder(USDT, "Sell")
	o.Username = ""
	got := FormatBroadcast(cat, o)
	assert.True(t, strings.HasSuffix(got, "👤 ID : 42"), got)
	assert.Contains(t, got, "فروشنده")
}

func TestIsBuyIsCaseInsensitive(t *testing.T) {
	fa, _ := CatalogFor("")
	assert.True(t, fa.IsBuy("BUY"))
	assert.True(t, fa.IsBuy("خرید دارم"))
	assert.False(t, fa.IsBuy("فروش دارم"))
}

func TestCatalogFor(t *testing.T) {
	cat, err := CatalogFor(" EN ")
	require.NoError(t, err)
	assert.Equal(t, LangEnglish, cat.Language)

	_, err = CatalogFor("de")
	assert.Error(t, err)

	for _, lang := range []string{LangPersian, LangEnglish} {
		cat, _ := CatalogFor(lang)
		require.Len(t, cat.Currencies, 5, lang)
		assert.Equal(t, USDT, cat.Currencies[0].Code, lang)
		assert.Equal(t, [][]string{{cat.SendLabel}, {cat.RestartLabel}}, cat.SubmitKeyboard(), lang)
	}
}
