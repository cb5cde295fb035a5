package order

import (
	"fmt"
	"strings"
)

// CurrencyOption is one entry of the fixed currency set.
type CurrencyOption struct {
	Code  string
	Name  string
	Label string
}

// Catalog is the fixed prompt set of one language.
type Catalog struct {
	Language string

	Welcome         string
	ChooseDirection string
	ChooseCurrency  string
	CurrencyChosen  string // code, name
	ChooseTransfer  string
	EnterAmount     string
	EnterPrice      string
	NumbersOnly     string
	Submitted       string
	PublishOK       string
	PublishFailed   string
	RestartHint     string
	StartCommand    string

	BuyLabel     string
	SellLabel    string
	RestartLabel string
	SendLabel    string
	CashLabel    string
	BankLabel    string

	// BuyMarkers classify a direction text as buy when any of them occurs, case-insensitively.
	BuyMarkers []string

	Currencies []CurrencyOption

	SummaryTitle string // time
	AmountLine   string // amount, code, name
	PriceLine    string // price
	IDLine       string // user id

	BroadcastTitle  string // time
	BuyerRole       string
	SellerRole      string
	BroadcastPrice  string // price
	DepositToSeller string
	DepositToBuyer  string
}

// USDT is the currency that needs no transfer method.
const USDT = "USDT"

// Languages supported by CatalogFor.
const (
	LangPersian = "fa"
	LangEnglish = "en"
)

var persian = Catalog{
	Language: LangPersian,

	Welcome:         "به بازار صرافی سیمرغ خوش آمدید",
	ChooseDirection: "خرید یا فروش لطفاً انتخاب کنید:",
	ChooseCurrency:  "ارز را انتخاب کنید:",
	CurrencyChosen:  "ارز انتخاب شده: %s (%s)",
	ChooseTransfer:  "حسابی یا نقدی را انتخاب کنید:",
	EnterAmount:     "مقدار یا تعداد را نوشته و ارسال کنید:",
	EnterPrice:      "قیمت به تومان نوشته و ارسال کنید:",
	NumbersOnly:     "فقط عدد بنویسید. ممنون",
	Submitted:       "ثبت شد. برای ارسال به کانال کلیک کنید",
	PublishOK:       "✅ سفارش شما به کانال ارسال شد",
	PublishFailed:   "❌ خطا در ارسال به کانال. لطفاً مجدد تلاش کنید",
	RestartHint:     "برای شروع مجدد /start",
	StartCommand:    "ثبت سفارش جدید",

	BuyLabel:     "💰 Buy - خرید دارم",
	SellLabel:    "💵 Sell - فروش دارم",
	RestartLabel: "🔄 ثبت مجدد درخواست",
	SendLabel:    "📤 ارسال به کانال",
	CashLabel:    "نقدی",
	BankLabel:    "حسابی",

	BuyMarkers: []string{"خرید دارم", "buy"},

	Currencies: []CurrencyOption{
		{Code: "USDT", Name: "تتر", Label: "💠 USDT - تتر"},
		{Code: "TRY", Name: "لیر", Label: "🇹🇷 TRY - لیر"},
		{Code: "USD", Name: "دلار", Label: "🇺🇸 USD - دلار"},
		{Code: "EUR", Name: "یورو", Label: "🇪🇺 EUR - یورو"},
		{Code: "GBP", Name: "پوند", Label: "🇬🇧 GBP - پوند"},
	},

	SummaryTitle: "سفارش مشتری (%s)",
	AmountLine:   "مقدار: %s %s (%s)",
	PriceLine:    "قیمت: %s تومان",
	IDLine:       "ID: %d",

	BroadcastTitle:  "سفارش جدید مشتری (%s)",
	BuyerRole:       "خریدار",
	SellerRole:      "فروشنده",
	BroadcastPrice:  "با قیمت %s تومان",
	DepositToSeller: "واریز به حساب فروشنده",
	DepositToBuyer:  "واریز به حساب خریدار",
}

var english = Catalog{
	Language: LangEnglish,

	Welcome:         "Welcome to the Simorgh exchange market",
	ChooseDirection: "Please choose buy or sell:",
	ChooseCurrency:  "Choose a currency:",
	CurrencyChosen:  "Selected currency: %s (%s)",
	ChooseTransfer:  "Choose bank account or cash:",
	EnterAmount:     "Type the amount and send it:",
	EnterPrice:      "Type the price in toman and send it:",
	NumbersOnly:     "Numbers only, please. Thank you",
	Submitted:       "Submitted. Tap to send it to the channel",
	PublishOK:       "✅ Your order was sent to the channel",
	PublishFailed:   "❌ Sending to the channel failed. Please try again",
	RestartHint:     "To start again press /start",
	StartCommand:    "Place a new order",

	BuyLabel:     "💰 Buy",
	SellLabel:    "💵 Sell",
	RestartLabel: "🔄 New request",
	SendLabel:    "📤 Send to channel",
	CashLabel:    "Cash",
	BankLabel:    "Bank account",

	BuyMarkers: []string{"buy"},

	Currencies: []CurrencyOption{
		{Code: "USDT", Name: "Tether", Label: "💠 USDT - Tether"},
		{Code: "TRY", Name: "Lira", Label: "🇹🇷 TRY - Lira"},
		{Code: "USD", Name: "Dollar", Label: "🇺🇸 USD - Dollar"},
		{Code: "EUR", Name: "Euro", Label: "🇪🇺 EUR - Euro"},
		{Code: "GBP", Name: "Pound", Label: "🇬🇧 GBP - Pound"},
	},

	SummaryTitle: "Customer order (%s)",
	AmountLine:   "Amount: %s %s (%s)",
	PriceLine:    "Price: %s toman",
	IDLine:       "ID: %d",

	BroadcastTitle:  "New customer order (%s)",
	BuyerRole:       "buyer",
	SellerRole:      "seller",
	BroadcastPrice:  "at %s toman",
	DepositToSeller: "deposit to seller's account",
	DepositToBuyer:  "deposit to buyer's account",
}

// CatalogFor returns the prompt set for lang. An empty lang selects Persian.
func CatalogFor(lang string) (Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", LangPersian:
		return persian, nil
	case LangEnglish:
		return english, nil
	default:
		return Catalog{}, fmt.Errorf("order: unsupported language %q; allowed: fa, en", lang)
	}
}

// Currency looks up a currency of the fixed set by code.
func (c Catalog) Currency(code string) (CurrencyOption, bool) {
	for _, cur := range c.Currencies {
		if cur.Code == code {
			return cur, true
		}
	}
	return CurrencyOption{}, false
}

// CurrencyName returns the display name for code, or code itself when unknown.
func (c Catalog) CurrencyName(code string) string {
	if cur, ok := c.Currency(code); ok {
		return cur.Name
	}
	return code
}

// IsBuy reports whether a direction text means buy.
func (c Catalog) IsBuy(direction string) bool {
	lower := strings.ToLower(direction)
	for _, marker := range c.BuyMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// StartKeyboard is offered with the direction prompt and after a successful publish.
func (c Catalog) StartKeyboard() [][]string {
	return [][]string{{c.BuyLabel, c.SellLabel}, {c.RestartLabel}}
}

// TransferKeyboard is offered with the transfer method prompt.
func (c Catalog) TransferKeyboard() [][]string {
	return [][]string{{c.CashLabel, c.BankLabel}, {c.RestartLabel}}
}

// SubmitKeyboard is offered once an order is complete and not yet published.
func (c Catalog) SubmitKeyboard() [][]string {
	return [][]string{{c.SendLabel}, {c.RestartLabel}}
}

// CurrencyChoices lists the currency buttons in display order.
func (c Catalog) CurrencyChoices() []Choice {
	choices := make([]Choice, 0, len(c.Currencies))
	for _, cur := range c.Currencies {
		choices = append(choices, Choice{Label: cur.Label, Value: cur.Code})
	}
	return choices
}
