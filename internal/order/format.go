package order

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeLayout renders the submission time as HHMMSS.
const TimeLayout = "150405"

// FormatSummary renders the confirmation shown to the submitting user.
// The transfer method line is present only for currencies other than USDT.
func FormatSummary(cat Catalog, o Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, cat.SummaryTitle+"\n", o.SubmittedAt.Format(TimeLayout))
	b.WriteString(o.Direction + "\n")
	fmt.Fprintf(&b, cat.AmountLine+"\n", GroupDigits(o.Amount), o.Currency, cat.CurrencyName(o.Currency))
	fmt.Fprintf(&b, cat.PriceLine+"\n", GroupDigits(o.Price))
	if NeedsTransferMethod(o.Currency) {
		b.WriteString(o.TransferMethod + "\n")
	}
	fmt.Fprintf(&b, cat.IDLine, o.UserID)
	return b.String()
}

// FormatBroadcast renders the channel message for o.
func FormatBroadcast(cat Catalog, o Order) string {
	role, deposit := cat.SellerRole, cat.DepositToBuyer
	if cat.IsBuy(o.Direction) {
		role, deposit = cat.BuyerRole, cat.DepositToSeller
	}

	var b strings.Builder
	b.WriteString("💰 ")
	fmt.Fprintf(&b, cat.BroadcastTitle, o.SubmittedAt.Format(TimeLayout))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "💱%s : %s %s %s\n", role, GroupDigits(o.Amount), cat.CurrencyName(o.Currency), o.Currency)
	b.WriteString("💵 ")
	fmt.Fprintf(&b, cat.BroadcastPrice, GroupDigits(o.Price))
	b.WriteString("\n")
	if NeedsTransferMethod(o.Currency) {
		b.WriteString("🏦 " + deposit + "\n")
	}
	b.WriteString("👤 ID : " + Mention(o))
	return b.String()
}

// Mention returns @username when known, otherwise the numeric user id.
func Mention(o Order) string {
	if name := strings.TrimPrefix(strings.TrimSpace(o.Username), "@"); name != "" {
		return "@" + name
	}
	return strconv.FormatInt(o.UserID, 10)
}
