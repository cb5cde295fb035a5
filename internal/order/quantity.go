package order

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when an amount or price is not made of digits only.
var ErrNotNumeric = errors.New("order: value must contain digits only")

var separators = strings.NewReplacer(",", "", "٬", "", "،", "")

// ParseQuantity strips thousands separators and surrounding whitespace and
// parses the rest as a non-negative integer. ASCII, Arabic-Indic and Extended
// Arabic-Indic digits are accepted.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(separators.Replace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrNotNumeric)
	}
	var n int64
	for _, r := range s {
		d, ok := digitValue(r)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, r)
		}
		if n > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("%w: overflow", ErrNotNumeric)
		}
		n = n*10 + d
	}
	return n, nil
}

func digitValue(r rune) (int64, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int64(r - '0'), true
	case r >= '٠' && r <= '٩':
		return int64(r - '٠'), true
	case r >= '۰' && r <= '۹':
		return int64(r - '۰'), true
	}
	return 0, false
}

// GroupDigits renders n with comma thousands separators, e.g. 1,000.
func GroupDigits(n int64) string {
	raw := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
	}
	if len(raw) <= 3 {
		return sign + raw
	}
	var b strings.Builder
	b.WriteString(sign)
	head := len(raw) % 3
	if head > 0 {
		b.WriteString(raw[:head])
	}
	for i := head; i < len(raw); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(raw[i : i+3])
	}
	return b.String()
}
