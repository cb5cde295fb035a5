package order

import (
	"errors"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1000", 1000},
		{"1,000", 1000},
		{" 50,000 ", 50000},
		{"1٬234٬567", 1234567},
		{"۱۲۳", 123},
		{"٤٥", 45},
		{"9223372036854775807", 9223372036854775807},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.in)
		if err != nil {
			t.Fatalf("ParseQuantity(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseQuantityRejects(t *testing.T) {
	for _, in := range []string{"", "  ", ",", "12a3", "-5", "1.5", "1 000", "9223372036854775808", "١٢x"} {
		if _, err := ParseQuantity(in); !errors.Is(err, ErrNotNumeric) {
			t.Fatalf("ParseQuantity(%q) error = %v, want ErrNotNumeric", in, err)
		}
	}
}

func TestGroupDigits(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		50000:      "50,000",
		123456:     "123,456",
		1234567:    "1,234,567",
		-1234567:   "-1,234,567",
		1000000000: "1,000,000,000",
	}
	for in, want := range cases {
		if got := GroupDigits(in); got != want {
			t.Fatalf("GroupDigits(%d) = %q, want %q", in, got, want)
		}
	}
}
