package vnpay

import (
	"strings"
	"testing"
)

func TestParamsEncode_Deterministic(t *testing.T) {
	pairs := [][2]string{
		{"vnp_Version", "2.1.0"},
		{"vnp_TmnCode", "DEMO01"},
		{"vnp_Amount", "15000000"},
		{"vnp_OrderInfo", "Booking #42"},
		{"vnp_TxnRef", "ref-1"},
	}

	// Insert the same pairs in several orders; the encoding must not care.
	orders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{3, 4, 0, 2, 1},
	}

	var want string
	for i, order := range orders {
		p := Params{}
		for _, idx := range order {
			p[pairs[idx][0]] = pairs[idx][1]
		}
		got := p.Encode()
		if i == 0 {
			want = got
			continue
		}
		if got != want {
			t.Fatalf("encoding depends on insertion order:\n  %q\nvs\n  %q", got, want)
		}
	}
}

func TestParamsEncode_SortedAndEscaped(t *testing.T) {
	p := Params{
		"b":             "two words",
		"a":             "1",
		"vnp_OrderInfo": "Booking #42",
	}

	got := p.Encode()
	want := "a=1&b=two+words&vnp_OrderInfo=Booking+%2342"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestParamsEncode_ExcludesEmptyValues(t *testing.T) {
	p := Params{
		"vnp_TxnRef":   "ref-1",
		"vnp_BankCode": "",
		"vnp_Locale":   "vn",
	}

	got := p.Encode()
	if strings.Contains(got, "vnp_BankCode") {
		t.Errorf("empty-valued parameter leaked into encoding: %q", got)
	}
	if got != "vnp_Locale=vn&vnp_TxnRef=ref-1" {
		t.Errorf("Encode() = %q", got)
	}
}

func TestParamsEncode_Empty(t *testing.T) {
	if got := (Params{}).Encode(); got != "" {
		t.Errorf("Encode() on empty set = %q, want empty", got)
	}
}
