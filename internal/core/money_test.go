package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"$12.34", 1234, true},
		{"12,34", 1234, true},
		{"1,234.56", 123456, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"10", 1000, true},
		{"-3.50", -350, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"", 0, false},
		{"  ", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for i, tc := range cases {
		got, ok := ParseAmountToCents(tc.in)
		if ok != tc.ok {
			t.Fatalf("case %d (%q): ok = %v, want %v", i, tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("case %d (%q): got %d cents, want %d", i, tc.in, got, tc.want)
		}
	}
}

func TestMoneyDollars(t *testing.T) {
	if d := (Money{Cents: 1050}).Dollars(); d != 10.50 {
		t.Fatalf("got %v, want 10.50", d)
	}
	if s := (Money{Cents: -350}).String(); s != "-$3.50" {
		t.Fatalf("got %q", s)
	}
}
