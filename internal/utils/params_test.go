package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{" 42 ", 7, 42},
		{"x", 5, 5},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestLimitParam(t *testing.T) {
	cases := map[string]int{"": 0, "25": 25, "0": 0, "-3": 0, "ten": 0, "600": 600}
	for in, want := range cases {
		if got := LimitParam(in); got != want {
			t.Fatalf("LimitParam(%q) = %d; want %d", in, got, want)
		}
	}
}
