package registration

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+989123456789", "09123456789"},
		{"989123456789", "09123456789"},
		{"00989123456789", "09123456789"},
		{"09123456789", "09123456789"},
		{"+98 912 345 6789", "09123456789"},
		{"98-912-345-6789", "09123456789"},
		{"(0098) 912 345 6789", "09123456789"},
		{"9123456789", "09123456789"},
		{" 0912 345 6789 ", "09123456789"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
