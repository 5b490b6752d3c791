package utils

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"rider@example.com", "r***@example.com"},
		{"a@b.co", "a***@b.co"},
		{"@example.com", "***"},
		{"not-an-email", "***"},
		{"", "***"},
	}

	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
