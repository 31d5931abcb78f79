package billing

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0712345678", "254712345678"},
		{"0712 345 678", "254712345678"},
		{"+254712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"712345678", "254712345678"},
		{"(0712) 345-678", "254712345678"},
		{"", ""},
		{"+", ""},
	}

	for _, tc := range cases {
		if got := NormalizePhone(tc.in, "254"); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone_OtherCountryCode(t *testing.T) {
	if got := NormalizePhone("0501234567", "256"); got != "256501234567" {
		t.Errorf("got %q", got)
	}
}
