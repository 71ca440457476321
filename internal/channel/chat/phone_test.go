package chat

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, cc, want string
	}{
		{"0771234567", "94", "+94771234567"},
		{"077 123 4567", "94", "+94771234567"},
		{"(077) 123-4567", "+94", "+94771234567"},
		{"+94771234567", "94", "+94771234567"},
		{"+44 20 7946 0958", "94", "+442079460958"},
		{"94771234567", "94", "+94771234567"},
		{"0094771234567", "94", "+94771234567"},
		{"0771234567", "", "+94771234567"},
		{"0612345678", "33", "+33612345678"},
		{"whatsapp:+94771234567", "94", "+94771234567"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePhone(tc.in, tc.cc)
			if err != nil {
				t.Fatalf("NormalizePhone(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tc.in, tc.cc, got, tc.want)
			}
		})
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "+", " - "} {
		if _, err := NormalizePhone(in, "94"); !errors.Is(err, ErrInvalidPhone) {
			t.Errorf("NormalizePhone(%q) err = %v, want ErrInvalidPhone", in, err)
		}
	}
}
