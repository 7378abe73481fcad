package sanitizer

import (
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"us number with punctuation", "(212) 555-0123", "+12125550123"},
		{"already e164", "+12125550123", "+12125550123"},
		{"uk number", "+44 20 7946 0958", "+442079460958"},
		{"garbage", "not-a-phone", ""},
		{"too short", "123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
