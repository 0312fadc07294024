package domain

import "testing"

func TestParseCardValue(t *testing.T) {
	tests := []struct {
		label string
		want  *float64
	}{
		{label: "5", want: ptr(5)},
		{label: " 13 ", want: ptr(13)},
		{label: "0.5", want: ptr(0.5)},
		{label: "½", want: ptr(0.5)},
		{label: "?", want: nil},
		{label: "☕", want: nil},
		{label: "", want: nil},
		{label: "XL", want: nil},
		{label: "NaN", want: nil},
		{label: "Inf", want: nil},
	}
	for _, tt := range tests {
		got := ParseCardValue(tt.label)
		switch {
		case tt.want == nil && got != nil:
			t.Fatalf("%q: expected nil, got %v", tt.label, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Fatalf("%q: expected %v, got %v", tt.label, *tt.want, got)
		}
	}
}

func ptr(v float64) *float64 {
	return &v
}
