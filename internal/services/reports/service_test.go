package reports_test

import (
	"testing"

	"billing-backend/internal/services/reports"

	"github.com/shopspring/decimal"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		previous string
		want     string
	}{
		{"growth", "150", "100", "50"},
		{"decline", "50", "100", "-50"},
		{"flat", "100", "100", "0"},
		{"from zero to something", "42", "0", "100"},
		{"zero to zero", "0", "0", "0"},
		{"down to zero", "0", "80", "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, _ := decimal.NewFromString(tt.current)
			previous, _ := decimal.NewFromString(tt.previous)
			want, _ := decimal.NewFromString(tt.want)

			got := reports.PercentChange(current, previous)
			if !got.Equal(want) {
				t.Errorf("PercentChange(%s, %s) = %s, want %s", tt.current, tt.previous, got, want)
			}
		})
	}
}
