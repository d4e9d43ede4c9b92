package repository_test

import (
	"regexp"
	"testing"

	"billing-backend/internal/repository"

	"github.com/google/uuid"
)

func TestProductCodePrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"three words", "Classic Blue Shirt", "CBS"},
		{"more than three words", "Extra Large Cotton Bath Towel", "ELC"},
		{"two words pads from first", "Steel Bottle", "SBT"},
		{"one word", "Notebook", "NOT"},
		{"short single word pads with X", "Ox", "OXX"},
		{"punctuation stripped", "T-Shirt (Blue)", "TBS"},
		{"empty name", "", "XXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.ProductCodePrefix(tt.in); got != tt.want {
				t.Errorf("ProductCodePrefix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShortCustomerCode(t *testing.T) {
	id := uuid.MustParse("a4b1c9d0-1234-4f00-8abc-0123456789ab")

	code := repository.ShortCustomerCode(id)
	if !regexp.MustCompile(`^[0-9A-F]{4}$`).MatchString(code) {
		t.Fatalf("code %q is not 4 uppercase hex chars", code)
	}

	// Stable for the same id, distinct for a different one.
	if again := repository.ShortCustomerCode(id); again != code {
		t.Errorf("code not stable: %q vs %q", code, again)
	}
	if other := repository.ShortCustomerCode(uuid.New()); other == code {
		t.Logf("collision between different ids is possible but unexpected: %q", other)
	}
}
