package billing_test

import (
	"testing"

	"billing-backend/internal/models"
	"billing-backend/internal/services/billing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name       string
		lines      []billing.Line
		discount   string
		taxPercent string
		subtotal   string
		tax        string
		total      string
	}{
		{
			name: "single line with 10 percent tax",
			lines: []billing.Line{
				{Price: dec("17.50"), Quantity: 2},
			},
			discount:   "0",
			taxPercent: "10",
			subtotal:   "35.00",
			tax:        "3.50",
			total:      "38.50",
		},
		{
			name: "two lines with 10 percent tax",
			lines: []billing.Line{
				{Price: dec("10.00"), Quantity: 2},
				{Price: dec("5.00"), Quantity: 3},
			},
			discount:   "0",
			taxPercent: "10",
			subtotal:   "35.00",
			tax:        "3.50",
			total:      "38.50",
		},
		{
			name: "discount applied before tax",
			lines: []billing.Line{
				{Price: dec("100.00"), Quantity: 1},
			},
			discount:   "20.00",
			taxPercent: "18",
			subtotal:   "100.00",
			tax:        "14.40",
			total:      "94.40",
		},
		{
			name: "multiple lines no tax",
			lines: []billing.Line{
				{Price: dec("9.99"), Quantity: 3},
				{Price: dec("0.01"), Quantity: 3},
			},
			discount:   "0",
			taxPercent: "0",
			subtotal:   "30.00",
			tax:        "0.00",
			total:      "30.00",
		},
		{
			name:       "no lines",
			lines:      nil,
			discount:   "0",
			taxPercent: "18",
			subtotal:   "0.00",
			tax:        "0.00",
			total:      "0.00",
		},
		{
			name: "rounding at the boundary",
			lines: []billing.Line{
				{Price: dec("33.33"), Quantity: 1},
			},
			discount:   "0",
			taxPercent: "7.5",
			subtotal:   "33.33",
			tax:        "2.50", // 2.49975 rounds up
			total:      "35.83",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.CalculateTotals(tt.lines, dec(tt.discount), dec(tt.taxPercent))
			if got.Subtotal.StringFixed(2) != tt.subtotal {
				t.Errorf("subtotal = %s, want %s", got.Subtotal.StringFixed(2), tt.subtotal)
			}
			if got.Tax.StringFixed(2) != tt.tax {
				t.Errorf("tax = %s, want %s", got.Tax.StringFixed(2), tt.tax)
			}
			if got.Total.StringFixed(2) != tt.total {
				t.Errorf("total = %s, want %s", got.Total.StringFixed(2), tt.total)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		total string
		paid  string
		want  string
	}{
		{"nothing paid", "100.00", "0", models.InvoiceStatusPending},
		{"partially paid", "100.00", "40.00", models.InvoiceStatusPartiallyPaid},
		{"exactly paid", "100.00", "100.00", models.InvoiceStatusPaid},
		{"overpaid", "100.00", "120.00", models.InvoiceStatusPaid},
		{"zero total is settled", "0", "0", models.InvoiceStatusPaid},
		{"tiny remainder is partial", "100.00", "99.99", models.InvoiceStatusPartiallyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := billing.DeriveStatus(dec(tt.total), dec(tt.paid)); got != tt.want {
				t.Errorf("DeriveStatus(%s, %s) = %q, want %q", tt.total, tt.paid, got, tt.want)
			}
		})
	}
}

func TestStockDeltas(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	tests := []struct {
		name string
		old  map[uuid.UUID]int
		new  map[uuid.UUID]int
		want map[uuid.UUID]int
	}{
		{
			name: "quantity increased consumes stock",
			old:  map[uuid.UUID]int{a: 2},
			new:  map[uuid.UUID]int{a: 5},
			want: map[uuid.UUID]int{a: -3},
		},
		{
			name: "quantity decreased returns stock",
			old:  map[uuid.UUID]int{a: 5},
			new:  map[uuid.UUID]int{a: 2},
			want: map[uuid.UUID]int{a: 3},
		},
		{
			name: "unchanged item produces no delta",
			old:  map[uuid.UUID]int{a: 2, b: 1},
			new:  map[uuid.UUID]int{a: 2, b: 4},
			want: map[uuid.UUID]int{b: -3},
		},
		{
			name: "removed item restores, added item consumes",
			old:  map[uuid.UUID]int{a: 2},
			new:  map[uuid.UUID]int{c: 3},
			want: map[uuid.UUID]int{a: 2, c: -3},
		},
		{
			name: "both empty",
			old:  map[uuid.UUID]int{},
			new:  map[uuid.UUID]int{},
			want: map[uuid.UUID]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.StockDeltas(tt.old, tt.new)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d deltas, want %d: %v", len(got), len(tt.want), got)
			}
			for pid, want := range tt.want {
				if got[pid] != want {
					t.Errorf("delta for %s = %d, want %d", pid, got[pid], want)
				}
			}
		})
	}
}
