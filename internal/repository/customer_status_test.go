package repository_test

import (
	"testing"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"
)

func summaries(statuses ...string) []models.InvoiceSummary {
	out := make([]models.InvoiceSummary, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, models.InvoiceSummary{Status: s})
	}
	return out
}

func TestCustomerStatusFromInvoices(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"no invoices", nil, models.CustomerStatusNew},
		{"single pending", []string{models.InvoiceStatusPending}, models.CustomerStatusPending},
		{"overdue wins over everything", []string{
			models.InvoiceStatusPaid,
			models.InvoiceStatusOverdue,
			models.InvoiceStatusPending,
		}, models.CustomerStatusOverdue},
		{"pending beats partially paid", []string{
			models.InvoiceStatusPartiallyPaid,
			models.InvoiceStatusPending,
		}, models.CustomerStatusPending},
		{"partially paid beats paid", []string{
			models.InvoiceStatusPaid,
			models.InvoiceStatusPartiallyPaid,
		}, models.CustomerStatusPartiallyPaid},
		{"all paid", []string{
			models.InvoiceStatusPaid,
			models.InvoiceStatusPaid,
		}, models.CustomerStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.CustomerStatusFromInvoices(summaries(tt.statuses...))
			if got != tt.want {
				t.Errorf("CustomerStatusFromInvoices(%v) = %q, want %q", tt.statuses, got, tt.want)
			}
		})
	}
}
