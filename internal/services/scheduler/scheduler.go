package scheduler

import (
	"time"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/mailer"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the daily overdue-invoice scan at 09:00 and exposes it for
// manual triggering.
type Scheduler struct {
	cron        *cron.Cron
	invoiceRepo *repository.InvoiceRepository
	mailer      *mailer.Mailer
}

func New(invoiceRepo *repository.InvoiceRepository, m *mailer.Mailer) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		invoiceRepo: invoiceRepo,
		mailer:      m,
	}
}

func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc("0 9 * * *", func() {
		s.CheckOverdueInvoices()
	}); err != nil {
		log.Error().Err(err).Msg("failed to schedule overdue invoice check")
		return
	}
	s.cron.Start()
	log.Info().Msg("scheduler started, overdue invoice check runs daily at 09:00")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// CheckOverdueInvoices scans for unpaid invoices past their due date, flips
// their display status to Overdue and sends reminder emails.
func (s *Scheduler) CheckOverdueInvoices() (notified int, scanned int) {
	log.Info().Msg("starting overdue invoice check")

	overdue, err := s.invoiceRepo.FindOverdue(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("overdue invoice scan failed")
		return 0, 0
	}
	if len(overdue) == 0 {
		log.Info().Msg("no overdue invoices found")
		return 0, 0
	}

	for i := range overdue {
		inv := &overdue[i]

		if inv.Status != models.InvoiceStatusOverdue {
			if err := s.invoiceRepo.DB().Model(&models.Invoice{}).
				Where("id = ?", inv.ID).
				Update("status", models.InvoiceStatusOverdue).Error; err != nil {
				log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("failed to mark invoice overdue")
				continue
			}
		}

		if inv.Customer == nil || inv.Customer.Email == "" {
			log.Warn().Str("invoice", inv.InvoiceNumber).Msg("skipping overdue reminder, no customer email")
			continue
		}

		daysOverdue := int(time.Since(inv.DueDate).Hours() / 24)
		s.mailer.SendInvoiceOverdue(inv, inv.Customer, daysOverdue)
		notified++
	}

	log.Info().Int("notified", notified).Int("overdue", len(overdue)).Msg("overdue invoice check completed")
	return notified, len(overdue)
}
