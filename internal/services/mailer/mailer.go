package mailer

import (
	"fmt"

	"billing-backend/internal/config"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email. Every message goes out on its own
// goroutine; failures are logged and swallowed so delivery never blocks or
// fails an HTTP response.
type Mailer struct {
	dialer   *gomail.Dialer
	from     string
	company  config.CompanyConfig
	settings *repository.NotificationSettingsRepository
}

func New(cfg config.SMTPConfig, company config.CompanyConfig, settings *repository.NotificationSettingsRepository) *Mailer {
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		company:  company,
		settings: settings,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	go func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
			return
		}
		log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	}()
}

// SendInvoiceCreated notifies the customer that a new invoice was issued,
// unless the issuing user disabled the notification.
func (m *Mailer) SendInvoiceCreated(inv *models.Invoice, customer *models.Customer) {
	if customer.Email == "" || !m.settings.Enabled(inv.UserID, models.NotificationInvoiceCreated) {
		return
	}
	subject := fmt.Sprintf("Invoice #%s Created", inv.InvoiceNumber)
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Dear %s,</p>
		<p>Invoice <strong>%s</strong> for <strong>%s</strong> has been created.</p>
		<p>Due date: %s</p>
		<p>%s<br>%s</p>`,
		m.company.Name, customer.Name, inv.InvoiceNumber,
		inv.TotalAmount.StringFixed(2), inv.DueDate.Format("02 Jan 2006"),
		m.company.Phone, m.company.Email)
	m.send(customer.Email, subject, body)
}

// SendPaymentReceived confirms a recorded payment to the customer.
func (m *Mailer) SendPaymentReceived(p *models.Payment, inv *models.Invoice, customer *models.Customer) {
	if customer.Email == "" || !m.settings.Enabled(inv.UserID, models.NotificationPaymentReceived) {
		return
	}
	subject := fmt.Sprintf("Payment Received for Invoice #%s", inv.InvoiceNumber)
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Dear %s,</p>
		<p>We received your payment of <strong>%s</strong> towards invoice <strong>%s</strong>. Thank you.</p>
		<p>%s<br>%s</p>`,
		m.company.Name, customer.Name,
		p.Amount.StringFixed(2), inv.InvoiceNumber,
		m.company.Phone, m.company.Email)
	m.send(customer.Email, subject, body)
}

// SendInvoiceOverdue reminds the customer about an overdue invoice.
func (m *Mailer) SendInvoiceOverdue(inv *models.Invoice, customer *models.Customer, daysOverdue int) {
	if customer.Email == "" || !m.settings.Enabled(inv.UserID, models.NotificationInvoiceOverdue) {
		return
	}
	subject := fmt.Sprintf("Overdue Invoice Reminder - Invoice #%s", inv.InvoiceNumber)
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Dear %s,</p>
		<p>Invoice <strong>%s</strong> for <strong>%s</strong> is overdue by %d day(s).
		Please arrange payment at your earliest convenience.</p>
		<p>%s<br>%s</p>`,
		m.company.Name, customer.Name, inv.InvoiceNumber,
		inv.TotalAmount.StringFixed(2), daysOverdue,
		m.company.Phone, m.company.Email)
	m.send(customer.Email, subject, body)
}
