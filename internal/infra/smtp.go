package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending receipts as PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host was configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// BuildRecibo assembles the receipt e-mail without sending it.
func (m *Mailer) BuildRecibo(to, subject, body, fileName string, pdf []byte) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	if len(pdf) > 0 {
		if _, err := e.Attach(bytes.NewReader(pdf), fileName, "application/pdf"); err != nil {
			return nil, fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}
	return e, nil
}

// SendRecibo mails a PDF receipt to the customer.
func (m *Mailer) SendRecibo(to, subject, body, fileName string, pdf []byte) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP_HOST not configured")
	}
	e, err := m.BuildRecibo(to, subject, body, fileName, pdf)
	if err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
