package common

// EmailSender sends transactional mail: order confirmations, payment
// receipts.
type EmailSender interface {
	Send(to, subject, html string) error
}

// NopEmailSender discards every message. The worker falls back to it when no
// relay is configured.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }

// Email is a single message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects messages instead of delivering them. Tests assert
// against its Outbox.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}
