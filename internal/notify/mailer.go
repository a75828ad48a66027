package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"telepsychiatry-server/internal/config"
	"telepsychiatry-server/internal/models"
)

// Sender delivers a single plain-text email.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through an unauthenticated SMTP relay.
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender builds a sender from mailer config.
func NewSMTPSender(cfg config.MailerConfig) *SMTPSender {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@telepsychiatry.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", strings.TrimSpace(cfg.Host), strings.TrimSpace(cfg.Port)),
		from: from,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, to, subject, body)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

// Mailer emails both parties of an appointment on every lifecycle event.
// Sends run on their own goroutines; failures are logged and swallowed so the
// critical path never waits on, or fails with, the mail relay.
type Mailer struct {
	sender Sender
	logger *zap.Logger
}

// NewMailer creates a Mailer over the given sender.
func NewMailer(sender Sender, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, logger: logger}
}

func (m *Mailer) AppointmentBooked(appt *models.Appointment) {
	m.dispatch(appt, "Appointment confirmed", bookedBody)
}

func (m *Mailer) AppointmentCancelled(appt *models.Appointment) {
	m.dispatch(appt, "Appointment cancelled", cancelledBody)
}

func (m *Mailer) AppointmentReminder(appt *models.Appointment) {
	m.dispatch(appt, "Appointment reminder", reminderBody)
}

func (m *Mailer) dispatch(appt *models.Appointment, subject string, body func(*models.Appointment, string) string) {
	go m.send(appt, appt.PatientEmail, subject, body(appt, appt.PsychiatristName))
	go m.send(appt, appt.PsychiatristEmail, subject, body(appt, appt.PatientName))
}

func (m *Mailer) send(appt *models.Appointment, to, subject, body string) {
	if to == "" {
		return
	}
	if err := m.sender.Send(to, subject, body); err != nil {
		m.logger.Warn("appointment mail failed",
			zap.String("appointmentId", appt.ID),
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
