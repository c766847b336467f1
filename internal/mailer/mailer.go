package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers transactional mail. The auth flows only ever hand it
// a recipient, subject and plain-text body.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTP(host, port, username, password, from string) *SMTPMailer {
	m := &SMTPMailer{
		addr: host + ":" + port,
		from: from,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes mail to the process log. Development fallback when
// no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail to %s: %s\n%s", to, subject, body)
	return nil
}
