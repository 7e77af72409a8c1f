package mail

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(m Message) error
}

// SMTPMailer delivers mail through the SMTP relay configured via
// SMTP_HOST, SMTP_PORT, SMTP_USER and SMTP_PASS.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer() (*SMTPMailer, error) {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port: %v", err)
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(smtpHost, port, smtpUser, smtpPass),
		from:   smtpUser,
	}, nil
}

func (s *SMTPMailer) Send(m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	return s.dialer.DialAndSend(msg)
}
