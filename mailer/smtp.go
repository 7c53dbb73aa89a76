// Package mailer delivers one-time codes over email.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/pkg/errors"

	"github.com/finvault/finvault/verification"
)

var _ verification.CodeSender = (*SMTPMailer)(nil)

// SMTPMailer sends one-time codes through a plain SMTP relay with AUTH.
type SMTPMailer struct {
	host     string
	port     string
	account  string
	password string
	from     string
}

func NewSMTPMailer(host, port, account, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		account:  account,
		password: password,
		from:     account,
	}
}

var subjects = map[verification.Purpose]string{
	verification.PurposeSignupVerify:  "Verify your email address",
	verification.PurposeLogin2FA:      "Your login verification code",
	verification.PurposePasswordReset: "Reset your password",
}

// SendCode delivers the code. The code must not be logged here; the message
// body is the only place it may appear.
func (m *SMTPMailer) SendCode(_ context.Context, to string, purpose verification.Purpose, code string) error {
	subject, ok := subjects[purpose]
	if !ok {
		subject = "Your verification code"
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\nYour verification code is %s. It expires in 10 minutes.\r\nIf you did not request this, you can ignore this email.\r\n",
		m.from, to, subject, code)

	auth := smtp.PlainAuth("", m.account, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, "[SMTPMailer.SendCode] smtp.SendMail")
	}
	return nil
}
