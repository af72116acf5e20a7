package services

import (
	"context"
	"time"

	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
	"github.com/wneessen/go-mail"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail over SMTP. Port 465 uses implicit TLS, any other
// port requires STARTTLS.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		Timeout:  10 * time.Second,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message, err := m.compose(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid email message")
	}

	client, err := mail.NewClient(m.Host, m.clientOptions()...)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to configure mail client")
	}

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to send email")
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.Port)}
	if m.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.Timeout))
	}

	if m.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if m.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.Username),
			mail.WithPassword(m.Password),
		)
	}

	return opts
}

func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	message := mail.NewMsg()
	if err := message.From(m.From); err != nil {
		return nil, err
	}
	if err := message.To(msg.To); err != nil {
		return nil, err
	}
	message.Subject(msg.Subject)
	message.SetDate()
	message.SetMessageID()
	message.SetBodyString(mail.TypeTextPlain, msg.Body)
	return message, nil
}

// LogMailer writes messages to the log instead of sending them. Used in
// development when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Info("Email not sent, SMTP disabled", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
