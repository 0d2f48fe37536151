package backup

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Credentials authenticate against the SMTP server.
type Credentials struct {
	Username string
	Password string
}

// Message is a backup notification with one attached file.
type Message struct {
	From           string
	To             string
	Subject        string
	Body           string
	AttachmentPath string
	AttachmentName string
}

// Sender submits a message.
type Sender interface {
	Send(ctx context.Context, creds Credentials, msg *Message) error
}

// SMTPSender submits over SMTP with mandatory STARTTLS and PLAIN auth.
type SMTPSender struct {
	Host string
	Port int
}

// NewSMTPSender creates a sender for host:port.
func NewSMTPSender(host string, port int) *SMTPSender {
	return &SMTPSender{Host: host, Port: port}
}

// Send composes msg and delivers it in one SMTP session.
func (s *SMTPSender) Send(ctx context.Context, creds Credentials, msg *Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.Host,
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Username),
		mail.WithPassword(creds.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending via %s:%d: %w", s.Host, s.Port, err)
	}
	return nil
}

func buildMessage(msg *Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.AttachmentPath != "" {
		m.AttachFile(msg.AttachmentPath, mail.WithFileName(msg.AttachmentName))
	}
	return m, nil
}
