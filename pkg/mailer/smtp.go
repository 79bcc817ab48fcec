package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds connection settings for an SMTP relay.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	// TLSPolicy is one of "mandatory", "opportunistic" or "none".
	TLSPolicy string
	Timeout   time.Duration
}

// SMTPSender delivers mail through an SMTP relay, dialing per message.
type SMTPSender struct {
	cfg  SMTPConfig
	opts []mail.Option
}

// NewSMTPSender validates the configuration and prepares client options.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return &SMTPSender{cfg: cfg, opts: opts}, nil
}

// Send builds the MIME message and delivers it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return fmt.Errorf("set sender: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	if msg.TextBody != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.TextBody)
	}

	client, err := mail.NewClient(s.cfg.Host, s.opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("deliver mail to %s: %w", msg.To, err)
	}
	return nil
}

func tlsPolicy(raw string) mail.TLSPolicy {
	switch raw {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
