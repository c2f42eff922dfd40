package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"shopapi/internal/config"
	"shopapi/internal/models"
)

// Mailer delivers one-time codes over SMTP. It satisfies the code
// service's Sender interface.
type Mailer struct {
	client   *mail.Client
	from     string
	fromName string
	log      *slog.Logger
}

// New creates a Mailer from the SMTP configuration.
func New(cfg *config.Config, log *slog.Logger) (*Mailer, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPPort == 465 {
		opts = append(opts, mail.WithSSL(), mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.SMTPUser != "" && cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &Mailer{
		client:   client,
		from:     cfg.MailFrom,
		fromName: cfg.MailFromName,
		log:      log,
	}, nil
}

// SendCode emails a one-time code. The template depends on the purpose.
func (m *Mailer) SendCode(ctx context.Context, email string, purpose models.Purpose, code string, expiresAt time.Time) error {
	var subject, intro string
	switch purpose {
	case models.PurposeSignup:
		subject = "Welcome! Verify your email address"
		intro = "Use this code to verify your email address and finish creating your account."
	case models.PurposeLogin:
		subject = "Your login verification code"
		intro = "Use this code to sign in to your account. If you did not request it, you can ignore this email."
	default:
		subject = "Your verification code"
		intro = "Use this code to continue."
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("%s\n\nYour code: %s\n\nIt expires in %d minutes.\n", intro, code, minutes))
	msg.AddAlternativeString(mail.TypeTextHTML, fmt.Sprintf(
		`<p>%s</p><p style="font-size:24px;letter-spacing:4px;font-weight:bold">%s</p><p>It expires in %d minutes.</p>`,
		intro, code, minutes))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	m.log.Debug("code email sent", "to", email, "purpose", purpose)
	return nil
}
