package alerting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// AlertMessage 封装单封告警邮件的内容。
type AlertMessage struct {
	Subject string
	Body    string
}

// Notifier 定义告警投递接口。Send delivers exactly one outbound message per
// successful call; de-duplication across cycles is the rule's closed flag,
// not the notifier's concern.
type Notifier interface {
	Send(ctx context.Context, msg AlertMessage) error
}

// SMTPOptions carry transport credentials and addressing, all supplied by
// configuration and validated at startup.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	FromAddr string
	ToAddr   string
}

// SMTPNotifier 通过 SMTP 发送告警邮件。
type SMTPNotifier struct {
	opts   SMTPOptions
	dialer *gomail.Dialer
	logger zerolog.Logger
}

// NewSMTPNotifier 构造 SMTP 告警器。
func NewSMTPNotifier(opts SMTPOptions, logger zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		opts:   opts,
		dialer: gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password),
		logger: logger.With().Str("component", "alert_mail").Logger(),
	}
}

// Send dials the configured server and delivers one plain-text message. The
// dial and send cannot be cancelled mid-flight; a slow server delays the
// current cycle only.
func (n *SMTPNotifier) Send(ctx context.Context, msg AlertMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.opts.FromAddr)
	m.SetHeader("To", n.opts.ToAddr)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}

	n.logger.Info().
		Str("to", n.opts.ToAddr).
		Str("subject", msg.Subject).
		Msg("邮件通知发送成功")
	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)
