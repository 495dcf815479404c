package email

import (
	"context"
	"fmt"
	"io"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends transactional emails through an SMTP relay.
type SMTPMailer struct {
	dialer    sender
	from      string
	publicURL string
	logger    *zerolog.Logger
}

func NewSMTPMailer(cfg config.EmailConfig, app config.AppConfig, logger *zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:      cfg.From,
		publicURL: app.PublicURL,
		logger:    logger,
	}
}

func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, o *models.OrderWithCustomer) error {
	view := newOrderView(o, m.publicURL)
	body, err := render("confirmation.html", view)
	if err != nil {
		return err
	}

	qrContent := view.OrderURL
	if qrContent == "" {
		qrContent = o.OrderNumber
	}
	png, err := qrcode.Encode(qrContent, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode order qr code: %w", err)
	}

	msg := m.newMessage(o.CustomerEmail, fmt.Sprintf("Confirmación de reservación %s", o.OrderNumber), body)
	msg.Embed(qrAttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(png)
		return err
	}))
	return m.send(ctx, msg, "confirmation", o)
}

func (m *SMTPMailer) SendReminder(ctx context.Context, o *models.OrderWithCustomer) error {
	body, err := render("reminder.html", newOrderView(o, m.publicURL))
	if err != nil {
		return err
	}
	msg := m.newMessage(o.CustomerEmail, fmt.Sprintf("Recordatorio de tu reservación %s", o.OrderNumber), body)
	return m.send(ctx, msg, "reminder", o)
}

func (m *SMTPMailer) newMessage(to, subject, html string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return msg
}

func (m *SMTPMailer) send(ctx context.Context, msg *gomail.Message, kind string, o *models.OrderWithCustomer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", o.OrderNumber)
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %s email for %s: %w", kind, o.OrderNumber, err)
	}
	m.logger.Info().Str("kind", kind).Str("order_number", o.OrderNumber).Msg("email sent")
	return nil
}

// LogMailer only logs; it is used when SMTP is not configured. Reminders
// report domain.ErrMailDisabled so they stay pending until SMTP is set up.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOrderConfirmation(_ context.Context, o *models.OrderWithCustomer) error {
	m.logger.Info().Str("to", o.CustomerEmail).Str("order_number", o.OrderNumber).Msg("smtp disabled, confirmation not sent")
	return nil
}

func (m *LogMailer) SendReminder(_ context.Context, o *models.OrderWithCustomer) error {
	m.logger.Info().Str("to", o.CustomerEmail).Str("order_number", o.OrderNumber).Msg("smtp disabled, reminder not sent")
	return domain.ErrMailDisabled
}
