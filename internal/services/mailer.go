package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/platform/sendgrid"
)

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type Mail struct {
	// Kind labels the mail in metrics: documents, report, notice, otp.
	Kind        string
	// Private mails skip the default CC list.
	Private     bool
	To          []string
	CC          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type sendgridMailer struct {
	log       *logger.Logger
	client    sendgrid.Client
	defaultCC []string
	metrics   *observability.Metrics
}

// NewSendgridMailer sends through SendGrid, appending defaultCC to every mail.
func NewSendgridMailer(log *logger.Logger, client sendgrid.Client, defaultCC []string, metrics *observability.Metrics) Mailer {
	return &sendgridMailer{
		log:       log.With("service", "Mailer"),
		client:    client,
		defaultCC: defaultCC,
		metrics:   metrics,
	}
}

func (m *sendgridMailer) Send(ctx context.Context, mail Mail) error {
	if len(mail.To) == 0 {
		return fmt.Errorf("mail has no recipient")
	}
	cc := append([]string{}, mail.CC...)
	if !mail.Private {
		cc = append(cc, m.defaultCC...)
	}
	req := sendgrid.Message{
		To:      addresses(mail.To),
		CC:      addresses(cc),
		Subject: mail.Subject,
		HTML:    mail.HTML,
	}
	for _, a := range mail.Attachments {
		req.Attachments = append(req.Attachments, sendgrid.Attachment{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Content:  a.Content,
		})
	}
	res, err := m.client.Send(ctx, req)
	m.metrics.IncMail(mail.Kind, err)
	if err != nil {
		m.log.Warn("mail send failed", "kind", mail.Kind, "recipient", strings.Join(mail.To, ","), "error", err)
		return err
	}
	m.log.Info("mail sent", "kind", mail.Kind, "recipient", strings.Join(mail.To, ","), "message_id", res.MessageID)
	return nil
}

func addresses(in []string) []sendgrid.Address {
	var out []sendgrid.Address
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, sendgrid.Address{Email: a})
		}
	}
	return out
}

var ErrMailDisabled = errors.New("mail delivery not configured")

type disabledMailer struct {
	log *logger.Logger
}

// NewDisabledMailer refuses every send; used when no SendGrid key is configured.
func NewDisabledMailer(log *logger.Logger) Mailer {
	return &disabledMailer{log: log.With("service", "Mailer")}
}

func (m *disabledMailer) Send(_ context.Context, mail Mail) error {
	m.log.Warn("mail dropped", "kind", mail.Kind, "subject", mail.Subject)
	return ErrMailDisabled
}
