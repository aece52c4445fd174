package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/buensabor/buensabor-web/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// CredentialsEmail builds the message sent to a newly created employee.
func CredentialsEmail(to, fullName, password, loginURL string) SendEmailPayload {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\r\n\r\n", fullName)
	b.WriteString("Se creó tu usuario en El Buen Sabor.\r\n\r\n")
	fmt.Fprintf(&b, "Email: %s\r\nContraseña inicial: %s\r\n\r\n", to, password)
	b.WriteString("En tu primer ingreso vas a tener que elegir una contraseña nueva.\r\n")
	if loginURL != "" {
		fmt.Fprintf(&b, "Ingresá en %s\r\n", loginURL)
	}
	return SendEmailPayload{To: to, Subject: "Tu acceso a El Buen Sabor", Body: b.String()}
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// SMTPSender delivers mail through a plain SMTP relay such as Mailpit.
type SMTPSender struct {
	Addr string
	From string
}

// NewSMTPSender builds a sender for host:port.
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from}
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg SendEmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return smtp.SendMail(s.Addr, nil, s.From, []string{msg.To}, FormatMessage(s.From, msg))
}

// FormatMessage renders an RFC 5322 message with UTF-8 text body.
func FormatMessage(from string, msg SendEmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// SendEmailHandler processes TaskTypeSendEmail tasks with sender.
func SendEmailHandler(sender Sender, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.To == "" {
			return fmt.Errorf("mail: empty recipient: %w", asynq.SkipRetry)
		}
		tracker := metrics.Track(TaskTypeSendEmail)
		err := sender.Send(ctx, payload)
		if err != nil && logger != nil {
			logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		}
		return tracker.End(err)
	}
}
