package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wneessen/go-mail"

	"task-manager/internal/errs"
	"task-manager/internal/metrics"
	"task-manager/internal/models"
	"task-manager/pkg/logger"
)

const (
	dueSubject  = "Your Task is Due!"
	senderName  = "Task Manager"
	notSet      = "Not Set"
	dueLayout   = "1/2/2006, 3:04:05 PM"
	sendTimeout = 30 * time.Second
)

var dueAlert = template.Must(template.New("due").Parse(`
<h2>Task Due Alert</h2>
<p><strong>Task:</strong> {{.Description}}</p>
<p><strong>Due Date:</strong> {{.Due}}</p>
<p>Please complete it soon or it will be deleted in an hour.</p>
`))

// MailerConfig describes the SMTP relay.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Location *time.Location
}

// Mailer sends due alerts over SMTP.
type Mailer struct {
	from     string
	loc      *time.Location
	send     func(ctx context.Context, msg *mail.Msg) error
	validate *validator.Validate
}

// MailerOption customizes a Mailer.
type MailerOption func(*Mailer)

// WithSender replaces the SMTP round trip. Tests use it to capture messages.
func WithSender(send func(ctx context.Context, msg *mail.Msg) error) MailerOption {
	return func(m *Mailer) { m.send = send }
}

// NewMailer builds the SMTP client. No connection is made until the first Notify.
func NewMailer(cfg MailerConfig, opts ...MailerOption) (*Mailer, error) {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	m := &Mailer{
		from:     cfg.From,
		loc:      cfg.Location,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.send != nil {
		return m, nil
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	m.send = func(ctx context.Context, msg *mail.Msg) error {
		return client.DialAndSendWithContext(ctx, msg)
	}
	return m, nil
}

// Notify renders and sends the alert. An invalid recipient fails without dialing.
func (m *Mailer) Notify(ctx context.Context, n models.DueNotice) error {
	err := m.notify(ctx, n)
	metrics.Notifications.WithLabelValues("smtp", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	logger.Info(ctx, "Sent due task email", "to", n.Address, "task_id", n.TaskID)
	return nil
}

func (m *Mailer) notify(ctx context.Context, n models.DueNotice) error {
	if err := m.validate.Var(n.Address, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email address %q", errs.ErrDelivery, n.Address)
	}
	body, err := RenderDueAlert(n, m.loc)
	if err != nil {
		return fmt.Errorf("%w: render: %w", errs.ErrDelivery, err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, m.from); err != nil {
		return fmt.Errorf("%w: from: %w", errs.ErrDelivery, err)
	}
	if err := msg.To(n.Address); err != nil {
		return fmt.Errorf("%w: to: %w", errs.ErrDelivery, err)
	}
	msg.Subject(dueSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: send: %w", errs.ErrDelivery, err)
	}
	return nil
}

// RenderDueAlert produces the HTML body. The description is escaped.
func RenderDueAlert(n models.DueNotice, loc *time.Location) (string, error) {
	var buf bytes.Buffer
	err := dueAlert.Execute(&buf, struct {
		Description string
		Due         string
	}{n.Description, FormatDue(n.DueAt, loc)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatDue prints the due time in loc, or "Not Set".
func FormatDue(due *time.Time, loc *time.Location) string {
	if due == nil || due.IsZero() {
		return notSet
	}
	if loc == nil {
		loc = time.UTC
	}
	return due.In(loc).Format(dueLayout)
}
