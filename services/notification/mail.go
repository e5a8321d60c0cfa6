package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"bookme/models"

	"go.uber.org/zap"
)

const reminderSubject = "Цаг захиалгын сануулга - BookMe"

var reminderTemplate = template.Must(template.New("reminder").Parse(`<div style="padding: 20px; font-family: Arial, sans-serif;">
  <h2>Сайн байна уу, {{.Name}}!</h2>
  <p>Та 1 цагийн дараа цаг захиалгатай байна.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Захиалгын мэдээлэл:</h3>
    <p><strong>Цаг:</strong> {{.StartsAt}}</p>
    <p><strong>Ажилтан:</strong> {{.EmployeeName}}</p>
    <p><strong>Компани:</strong> {{.CompanyName}}</p>
    <p><strong>Захиалгын дугаар:</strong> {{.BookingID}}</p>
    {{- if .TravelTime}}
    <p><strong>Очих хугацаа яг одоогийн байдлаар:</strong> {{.TravelTime}}</p>
    <p style="color: #666; font-size: 14px;"><em>Таны оруулсан байршил ({{.Address}})-аас {{.CompanyName}} хүртэлх замын хугацаа</em></p>
    {{- end}}
  </div>
  <p>Хэрэв та цагаа цуцлах эсвэл өөрчлөх шаардлагатай бол доорх холбоосоор орно уу.</p>
  <a href="{{.BookingsURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Захиалга харах</a>
  <br><br>
  <p>Баярлалаа,<br>BookMe багийнхан</p>
</div>
`))

type mailView struct {
	Name         string
	StartsAt     string
	EmployeeName string
	CompanyName  string
	BookingID    string
	TravelTime   string
	Address      string
	BookingsURL  string
}

// MailConfig configures the SMTP transport.
type MailConfig struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Password    string
	UseTLS      bool
	From        string
	BookingsURL string
}

// Transport hands a fully built message to a mail server.
type Transport interface {
	Deliver(ctx context.Context, from, to string, msg []byte) error
}

type noopTransport struct{}

func (noopTransport) Deliver(context.Context, string, string, []byte) error { return nil }

// MailNotifier renders the reminder as HTML mail.
type MailNotifier struct {
	transport   Transport
	from        string
	bookingsURL string
	logger      *zap.Logger
}

type MailOption func(*MailNotifier)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) MailOption {
	return func(m *MailNotifier) { m.transport = t }
}

// NewMailNotifier builds a notifier over SMTP. When mail is disabled or no host is
// configured, messages are rendered and dropped.
func NewMailNotifier(cfg MailConfig, logger *zap.Logger, opts ...MailOption) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MailNotifier{
		transport:   noopTransport{},
		from:        cfg.From,
		bookingsURL: cfg.BookingsURL,
		logger:      logger,
	}
	if cfg.Enabled && cfg.Host != "" {
		m.transport = &smtpTransport{cfg: cfg}
	} else {
		logger.Info("SMTP disabled, reminder mail will not leave the process")
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Delivers reports whether mail actually leaves the process.
func (m *MailNotifier) Delivers() bool {
	_, dropped := m.transport.(noopTransport)
	return !dropped
}

func (m *MailNotifier) Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error {
	to := strings.TrimSpace(contact.Email)
	if to == "" {
		return ErrNoRecipient
	}

	body, err := renderReminder(contact, summary, m.bookingsURL)
	if err != nil {
		return fmt.Errorf("render reminder mail: %w", err)
	}
	if err := m.transport.Deliver(ctx, m.from, to, buildMessage(m.from, to, reminderSubject, body)); err != nil {
		return fmt.Errorf("%w: smtp: %v", ErrUnavailable, err)
	}
	m.logger.Debug("reminder mail sent", zap.String("bookingId", summary.BookingID), zap.String("to", to))
	return nil
}

func renderReminder(contact models.Contact, summary models.ReminderSummary, bookingsURL string) (string, error) {
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, mailView{
		Name:         contact.Name,
		StartsAt:     summary.StartsAt.Format("2006-01-02 15:04"),
		EmployeeName: orNA(summary.EmployeeName),
		CompanyName:  orNA(summary.CompanyName),
		BookingID:    summary.BookingID,
		TravelTime:   summary.TravelTime,
		Address:      contact.Address,
		BookingsURL:  bookingsURL,
	})
	return buf.String(), err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + body)
}

type smtpTransport struct {
	cfg MailConfig
}

func (s *smtpTransport) Deliver(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if s.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
