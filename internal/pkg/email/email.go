package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	mail "github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Decision describes a review outcome to tell the student about.
type Decision struct {
	ToEmail  string
	ToName   string
	Course   string
	Status   string
	Comments string
}

// Notifier delivers review-decision notifications.
type Notifier interface {
	SendDecision(d Decision) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	FromName      string
	FromEmail     string
	SkipTLSVerify bool
	BaseURL       string
}

// Configured reports whether enough is set to dial a server.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.FromEmail != ""
}

// SMTPNotifier implements Notifier over go-mail.
type SMTPNotifier struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(m *mail.Message) error
}

// NewSMTPNotifier creates a Notifier. Without a configured host it only logs.
func NewSMTPNotifier(config SMTPConfig, logger zerolog.Logger) *SMTPNotifier {
	n := &SMTPNotifier{config: config, logger: logger}
	n.send = n.dialAndSend
	return n
}

func (n *SMTPNotifier) dialAndSend(m *mail.Message) error {
	d := mail.NewDialer(n.config.Host, n.config.Port, n.config.Username, n.config.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         n.config.Host,
		InsecureSkipVerify: n.config.SkipTLSVerify,
	}
	return d.DialAndSend(m)
}

// SendDecision emails the student the outcome of their application.
func (n *SMTPNotifier) SendDecision(d Decision) error {
	if d.ToEmail == "" {
		return nil
	}
	if !n.config.Configured() {
		n.logger.Warn().
			Str("toEmail", d.ToEmail).
			Str("status", d.Status).
			Msg("SMTP not configured - decision email not sent")
		return nil
	}

	m := n.BuildDecisionMessage(d)
	if err := n.send(m); err != nil {
		return fmt.Errorf("failed to send decision email to %s: %w", d.ToEmail, err)
	}
	n.logger.Info().Str("toEmail", d.ToEmail).Str("status", d.Status).Msg("Decision email sent")
	return nil
}

// BuildDecisionMessage renders the decision email.
func (n *SMTPNotifier) BuildDecisionMessage(d Decision) *mail.Message {
	subject, body := renderDecision(d, n.config.BaseURL)

	m := mail.NewMessage()
	m.SetAddressHeader("From", n.config.FromEmail, n.config.FromName)
	m.SetAddressHeader("To", d.ToEmail, d.ToName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func renderDecision(d Decision, baseURL string) (subject, body string) {
	name := cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(d.ToName)))
	status := strings.ToLower(d.Status)

	var headline, next string
	switch status {
	case "approved":
		subject = "Congratulations! Your application has been approved"
		headline = "Your application has been approved"
		next = fmt.Sprintf(`<p>You can download your offer letter from your dashboard at <a href="%s">%s</a>.</p>`,
			html.EscapeString(baseURL), html.EscapeString(baseURL))
	default:
		subject = "Update on your application"
		headline = "Your application was not approved"
		next = "<p>You are welcome to apply again in a future admission cycle.</p>"
	}

	var comments string
	if c := strings.TrimSpace(d.Comments); c != "" {
		comments = fmt.Sprintf("<p><strong>Reviewer comments:</strong> %s</p>", html.EscapeString(c))
	}

	body = fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">%s</h2>
				<p>Dear %s,</p>
				<p>Your application for <strong>%s</strong> has been reviewed. Status: <strong>%s</strong>.</p>
				%s
				%s
				<p>Regards,<br>Admissions Office</p>
			</div>
		</body>
		</html>`,
		headline, html.EscapeString(name), html.EscapeString(d.Course), html.EscapeString(strings.ToUpper(status)), comments, next)
	return subject, body
}
