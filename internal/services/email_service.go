package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/gomail.v2"

	"schoolhub/internal/config"
)

// Notifier delivers one message to a list of recipients and reports success.
type Notifier interface {
	Send(subject, body string, recipients []string) bool
}

type EmailService interface {
	Notifier
	SendWelcomeEmail(email, username, password string) error
	SendPasswordResetEmail(email, username, token string) error
}

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h2>Welcome to SchoolHub{{if .Username}}, {{.Username}}{{end}}!</h2>
<p>Your account has been created.</p>
{{if .Password}}<p>Login: <strong>{{.Username}}</strong><br>Password: <strong>{{.Password}}</strong></p>
<p>Please change your password after the first login.</p>{{end}}
{{if .LoginURL}}<p><a href="{{.LoginURL}}">Sign in</a></p>{{end}}
<p>Best regards,<br>The SchoolHub Team</p>
`))
	resetTmpl = template.Must(template.New("reset").Parse(`
<h3>Password reset requested</h3>
<p>We received a request to reset the password for {{if .Username}}<strong>{{.Username}}</strong>{{else}}your account{{end}}.</p>
<p>Use the following token to reset your password: <strong>{{.Token}}</strong></p>
{{if .ResetURL}}<p><a href="{{.ResetURL}}">Reset password</a></p>{{end}}
<p>If you did not request this change, you can ignore this email.</p>
`))
)

type emailService struct {
	dialer    *gomail.Dialer
	from      string
	publicURL string
	dryRun    bool
	// send is replaced in tests
	send func(m *gomail.Message) error
}

func NewEmailService(cfg config.EmailConfig, publicURL string) EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	s := &emailService{
		dialer:    dialer,
		from:      cfg.FromEmail,
		publicURL: strings.TrimRight(publicURL, "/"),
		dryRun:    cfg.DryRun,
	}
	s.send = func(m *gomail.Message) error { return s.dialer.DialAndSend(m) }
	return s
}

func (s *emailService) Send(subject, body string, recipients []string) bool {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		log.Printf("[email][send] %q: no recipients", subject)
		return false
	}
	if err := s.deliver(subject, body, to); err != nil {
		log.Printf("[email][send] %q to %v: %v", subject, to, err)
		return false
	}
	return true
}

func (s *emailService) deliver(subject, body string, to []string) error {
	if s.dryRun {
		log.Printf("[email][dry-run] to=%v subject=%q", to, subject)
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainText(body))
	m.AddAlternative("text/html", body)
	return s.send(m)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *emailService) SendWelcomeEmail(email, username, password string) error {
	body, err := render(welcomeTmpl, map[string]string{
		"Username": username,
		"Password": password,
		"LoginURL": s.link("/login"),
	})
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	if err := s.deliver("Welcome to SchoolHub!", body, []string{email}); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, username, token string) error {
	resetURL := ""
	if s.publicURL != "" {
		resetURL = s.link("/password-reset/confirm?token=" + token)
	}
	body, err := render(resetTmpl, map[string]string{
		"Username": username,
		"Token":    token,
		"ResetURL": resetURL,
	})
	if err != nil {
		return fmt.Errorf("render password reset email: %w", err)
	}
	if err := s.deliver("Password reset request", body, []string{email}); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) link(path string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + path
}

// blockTags end a line in the text/plain alternative.
var blockTags = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// plainText renders the text/plain alternative: entities are decoded, block
// elements and <br> break lines, blank lines are dropped.
func plainText(body string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return joinLines(b.String())
		case html.TextToken:
			b.Write(bytes.ReplaceAll(z.Text(), []byte("\n"), []byte(" ")))
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[atom.Lookup(name)] {
				b.WriteByte('\n')
			}
		}
	}
}

func joinLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
