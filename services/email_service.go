package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/prediction-league/config"
)

// EmailService отправляет транзакционные письма. Шаблоны встроены:
// отдельных файлов-шаблонов у приложения нет.
type EmailService interface {
	SendWelcomeEmail(userEmail, firstName string) error
	SendLeagueInviteEmail(userEmail, leagueName, inviteCode string) error
}

type smtpEmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) EmailService {
	return &smtpEmailService{cfg: cfg}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<p>Привет, {{.FirstName}}!</p>
<p>Добро пожаловать в лигу прогнозов. Создайте лигу или присоединитесь
к существующей по инвайт-коду и начинайте делать прогнозы.</p>
<p><a href="{{.PublicURL}}">Открыть приложение</a></p>
`))

var leagueInviteTemplate = template.Must(template.New("league_invite").Parse(`
<p>Вас пригласили в лигу «{{.LeagueName}}».</p>
<p>Код для вступления: <b>{{.InviteCode}}</b></p>
<p><a href="{{.PublicURL}}/leagues/join?code={{.InviteCode}}">Присоединиться</a></p>
`))

func (s *smtpEmailService) SendWelcomeEmail(userEmail, firstName string) error {
	body, err := renderTemplate(welcomeTemplate, struct {
		FirstName string
		PublicURL string
	}{FirstName: firstName, PublicURL: s.cfg.PublicURL})
	if err != nil {
		return err
	}
	return s.send([]string{userEmail}, "Добро пожаловать в лигу прогнозов!", body)
}

func (s *smtpEmailService) SendLeagueInviteEmail(userEmail, leagueName, inviteCode string) error {
	body, err := renderTemplate(leagueInviteTemplate, struct {
		LeagueName string
		InviteCode string
		PublicURL  string
	}{LeagueName: leagueName, InviteCode: inviteCode, PublicURL: s.cfg.PublicURL})
	if err != nil {
		return err
	}
	return s.send([]string{userEmail}, fmt.Sprintf("Приглашение в лигу «%s»", leagueName), body)
}

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", t.Name(), err)
	}
	return body.String(), nil
}

func (s *smtpEmailService) send(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}
