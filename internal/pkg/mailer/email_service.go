package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, organizationName string) error
	SendModelReady(toEmail, modelName string, modelId string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

// NewEmailService returns a no-op sender when host is empty.
func NewEmailService(host string, port int, username, password, senderName, clientURL string) IEmailService {
	if host == "" {
		return noopEmailService{}
	}
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %q to %s: %v\n", subject, toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] %q sent to %s\n", subject, toEmail)
	return nil
}

func (s *emailService) SendWelcome(toEmail, organizationName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to Chromir!</h2>
			<p>Your organization <strong>%s</strong> is ready and has been credited with starter tokens.</p>
			<a href="%s/models/new" style="background-color: #4F46E5; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Create your first model</a>
		</div>
	`, html.EscapeString(organizationName), s.clientURL)
	return s.send(toEmail, "Welcome to Chromir", body)
}

func (s *emailService) SendModelReady(toEmail, modelName string, modelId string) error {
	link := fmt.Sprintf("%s/models/%s", s.clientURL, modelId)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your model is ready</h2>
			<p><strong>%s</strong> finished training and can generate images now.</p>
			<a href="%s" style="background-color: #4F46E5; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open model</a>
			<p>Or copy this link:</p>
			<p>%s</p>
		</div>
	`, html.EscapeString(modelName), link, link)
	return s.send(toEmail, "Your model is ready", body)
}

type noopEmailService struct{}

func (noopEmailService) SendWelcome(string, string) error            { return nil }
func (noopEmailService) SendModelReady(string, string, string) error { return nil }
