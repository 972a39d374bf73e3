// Package mailer delivers password-reset codes.
package mailer

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender is what the auth handlers need for the reset flow.
type Sender interface {
	SendResetCode(email, code string) error
}

// Sendgrid sends reset codes through the SendGrid API.
type Sendgrid struct {
	apiKey string
	from   string
}

func NewSendgrid(apiKey, from string) *Sendgrid {
	return &Sendgrid{apiKey: apiKey, from: from}
}

func (s *Sendgrid) SendResetCode(email, code string) error {
	from := mail.NewEmail("Taskman Support", s.from)
	to := mail.NewEmail("", email)
	subject := "Password Reset Code"

	plainTextContent := fmt.Sprintf("Your password reset code is: %s", code)
	htmlContent := fmt.Sprintf("<strong>Your password reset code is: %s</strong>", code)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		log.Println("Error sending reset email:", err)
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded with status %d", response.StatusCode)
	}

	return nil
}
