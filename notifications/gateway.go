package notifications

import (
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DeliveryError wraps an email/SMS transport or authentication failure.
// Callers on the scan path log it and move on; nothing retries.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Mailer sends a single email to one or more recipients
type Mailer interface {
	SendEmail(subject string, recipients []string, plainText, htmlContent string) error
}

// SMSSender sends a single SMS and returns the provider message id
type SMSSender interface {
	SendSMS(to, body string) (string, error)
}

// SendgridMailer delivers email through the SendGrid transactional API
type SendgridMailer struct {
	APIKey   string
	FromName string
	FromAddr string
}

// SendEmail sends one message per recipient. The first transport failure is
// returned; remaining recipients are still attempted.
func (m SendgridMailer) SendEmail(subject string, recipients []string, plainText, htmlContent string) error {
	if m.APIKey == "" {
		return &DeliveryError{Channel: "email", Err: errors.New("sendgrid api key not configured")}
	}

	client := sendgrid.NewSendClient(m.APIKey)
	from := mail.NewEmail(m.FromName, m.FromAddr)

	var firstErr error
	for _, recipient := range recipients {
		to := mail.NewEmail("", recipient)
		message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
		response, err := client.Send(message)
		if err != nil {
			if firstErr == nil {
				firstErr = &DeliveryError{Channel: "email", Err: err}
			}
			continue
		}
		if response.StatusCode >= 400 {
			if firstErr == nil {
				firstErr = &DeliveryError{
					Channel: "email",
					Err:     fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body),
				}
			}
		}
	}
	return firstErr
}

// TwilioSender delivers SMS through the Twilio REST API
type TwilioSender struct {
	FromNumber string
	client     *twilio.RestClient
}

// NewTwilioSender creates a Twilio-backed SMSSender. Missing credentials are
// tolerated at construction and surface as a DeliveryError on send, so the
// process can run without SMS configured.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	t := &TwilioSender{FromNumber: fromNumber}
	if accountSID != "" && authToken != "" {
		t.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return t
}

// SendSMS sends body to the given phone number and returns the message sid
func (t *TwilioSender) SendSMS(to, body string) (string, error) {
	if t.client == nil || t.FromNumber == "" {
		return "", &DeliveryError{Channel: "sms", Err: errors.New("twilio credentials not configured")}
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.FromNumber)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", &DeliveryError{Channel: "sms", Err: err}
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
