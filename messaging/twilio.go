package messaging

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender delivers WhatsApp messages through Twilio's Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	ready  bool
}

var _ Sender = (*TwilioSender)(nil)

func NewTwilioSender(accountSid, authToken, whatsappNumber string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from:  whatsappNumber,
		ready: accountSid != "" && authToken != "" && whatsappNumber != "",
	}
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) CheckConfig() error {
	if !s.ready {
		return ErrNotConfigured
	}
	return nil
}

// Send ignores ctx: the Twilio client has no context-aware call.
func (s *TwilioSender) Send(_ context.Context, phone, text string) (string, error) {
	if err := s.CheckConfig(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + phone)
	params.SetFrom("whatsapp:" + s.from)
	params.SetBody(text)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", errors.Wrap(err, "twilio create message")
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
