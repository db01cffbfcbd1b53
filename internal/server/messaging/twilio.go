package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/phonex"
)

// TwilioDispatcher sends WhatsApp messages through the Twilio REST API.
type TwilioDispatcher struct {
	client *twilio.RestClient
	from   string
	logger logging.Logger
}

// NewTwilioDispatcher builds a dispatcher sending from the given WhatsApp
// number. The channel prefix is added to the sender if missing.
func NewTwilioDispatcher(accountSID, authToken, from string, logger logging.Logger) *TwilioDispatcher {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDispatcher{
		client: client,
		from:   ensureChannelPrefix(from),
		logger: logger.With("module", "twilio_dispatcher"),
	}
}

func (d *TwilioDispatcher) Send(ctx context.Context, to string, body string) (*Receipt, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(d.from)
	params.SetTo(to)
	params.SetBody(body)

	d.logger.Debug(ctx, "sending message", "to", to)

	msg, err := d.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}

	return receiptFrom(msg), nil
}

func (d *TwilioDispatcher) SendFlow(ctx context.Context, to string, contentSID string, ctaText string) (*Receipt, error) {
	vars, err := json.Marshal(map[string]string{"cta_text": ctaText})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(d.from)
	params.SetTo(to)
	params.SetContentSid(contentSID)
	params.SetContentVariables(string(vars))

	d.logger.Debug(ctx, "sending flow", "to", to, "content_sid", contentSID)

	msg, err := d.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}

	return receiptFrom(msg), nil
}

func receiptFrom(msg *twilioapi.ApiV2010Message) *Receipt {
	r := &Receipt{}
	if msg != nil && msg.Sid != nil {
		r.SID = *msg.Sid
	}
	return r
}

func ensureChannelPrefix(number string) string {
	if strings.HasPrefix(number, phonex.ChannelPrefix) {
		return number
	}
	return phonex.ChannelPrefix + number
}
