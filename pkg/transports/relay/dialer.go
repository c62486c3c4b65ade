package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/errorsx"
)

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

// Dialer places outbound intake calls through the Twilio REST API, pointing
// them at the relay's voice webhook.
type Dialer struct {
	cfg    Config
	client callCreator
}

// NewDialer creates a dialer sharing the relay's configuration.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{cfg: cfg.withDefaults()}
}

// Dial creates an outbound call to the given number. An empty url falls back
// to the relay's own voice webhook.
func (d *Dialer) Dial(ctx context.Context, to, from, url string) (string, error) {
	_ = ctx
	if to == "" || from == "" {
		return "", errors.New("to/from required")
	}
	if d.cfg.AccountSID == "" || d.cfg.AuthToken == "" {
		return "", errors.New("missing twilio credentials")
	}
	if url == "" {
		url = d.voiceWebhookURL()
	}
	creator := d.client
	if creator == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: d.cfg.AccountSID,
			Password: d.cfg.AuthToken,
		})
		creator = rest.Api
	}
	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetUrl(url)
	resp, err := creator.CreateCall(params)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonDialCreate)
	}
	if resp == nil || resp.Sid == nil {
		return "", fmt.Errorf("missing call sid")
	}
	return *resp.Sid, nil
}

func (d *Dialer) voiceWebhookURL() string {
	if d.cfg.PublicURL != "" {
		return normalizePublicURL(d.cfg.PublicURL, "https") + d.cfg.VoicePath
	}
	return "http://" + hostFromAddr(d.cfg.ServerAddr) + d.cfg.VoicePath
}
