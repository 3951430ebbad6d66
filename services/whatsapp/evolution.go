// Package whatsappsvc delivers text messages through an Evolution API instance.
package whatsappsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/notification"
)

const (
	countryCode    = "55"
	requestTimeout = 30 * time.Second
)

var ErrNotConfigured = errors.New("Evolution API não configurada corretamente")

type EvolutionService struct {
	url      string
	apiKey   string
	instance string
	client   *rest.Client
	logger   core.Logger
}

var _ notification.Sender = (*EvolutionService)(nil)

func NewEvolutionService(conf *core.Config, logger core.Logger) *EvolutionService {
	c := conf.WhatsApp
	if c.URL == "" || c.APIKey == "" || c.Instance == "" {
		logger.Warn("Evolution API is not fully configured")
	}
	return &EvolutionService{
		url:      strings.TrimRight(c.URL, "/"),
		apiKey:   c.APIKey,
		instance: c.Instance,
		client:   &rest.Client{HTTPClient: &http.Client{Timeout: requestTimeout}},
		logger:   logger,
	}
}

type sendTextBody struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

func (svc *EvolutionService) SendText(ctx context.Context, phone, text string) error {
	if svc.url == "" || svc.apiKey == "" || svc.instance == "" {
		return ErrNotConfigured
	}

	number := FormatPhone(phone)
	body, err := json.Marshal(sendTextBody{Number: number, Text: text})
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}

	res, err := svc.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url + "/message/sendText/" + svc.instance,
		Headers: map[string]string{
			"apikey":       svc.apiKey,
			"Content-Type": "application/json",
		},
		Body: body,
	})
	if err != nil {
		return errors.Wrapf(err, "sending message to %s", number)
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return errors.Errorf("sending message to %s - status: %d - body: %s", number, res.StatusCode, res.Body)
	}

	svc.logger.Debug("whatsapp message sent", map[string]interface{}{"number": number})
	return nil
}

// FormatPhone normalizes a Brazilian phone number to 55DDDNUMBER.
// Numbers that fit no known shape are returned as digits only.
func FormatPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, countryCode) && len(digits) >= 12:
		return digits
	case len(digits) == 10 || len(digits) == 11:
		return countryCode + digits
	default:
		return digits
	}
}
