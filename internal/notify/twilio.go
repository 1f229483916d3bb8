package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TwilioConfig holds the credentials of a Twilio account.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// TwilioSender delivers SMS through the Twilio Messages API. Email is not supported.
type TwilioSender struct {
	cfg    TwilioConfig
	client *retryablehttp.Client
	log    *slog.Logger
}

func NewTwilioSender(cfg TwilioConfig, log *slog.Logger) *TwilioSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = log.With("component", "notify.twilio.http")

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &TwilioSender{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "notify.twilio"),
	}
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read twilio response: %w", err)
	}

	var msg twilioMessage
	_ = json.Unmarshal(raw, &msg)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg.Message != "" {
			return fmt.Errorf("twilio returned %d (code %d): %s", resp.StatusCode, msg.Code, msg.Message)
		}
		return fmt.Errorf("twilio returned %d", resp.StatusCode)
	}

	s.log.DebugContext(ctx, "sms accepted", "to", to, "sid", msg.SID, "status", msg.Status)
	return nil
}

func (s *TwilioSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return fmt.Errorf("twilio sender cannot deliver email to %s", to)
}
