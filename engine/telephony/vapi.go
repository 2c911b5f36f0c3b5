// Package telephony places outbound assistant calls through Vapi.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.vapi.ai"
	DefaultTimeout = 15 * time.Second

	defaultCustomerName  = "Customer"
	defaultFailureReason = "Failed to initiate call"
	metadataSource       = "contact_form"
	isoMillis            = "2006-01-02T15:04:05.000Z07:00"
)

// ErrNotConfigured means no private API key is available.
var ErrNotConfigured = errors.New("telephony: vapi private key is not configured")

// ProviderError carries a non-2xx answer from Vapi.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vapi rejected call (%d): %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL     string
	PrivateKey  string
	AssistantID string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type CallRequest struct {
	PhoneNumber  string
	CustomerName string
	Metadata     map[string]any
}

type CallResult struct {
	CallID string `json:"callId"`
	Status string `json:"status"`
}

type Client struct {
	rest        *resty.Client
	assistantID string
	configured  bool
	now         func() time.Time
}

func NewClient(cfg Config) *Client {
	var rest *resty.Client
	if cfg.HTTPClient != nil {
		rest = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rest = resty.New()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rest.SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.PrivateKey)
	return &Client{
		rest:        rest,
		assistantID: cfg.AssistantID,
		configured:  cfg.PrivateKey != "",
		now:         time.Now,
	}
}

func (c *Client) Configured() bool { return c.configured }

// StartCall asks Vapi to dial req.PhoneNumber. Caller metadata overrides the
// source and timestamp defaults.
func (c *Client) StartCall(ctx context.Context, req CallRequest) (CallResult, error) {
	if !c.configured {
		return CallResult{}, ErrNotConfigured
	}
	name := req.CustomerName
	if name == "" {
		name = defaultCustomerName
	}
	metadata := map[string]any{
		"source":    metadataSource,
		"timestamp": c.now().UTC().Format(isoMillis),
	}
	maps.Copy(metadata, req.Metadata)
	body := map[string]any{
		"assistantId": c.assistantID,
		"phoneNumber": req.PhoneNumber,
		"customer":    map[string]any{"name": name},
		"metadata":    metadata,
	}
	resp, err := c.rest.R().SetContext(ctx).SetBody(body).Post("/call/phone")
	if err != nil {
		return CallResult{}, fmt.Errorf("telephony: call request failed: %w", err)
	}
	payload := resp.Body()
	if resp.IsError() {
		msg := gjson.GetBytes(payload, "message").String()
		if msg == "" {
			msg = defaultFailureReason
		}
		return CallResult{}, &ProviderError{StatusCode: resp.StatusCode(), Message: msg}
	}
	if !gjson.ValidBytes(payload) {
		return CallResult{}, fmt.Errorf("telephony: unexpected response body from vapi")
	}
	return CallResult{
		CallID: gjson.GetBytes(payload, "id").String(),
		Status: gjson.GetBytes(payload, "status").String(),
	}, nil
}
