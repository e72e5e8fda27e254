// Package notification delivers templated alimtalk messages to patients
// through an external provider, asynchronously and with retries. Delivery
// is best effort: a lost message never fails or rolls back the ledger
// operation that triggered it.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// ErrMissingCredentials marks a permanent configuration failure; retrying
// cannot help.
var ErrMissingCredentials = errors.New("notification provider credentials are not configured")

// SendRequest is one templated message for one recipient.
type SendRequest struct {
	TemplateCode string
	Phone        string
	Message      string
}

// Provider submits a message and returns the provider-assigned message id
// used to correlate the delivery callback.
type Provider interface {
	Send(ctx context.Context, req SendRequest) (string, error)
}

type aligoResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Info    struct {
		MID json.Number `json:"mid"`
	} `json:"info"`
}

// AligoProvider talks to the aligo alimtalk HTTP API.
type AligoProvider struct {
	apiURL      string
	apiKey      string
	senderKey   string
	senderPhone string
	client      *http.Client
}

func NewAligoProvider(apiURL, apiKey, senderKey, senderPhone string) *AligoProvider {
	return &AligoProvider{
		apiURL:      apiURL,
		apiKey:      apiKey,
		senderKey:   senderKey,
		senderPhone: senderPhone,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *AligoProvider) Send(ctx context.Context, req SendRequest) (string, error) {
	if p.apiKey == "" || p.senderKey == "" {
		return "", ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("apikey", p.apiKey)
	form.Set("senderkey", p.senderKey)
	form.Set("sender", p.senderPhone)
	form.Set("tpl_code", req.TemplateCode)
	form.Set("receiver_1", req.Phone)
	form.Set("message_1", req.Message)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed aligoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding provider response: %w", err)
	}
	if parsed.Code != 0 {
		return "", fmt.Errorf("provider rejected message: code=%d message=%q", parsed.Code, parsed.Message)
	}
	return parsed.Info.MID.String(), nil
}

// FakeProvider records nothing and always succeeds. Used in test mode so
// development environments never reach the real API.
type FakeProvider struct {
	seq atomic.Int64
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

func (p *FakeProvider) Send(_ context.Context, _ SendRequest) (string, error) {
	return fmt.Sprintf("fake-%d", p.seq.Add(1)), nil
}
