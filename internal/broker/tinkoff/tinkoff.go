// Package tinkoff talks to the Tinkoff Invest API through its REST gateway.
//
// Every RPC is a POST of a JSON message to
// <base>/tinkoff.public.invest.api.contract.v1.<Service>/<Method>.
package tinkoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tinkoff-invest-bot/internal/api"
	"tinkoff-invest-bot/internal/interfaces"
)

const (
	servicePrefix = "/tinkoff.public.invest.api.contract.v1."

	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"
)

var (
	ErrEmptyInstrumentList = errors.New("instrument list must be non-empty")
	ErrMissingCredentials  = errors.New("missing API token/account id")
)

type Params struct {
	Mode          string
	Token         string
	AccountID     string
	BaseURL       string
	Sandbox       bool
	AppName       string
	Currency      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
}

type Tinkoff struct {
	p      Params
	client *api.Client
}

var _ interfaces.Broker = (*Tinkoff)(nil)

func New(p Params) *Tinkoff {
	if p.Currency == "" {
		p.Currency = "RUB"
	}
	opts := []api.ClientOption{
		api.WithBaseURL(p.BaseURL),
		api.WithTimeout(p.Timeout),
		api.WithRateLimit(p.RatePerSecond, p.Burst),
		api.WithHeader("Accept", "application/json"),
		api.WithLogging(true),
	}
	if p.Token != "" {
		opts = append(opts, api.WithHeader("Authorization", "Bearer "+p.Token))
	}
	if p.AppName != "" {
		opts = append(opts, api.WithHeader("x-app-name", p.AppName))
	}
	if p.MaxRetries > 0 {
		retry := api.DefaultRetryConfig()
		retry.MaxAttempts = p.MaxRetries
		opts = append(opts, api.WithRetry(retry))
	}
	return &Tinkoff{p: p, client: api.NewClient(opts...)}
}

// APIError is a non-2xx gateway reply. Code is the gRPC status code.
type APIError struct {
	Status      int
	Code        int
	Message     string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invest api: status %d code %d: %s (%s)", e.Status, e.Code, e.Message, e.Description)
	}
	return fmt.Sprintf("invest api: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// call posts in to Service/Method and decodes the reply into out.
func (t *Tinkoff) call(ctx context.Context, service, method string, in, out any) error {
	if t.p.Token == "" {
		return ErrMissingCredentials
	}
	resp, err := t.client.POST(ctx, servicePrefix+service+"/"+method, in)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			return decodeAPIError(httpErr)
		}
		return fmt.Errorf("%s/%s: %w", service, method, err)
	}
	if out == nil {
		return nil
	}
	if err := resp.ParseJSON(out); err != nil {
		return fmt.Errorf("%s/%s: %w", service, method, err)
	}
	return nil
}

func decodeAPIError(e *api.HTTPError) error {
	var body struct {
		Code        int    `json:"code"`
		Message     string `json:"message"`
		Description string `json:"description"`
	}
	apiErr := &APIError{Status: e.StatusCode}
	if json.Unmarshal(e.Body, &body) == nil {
		apiErr.Code, apiErr.Message, apiErr.Description = body.Code, body.Message, body.Description
	}
	if apiErr.Message == "" {
		apiErr.Message = string(e.Body)
	}
	return apiErr
}

func (t *Tinkoff) requireAccount() error {
	if t.p.Token == "" || t.p.AccountID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Mode is DRY_RUN or LIVE.
func (t *Tinkoff) Mode() string { return t.p.Mode }
