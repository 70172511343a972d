package rates

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"budgetbot/internal/model/customerr"
)

const (
	baseParam      = "base"
	relativesParam = "symbols"

	defaultTimeoutSeconds = 10
)

type config interface {
	ApiKey() string
	BaseURL() string
	TimeoutSeconds() int64
}

// Client asks an external fixer-style service for exchange rates. Every
// failure mode maps to customerr.ErrRateLookupFailed so callers can treat
// the lookup as one fallible step.
type Client struct {
	apiKey string
	url    string
	client *http.Client
}

type ratesResponse struct {
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Success bool               `json:"success"`
}

func New(cfg config) *Client {
	timeout := cfg.TimeoutSeconds()
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	return &Client{
		apiKey: cfg.ApiKey(),
		url:    cfg.BaseURL(),
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// BaseRate returns the price of one unit of the base currency in the target
// currency.
func (c *Client) BaseRate(ctx context.Context, base, code string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "building request: %v", err)
	}

	req.Header.Set("apikey", c.apiKey)
	q := req.URL.Query()
	q.Add(baseParam, base)
	q.Add(relativesParam, code)
	req.URL.RawQuery = q.Encode()

	res, err := c.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "requesting rates: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "rate service returned %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "reading response: %v", err)
	}

	var rates ratesResponse
	if err = json.Unmarshal(body, &rates); err != nil {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "unmarshalling response: %v", err)
	}
	if !rates.Success {
		return 0, errors.Wrap(customerr.ErrRateLookupFailed, "rate service reported failure")
	}

	rate, ok := rates.Rates[code]
	if !ok {
		return 0, errors.Wrapf(customerr.ErrRateLookupFailed, "no rate for %s in response", code)
	}
	return rate, nil
}
