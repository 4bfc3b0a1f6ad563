package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFrankfurterURL is the public Frankfurter API.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// FrankfurterClient fetches ECB reference rates from the Frankfurter API.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
}

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurterClient creates a Frankfurter API client.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultFrankfurterURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &FrankfurterClient{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Rate returns the latest rate from fromCurrency to toCurrency.
func (c *FrankfurterClient) Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error) {
	from := normalizeCurrency(fromCurrency)
	to := normalizeCurrency(toCurrency)
	if from == "" || to == "" {
		return Rate{}, errCurrencyRequired
	}
	if from == to {
		return identityRate(from), nil
	}

	endpoint := fmt.Sprintf("%s/latest?from=%s&to=%s", c.baseURL, url.QueryEscape(from), url.QueryEscape(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to create rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to request rate %s->%s: %w", from, to, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("exchange API returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload frankfurterResponse
	if err := decoder.Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return Rate{}, errRateMissing
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if err := validateConversionRate(value); err != nil {
		return Rate{}, err
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to parse rate date: %w", err)
	}

	return Rate{From: from, To: to, Value: value, Date: date}, nil
}
