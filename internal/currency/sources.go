package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

const (
	DefaultNBUURL             = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?json"
	DefaultExchangeRateAPIURL = "https://api.exchangerate-api.com/v4/latest/USD"

	maxBodySize = 1 << 20
)

// Source fetches a live rate table from one external service.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (Table, error)
}

// NBUSource reads the National Bank of Ukraine daily rates (UAH per unit).
type NBUSource struct {
	url    string
	client *http.Client
}

func NewNBUSource(url string, timeout time.Duration) *NBUSource {
	if url == "" {
		url = DefaultNBUURL
	}
	return &NBUSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *NBUSource) Name() string { return "nbu" }

type nbuEntry struct {
	Code string          `json:"cc"`
	Rate decimal.Decimal `json:"rate"`
}

func (s *NBUSource) Fetch(ctx context.Context) (Table, error) {
	body, err := getJSON(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	var entries []nbuEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode nbu payload: %w", err)
	}

	pivot := map[core.Currency]decimal.Decimal{core.UAH: decimal.NewFromInt(1)}
	for _, e := range entries {
		switch c := core.Currency(e.Code); c {
		case core.USD, core.EUR:
			pivot[c] = e.Rate
		}
	}
	return FromPivot(pivot)
}

// ExchangeRateAPISource reads USD-based rates from exchangerate-api.com.
type ExchangeRateAPISource struct {
	url    string
	client *http.Client
}

func NewExchangeRateAPISource(url string, timeout time.Duration) *ExchangeRateAPISource {
	if url == "" {
		url = DefaultExchangeRateAPIURL
	}
	return &ExchangeRateAPISource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *ExchangeRateAPISource) Name() string { return "exchangerate-api" }

type exchangeRateAPIPayload struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (s *ExchangeRateAPISource) Fetch(ctx context.Context) (Table, error) {
	body, err := getJSON(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	var payload exchangeRateAPIPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode exchangerate-api payload: %w", err)
	}

	quotes := map[core.Currency]decimal.Decimal{core.USD: decimal.NewFromInt(1)}
	for _, c := range []core.Currency{core.UAH, core.EUR} {
		if v, ok := payload.Rates[string(c)]; ok {
			quotes[c] = v
		}
	}
	return FromQuotes(quotes)
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
