// Package frankfurter fetches daily FX conversion rates from the Frankfurter
// time-series API. The feed publishes business days only; weekends and
// holidays are absent from the response, which is the contract the
// reconciliation engine's forward fill is built around.
package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rxfeed/oracle/record"
	"github.com/rxfeed/oracle/source"
)

// DefaultBaseURL is the public Frankfurter endpoint.
const DefaultBaseURL = "https://api.frankfurter.app"

// Client fetches from→to rates. It implements source.RateSource.
type Client struct {
	baseURL    string
	from       string
	to         string
	httpClient *http.Client
}

// NewClient creates a rate client for one currency pair, e.g. ("USD", "JPY").
// An empty baseURL selects the public endpoint.
func NewClient(baseURL, from, to string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		from:    from,
		to:      to,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// timeseriesResponse is the shape of GET /{start}..{end}:
// {"rates": {"2025-01-02": {"JPY": 150.1}, ...}, ...}
type timeseriesResponse struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

// Rates returns the map of ISO date → rate for every business day in
// [start, end].
func (c *Client) Rates(ctx context.Context, start, end string) (map[string]float64, error) {
	if _, err := record.ParseDate(start); err != nil {
		return nil, err
	}
	if _, err := record.ParseDate(end); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("from", c.from)
	params.Set("to", c.to)

	apiURL := fmt.Sprintf("%s/%s..%s?%s", c.baseURL, start, end, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: frankfurter: create request: %v", source.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: frankfurter: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: frankfurter: status %d: %s", source.ErrUnavailable, resp.StatusCode, body)
	}

	var ts timeseriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ts); err != nil {
		return nil, fmt.Errorf("%w: frankfurter: decode response: %v", source.ErrUnavailable, err)
	}

	out := make(map[string]float64, len(ts.Rates))
	for d, row := range ts.Rates {
		if rate, ok := row[c.to]; ok {
			out[d] = rate
		}
	}
	return out, nil
}
