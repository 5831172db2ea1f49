// Package binance fetches daily close prices from the Binance spot klines
// endpoint.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rxfeed/oracle/record"
	"github.com/rxfeed/oracle/source"
)

// DefaultBaseURL is Binance's public spot API endpoint.
const DefaultBaseURL = "https://api.binance.com"

const (
	interval  = "1d"
	pageLimit = 1000
)

// Client fetches 1d klines for a single symbol. It implements
// source.PriceSource.
type Client struct {
	baseURL    string
	symbol     string
	httpClient *http.Client

	// pause between pagination requests, to stay clear of rate limits
	pause time.Duration
}

// NewClient creates a klines client for symbol (e.g. "XRPUSDT"). An empty
// baseURL selects the public endpoint.
func NewClient(baseURL, symbol string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		symbol:  symbol,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		pause: 200 * time.Millisecond,
	}
}

// kline rows are heterogenous JSON arrays:
// [openTimeMs, open, high, low, close, volume, closeTimeMs, ...]
type kline []json.RawMessage

func (k kline) openTime() (int64, error) {
	if len(k) < 5 {
		return 0, fmt.Errorf("kline row has %d fields", len(k))
	}
	var ms int64
	if err := json.Unmarshal(k[0], &ms); err != nil {
		return 0, fmt.Errorf("kline open time: %w", err)
	}
	return ms, nil
}

func (k kline) closePrice() (float64, error) {
	var s string
	if err := json.Unmarshal(k[4], &s); err != nil {
		return 0, fmt.Errorf("kline close: %w", err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("kline close %q: %w", s, err)
	}
	return f, nil
}

// apiError is the JSON body Binance returns instead of a kline array.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// DailyCloses returns the map of ISO date → daily close for every date in
// [start, end] the exchange has a candle for. The klines endpoint caps each
// response at 1000 rows, so the client resumes from the last open time until
// the range is covered.
func (c *Client) DailyCloses(ctx context.Context, start, end string) (map[string]float64, error) {
	from, err := record.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := record.ParseDate(end)
	if err != nil {
		return nil, err
	}

	startMS := from.UnixMilli()
	endMS := to.UnixMilli()

	closes := map[string]float64{}

	for {
		rows, err := c.fetchPage(ctx, startMS, endMS)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		var lastOpen int64
		for _, row := range rows {
			openMS, err := row.openTime()
			if err != nil {
				return nil, fmt.Errorf("%w: binance: %v", source.ErrUnavailable, err)
			}
			price, err := row.closePrice()
			if err != nil {
				return nil, fmt.Errorf("%w: binance: %v", source.ErrUnavailable, err)
			}
			lastOpen = openMS

			day := time.UnixMilli(openMS).UTC()
			key := record.FormatDate(day)
			if key < start || key > end {
				continue
			}
			closes[key] = price
		}

		if lastOpen >= endMS || len(rows) < pageLimit {
			break
		}
		startMS = lastOpen + 1

		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}

	return closes, nil
}

func (c *Client) fetchPage(ctx context.Context, startMS, endMS int64) ([]kline, error) {
	params := url.Values{}
	params.Set("symbol", c.symbol)
	params.Set("interval", interval)
	params.Set("startTime", strconv.FormatInt(startMS, 10))
	params.Set("endTime", strconv.FormatInt(endMS, 10))
	params.Set("limit", strconv.Itoa(pageLimit))

	apiURL := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: binance: create request: %v", source.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: binance: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: binance: read response: %v", source.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: binance: status %d: %s", source.ErrUnavailable, resp.StatusCode, body)
	}

	var rows []kline
	if err := json.Unmarshal(body, &rows); err != nil {
		// Binance reports errors as a JSON object, not an array.
		var ae apiError
		if jerr := json.Unmarshal(body, &ae); jerr == nil && ae.Msg != "" {
			return nil, fmt.Errorf("%w: binance: api error %d: %s", source.ErrUnavailable, ae.Code, ae.Msg)
		}
		return nil, fmt.Errorf("%w: binance: decode response: %v", source.ErrUnavailable, err)
	}
	return rows, nil
}

func (c *Client) sleep(ctx context.Context) error {
	if c.pause <= 0 {
		return nil
	}
	select {
	case <-time.After(c.pause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
