// Package blsapi implements the government index client against the BLS
// public timeseries API (v2).
package blsapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

const statusSucceeded = "REQUEST_SUCCEEDED"

type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

var _ benchmark.IndexClient = (*Client)(nil)

// NewClient builds a BLS API client. The api key is optional; registered
// keys get higher rate limits.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	http := resty.New()
	http.SetTimeout(timeout)
	http.SetHeader("Content-Type", "application/json")

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    http,
	}
}

// ObservationsSince fetches the monthly observations for a series that
// are strictly newer than since. A nil since fetches the current and
// previous calendar year. Annual-average periods (M13) are dropped.
func (c *Client) ObservationsSince(ctx context.Context, seriesID string,
	since *benchmark.YearMonth) ([]benchmark.IndexObservation, error) {

	now := time.Now().UTC()
	startYear := now.Year() - 1
	if since != nil {
		startYear = since.Year
	}

	payload := request{
		SeriesID:        []string{seriesID},
		StartYear:       strconv.Itoa(startYear),
		EndYear:         strconv.Itoa(now.Year()),
		RegistrationKey: c.apiKey,
	}

	var envelope response
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&envelope).
		Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bls request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bls returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if envelope.Status != statusSucceeded {
		return nil, fmt.Errorf("bls request not successful: %s %v", envelope.Status, envelope.Message)
	}

	var out []benchmark.IndexObservation
	for _, s := range envelope.Results.Series {
		for _, d := range s.Data {
			obs, ok, err := parseDataPoint(s.SeriesID, d)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if since != nil && !obs.Period.After(*since) {
				continue
			}
			out = append(out, obs)
		}
	}

	return out, nil
}

// parseDataPoint converts one BLS data point; ok is false for
// non-monthly periods.
func parseDataPoint(seriesID string, d dataPoint) (benchmark.IndexObservation, bool, error) {
	month, ok := monthlyPeriod(d.Period)
	if !ok {
		return benchmark.IndexObservation{}, false, nil
	}

	year, err := strconv.Atoi(d.Year)
	if err != nil {
		return benchmark.IndexObservation{}, false, fmt.Errorf("parse year %q: %w", d.Year, err)
	}
	value, err := strconv.ParseFloat(d.Value, 64)
	if err != nil {
		return benchmark.IndexObservation{}, false, fmt.Errorf("parse value %q: %w", d.Value, err)
	}

	return benchmark.IndexObservation{
		SeriesID: seriesID,
		Period:   benchmark.YearMonth{Year: year, Month: month},
		Value:    value,
	}, true, nil
}

// monthlyPeriod maps "M01".."M12" to a month; "M13" (annual average) and
// quarterly/semiannual codes are not monthly.
func monthlyPeriod(period string) (time.Month, bool) {
	if len(period) != 3 || period[0] != 'M' {
		return 0, false
	}
	n, err := strconv.Atoi(period[1:])
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}
