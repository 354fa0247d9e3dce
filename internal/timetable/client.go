package timetable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://aviation-edge.com/v2/public/timetable"

const defaultTimeout = 10 * time.Second

var (
	// ErrRejected means the API answered with an explicit unsuccessful
	// response for the airport (e.g. no data subscription, unknown code).
	// Such airports are skipped for the run, not retried.
	ErrRejected = errors.New("timetable: upstream rejected request")

	// ErrMalformedPayload means the response body was not the expected
	// list-shaped payload. Treated as transient and retried.
	ErrMalformedPayload = errors.New("timetable: malformed payload")
)

// Client fetches per-airport timetables from the Aviation Edge API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client against the production API.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: defaultTimeout}}
}

// Arrivals fetches the arrival timetable for the given IATA code.
func (c *Client) Arrivals(ctx context.Context, iataCode string) ([]Entry, error) {
	return c.timetable(ctx, iataCode, "arrival")
}

func (c *Client) timetable(ctx context.Context, iataCode, flightType string) ([]Entry, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("iataCode", iataCode)
	q.Set("type", flightType)
	endpoint := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating timetable request for %s: %w", iataCode, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching timetable for %s: %w", iataCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timetable for %s: unexpected status %d", iataCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading timetable body for %s: %w", iataCode, err)
	}

	return decodePayload(iataCode, body)
}

// decodePayload distinguishes the three shapes the API produces: a list of
// entries, an explicit failure object, and anything else.
func decodePayload(iataCode string, body []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("timetable for %s: %w: empty body", iataCode, ErrMalformedPayload)
	}

	switch trimmed[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("timetable for %s: %w: %v", iataCode, ErrMalformedPayload, err)
		}
		return entries, nil
	case '{':
		var failure struct {
			Success *bool  `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &failure); err == nil {
			if (failure.Success != nil && !*failure.Success) || failure.Error != "" {
				return nil, fmt.Errorf("timetable for %s: %w: %s", iataCode, ErrRejected, failure.Error)
			}
		}
		return nil, fmt.Errorf("timetable for %s: %w: object payload", iataCode, ErrMalformedPayload)
	default:
		return nil, fmt.Errorf("timetable for %s: %w", iataCode, ErrMalformedPayload)
	}
}
