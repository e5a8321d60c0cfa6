// Package directions estimates travel time between two addresses with the Google
// Directions API.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

var (
	ErrUnavailable = errors.New("directions: travel time unavailable")
	ErrDisabled    = errors.New("directions: no API key configured")
)

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Duration          *textValue `json:"duration"`
			DurationInTraffic *textValue `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// Client calls the Directions API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

// EstimateTravelTime returns the current driving time as display text, preferring
// the traffic-aware estimate.
func (c *Client) EstimateTravelTime(ctx context.Context, origin, destination string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if origin == "" || destination == "" {
		return "", fmt.Errorf("%w: origin and destination are required", ErrUnavailable)
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("departure_time", "now")
	q.Set("traffic_model", "best_guess")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if body.Status != "OK" || len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		c.logger.Debug("directions lookup failed", zap.String("status", body.Status), zap.String("message", body.ErrorMessage))
		return "", fmt.Errorf("%w: status %s", ErrUnavailable, body.Status)
	}

	leg := body.Routes[0].Legs[0]
	switch {
	case leg.DurationInTraffic != nil && leg.DurationInTraffic.Text != "":
		return leg.DurationInTraffic.Text, nil
	case leg.Duration != nil && leg.Duration.Text != "":
		return leg.Duration.Text, nil
	}
	return "", fmt.Errorf("%w: route has no duration", ErrUnavailable)
}
