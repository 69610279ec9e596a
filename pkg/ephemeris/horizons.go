package ephemeris

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultHorizonsURL is the public JPL Horizons API endpoint
const DefaultHorizonsURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// HorizonsConfig configures the Horizons client
type HorizonsConfig struct {
	BaseURL           string
	StepSize          string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
}

// DefaultHorizonsConfig returns settings matching the public API's etiquette
func DefaultHorizonsConfig() HorizonsConfig {
	return HorizonsConfig{
		BaseURL:           DefaultHorizonsURL,
		StepSize:          "2000",
		Timeout:           60 * time.Second,
		RetryMax:          3,
		RequestsPerSecond: 1,
	}
}

// HorizonsClient fetches vector tables from Horizons or a compatible proxy
type HorizonsClient struct {
	config  HorizonsConfig
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

// NewHorizonsClient creates a client with retries and request pacing
func NewHorizonsClient(config HorizonsConfig) *HorizonsClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultHorizonsURL
	}
	if config.StepSize == "" {
		config.StepSize = "2000"
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = config.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	if config.Timeout > 0 {
		rc.HTTPClient.Timeout = config.Timeout
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &HorizonsClient{
		config:  config,
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Query builds the vector-table request for one body between two dates
func (c *HorizonsClient) Query(id string, start, stop time.Time) url.Values {
	return url.Values{
		"format":     {"json"},
		"COMMAND":    {id},
		"OBJ_DATA":   {"YES"},
		"MAKE_EPHEM": {"YES"},
		"EPHEM_TYPE": {"VECTORS"},
		"CENTER":     {"@sun"},
		"REF_PLANE":  {"ECLIPTIC"},
		"COORD_TYPE": {"GEODETIC"},
		"VEC_TABLE":  {"2"},
		"VEC_LABELS": {"YES"},
		"CSV_FORMAT": {"YES"},
		"OUT_UNITS":  {"AU-D"},
		"STEP_SIZE":  {c.config.StepSize},
		"START_TIME": {start.UTC().Format("2006-01-02")},
		"STOP_TIME":  {stop.UTC().Format("2006-01-02")},
	}
}

// Get performs a raw request against the configured endpoint and returns
// the body and upstream status code
func (c *HorizonsClient) Get(ctx context.Context, params url.Values) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	target := c.config.BaseURL
	if strings.Contains(target, "?") {
		target += "&" + params.Encode()
	} else {
		target += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query horizons: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// Fetch implements Source
func (c *HorizonsClient) Fetch(ctx context.Context, id string, start, stop time.Time) (Series, error) {
	data, status, err := c.Get(ctx, c.Query(id, start, stop))
	if err != nil {
		return Empty(), err
	}
	if status != http.StatusOK {
		return Empty(), fmt.Errorf("horizons returned status %d for body %s", status, id)
	}

	text, err := DecodeHorizonsJSON(data)
	if err != nil {
		return Empty(), err
	}
	return ParseHorizons(text)
}

// Name implements Source
func (c *HorizonsClient) Name() string {
	return "horizons"
}
