package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyFeed marks a well-formed response that carried zero records.
	ErrEmptyFeed = errors.New("feed returned no data")
	// ErrMalformedFeed marks a response whose shape or values could not be
	// interpreted. An unparsable price lands here rather than being coerced
	// to zero, which would spuriously satisfy buy-side rules.
	ErrMalformedFeed = errors.New("feed response malformed")
)

// FeedOptions parameterise the gold price feed client.
type FeedOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Feed fetches the current gold price over HTTP.
type Feed struct {
	opts   FeedOptions
	logger zerolog.Logger
	client *http.Client
}

// NewFeed constructs a feed client with a bounded request timeout.
func NewFeed(opts FeedOptions, logger zerolog.Logger) *Feed {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Feed{
		opts:   opts,
		logger: logger.With().Str("component", "feed").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type feedResponse struct {
	Status int64       `json:"status"`
	Data   []feedEntry `json:"data"`
}

type feedEntry struct {
	CurPrice string `json:"CurPrice"`
	Variety  string `json:"Variety"`
}

// FetchPrice issues a single request against the feed and parses data[0]
// into a snapshot. No retry happens here; the poll interval is the retry
// cadence.
func (f *Feed) FetchPrice(ctx context.Context, code string) (PriceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.URL, nil)
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("read feed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return PriceSnapshot{}, fmt.Errorf("%w: unexpected status %d", ErrMalformedFeed, resp.StatusCode)
	}

	var parsed feedResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return PriceSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	if len(parsed.Data) == 0 {
		return PriceSnapshot{}, ErrEmptyFeed
	}

	entry := parsed.Data[0]
	price, err := decimal.NewFromString(strings.TrimSpace(entry.CurPrice))
	if err != nil {
		return PriceSnapshot{}, fmt.Errorf("%w: parse CurPrice %q: %v", ErrMalformedFeed, entry.CurPrice, err)
	}

	variety := entry.Variety
	if variety == "" {
		variety = code
	}

	f.logger.Debug().
		Str("code", variety).
		Str("price", price.String()).
		Msg("feed snapshot fetched")

	return PriceSnapshot{
		Code:         variety,
		CurrentPrice: price,
		FetchedAt:    time.Now(),
	}, nil
}

var _ PriceFetcher = (*Feed)(nil)
