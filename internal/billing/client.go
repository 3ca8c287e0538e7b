// Package billing fetches the live subscription total from the external
// billing provider and normalizes every billed line item to its
// monthly-equivalent value.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"revpulse/internal/core"
)

const (
	defaultPageSize    = 100
	defaultMaxPages    = 1000
	defaultPageTimeout = 5 * time.Second
)

// LiveTotal is the aggregate of one successful fetch cycle.
type LiveTotal struct {
	MRRCents          int64
	SubscriptionCount int
}

// Fetcher is the upstream-facing contract consumed by the reconciler.
type Fetcher interface {
	FetchLiveMonthlyTotal(ctx context.Context, key string) (LiveTotal, error)
}

// Client pages through the provider's active subscriptions with bearer-token
// auth. Transient failures are retried per page; anything that survives the
// retries abandons the fetch.
type Client struct {
	baseURL     string
	http        *retryablehttp.Client
	pageSize    int
	maxPages    int
	pageTimeout time.Duration
}

var _ Fetcher = (*Client)(nil)

func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:     baseURL,
		http:        rc,
		pageSize:    defaultPageSize,
		maxPages:    defaultMaxPages,
		pageTimeout: defaultPageTimeout,
	}
}

// Wire types, transient per fetch cycle.
type (
	subscriptionPage struct {
		Data    []subscription `json:"data"`
		HasMore bool           `json:"has_more"`
	}

	subscription struct {
		ID    string     `json:"id"`
		Items []lineItem `json:"items"`
	}

	lineItem struct {
		Quantity int64 `json:"quantity"`
		Price    struct {
			UnitAmount int64 `json:"unit_amount"`
			Recurring  struct {
				Interval      string `json:"interval"`
				IntervalCount int64  `json:"interval_count"`
			} `json:"recurring"`
		} `json:"price"`
	}
)

// FetchLiveMonthlyTotal walks every page of active subscriptions and returns
// the monthly-equivalent sum across all line items. The result is all-or-
// nothing: a failure on any page returns an error and no partial sum.
func (c *Client) FetchLiveMonthlyTotal(ctx context.Context, key string) (LiveTotal, error) {
	if key == "" {
		return LiveTotal{}, ErrMissingKey
	}

	var (
		total  LiveTotal
		cursor string
	)

	for page := 1; ; page++ {
		if page > c.maxPages {
			return LiveTotal{}, fmt.Errorf("%w: aborted after %d pages", ErrTooManyPages, c.maxPages)
		}

		resp, err := c.fetchPage(ctx, key, cursor)
		if err != nil {
			return LiveTotal{}, fmt.Errorf("%w: page %d: %v", ErrUpstreamUnavailable, page, err)
		}

		for _, sub := range resp.Data {
			subTotal, err := normalizeSubscription(sub)
			if err != nil {
				return LiveTotal{}, fmt.Errorf("%w: subscription %s: %v", ErrUpstreamUnavailable, sub.ID, err)
			}
			total.MRRCents += subTotal
			total.SubscriptionCount++
		}

		if !resp.HasMore {
			break
		}
		if len(resp.Data) == 0 {
			// has_more with an empty page means a broken cursor chain.
			return LiveTotal{}, fmt.Errorf("%w: empty page with has_more set", ErrUpstreamUnavailable)
		}
		cursor = resp.Data[len(resp.Data)-1].ID

		slog.DebugContext(ctx, "Fetched billing page",
			"page", page,
			"subscriptions", len(resp.Data),
			"next_cursor", cursor)
	}

	return total, nil
}

func (c *Client) fetchPage(ctx context.Context, key, cursor string) (*subscriptionPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("status", "active")
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("starting_after", cursor)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/subscriptions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request subscriptions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var pageResp subscriptionPage
	if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &pageResp, nil
}

func normalizeSubscription(sub subscription) (int64, error) {
	var total int64
	for _, item := range sub.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		count := item.Price.Recurring.IntervalCount
		if count == 0 {
			count = 1
		}
		monthly, err := core.MonthlyCents(core.LineItem{
			UnitAmount:    item.Price.UnitAmount,
			Quantity:      qty,
			Interval:      core.Interval(item.Price.Recurring.Interval),
			IntervalCount: count,
		})
		if err != nil {
			return 0, err
		}
		total += monthly
	}
	return total, nil
}
