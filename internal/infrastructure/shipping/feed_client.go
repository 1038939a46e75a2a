package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// Feed client error sentinels. Network and upstream failures wrap the
// transient taxonomy so the reconciler treats them as retryable.
var (
	ErrFeedUnavailable     = fmt.Errorf("%w: inventory feed unavailable", shared.ErrTransientInfra)
	ErrFeedRequestFailed   = fmt.Errorf("%w: inventory feed request failed", shared.ErrTransientInfra)
	ErrFeedInvalidResponse = errors.New("inventory feed returned an invalid response")
)

// FeedClientConfig holds the remote inventory feed settings
type FeedClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FeedClient pulls paginated inventory records from the remote fulfillment
// system over HTTP. It implements fulfillment.InventoryFeed.
type FeedClient struct {
	config     FeedClientConfig
	httpClient *http.Client
}

// NewFeedClient creates a new feed client with a hard request timeout
func NewFeedClient(config FeedClientConfig) *FeedClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FeedClient{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchPage fetches one page of inventory records. Pages are 1-based; a page
// shorter than pageSize tells the caller the feed is exhausted.
func (c *FeedClient) FetchPage(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]fulfillment.FeedRecord, error) {
	endpoint, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("feed: invalid base url: %w", err)
	}
	endpoint = endpoint.JoinPath("inventory")

	query := endpoint.Query()
	query.Set("tenant_id", tenantID.String())
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFeedRequestFailed, resp.StatusCode)
	}

	var records []fulfillment.FeedRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedInvalidResponse, err)
	}
	return records, nil
}
