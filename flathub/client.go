package flathub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/logger"
)

type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

func NewClient(cfg config.Config) *Client {
	env := cfg.GetEnv()
	return &Client{
		baseURL: cfg.GetCatalogApiUrl(),
		httpClient: &http.Client{
			Timeout: env.HttpTimeout,
		},
		retryAttempts: env.CollectionRetryAttempts,
		retryDelay:    env.CollectionRetryDelay,
	}
}

// FetchAppIDs returns the identifier list of the full catalog.
func (c *Client) FetchAppIDs(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/appstream", c.baseURL)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var appIDs []string
	if err := json.Unmarshal(body, &appIDs); err != nil {
		return nil, &ParseError{Err: err}
	}
	return appIDs, nil
}

// FetchAppDetail fetches one app's metadata. A failure here is a per-item
// failure, callers drop the item and continue.
func (c *Client) FetchAppDetail(ctx context.Context, appID string) (*AppRecord, error) {
	url := fmt.Sprintf("%s/appstream/%s", c.baseURL, appID)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseAppRecord(body)
}

// FetchCollection fetches a curated collection. A 404 means the collection
// does not exist upstream and yields an empty result, not an error.
func (c *Client) FetchCollection(ctx context.Context, name string) (*CollectionResult, error) {
	url := fmt.Sprintf("%s/collection/%s", c.baseURL, name)
	body, notFound, err := c.getWithRetry(ctx, url, true)
	if err != nil {
		return nil, err
	}
	if notFound {
		logger.Logger.Info().Str("collection", name).Msg("Collection endpoint not found, treating as empty")
		return &CollectionResult{AppIDs: []string{}}, nil
	}
	return parseCollection(body, false)
}

// FetchCategoryCollection fetches a category's membership collection. The
// response uses either "hits" or "apps" as the array key.
func (c *Client) FetchCategoryCollection(ctx context.Context, categoryID string) (*CollectionResult, error) {
	url := fmt.Sprintf("%s/collection/category/%s", c.baseURL, categoryID)
	body, _, err := c.getWithRetry(ctx, url, false)
	if err != nil {
		return nil, err
	}
	return parseCollection(body, true)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return body, nil
}

// getWithRetry retries on HTTP 500 with a fixed delay. retryAttempts of 0
// retries until success or a non-500 failure.
func (c *Client) getWithRetry(ctx context.Context, url string, emptyOnNotFound bool) (body []byte, notFound bool, err error) {
	attempt := 0
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, false, &TransportError{URL: url, Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, false, &TransportError{URL: url, Err: err}
		}

		if resp.StatusCode == http.StatusInternalServerError {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			attempt++
			if c.retryAttempts > 0 && attempt >= c.retryAttempts {
				return nil, false, &TransportError{URL: url, StatusCode: resp.StatusCode}
			}
			logger.Logger.Warn().
				Str("url", url).
				Int("attempt", attempt).
				Msg("Catalog API returned 500, retrying")

			select {
			case <-time.After(c.retryDelay):
				continue
			case <-ctx.Done():
				return nil, false, &TransportError{URL: url, Err: ctx.Err()}
			}
		}

		if emptyOnNotFound && resp.StatusCode == http.StatusNotFound {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, true, nil
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, false, &TransportError{URL: url, StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, false, &TransportError{URL: url, Err: err}
		}
		return body, false, nil
	}
}
