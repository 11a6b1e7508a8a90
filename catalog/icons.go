package catalog

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/flathub"
)

// IconCache downloads and persists icon blobs keyed by app id, layered on
// the Store. Downloads are deduplicated: an app with a cached icon is
// never fetched again.
type IconCache struct {
	store      *Store
	httpClient *http.Client
}

func NewIconCache(store *Store, cfg config.Config) *IconCache {
	return &IconCache{
		store: store,
		httpClient: &http.Client{
			Timeout: cfg.GetEnv().HttpTimeout,
		},
	}
}

// EnsureIconCached downloads and stores the app's icon unless a blob is
// already present. Returns false without touching the network when the
// icon was already cached.
func (c *IconCache) EnsureIconCached(ctx context.Context, appID string, iconURL string) (bool, error) {
	hasIcon, err := c.store.HasIconData(appID)
	if err != nil {
		return false, err
	}
	if hasIcon {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return false, &flathub.TransportError{URL: iconURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &flathub.TransportError{URL: iconURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &flathub.TransportError{URL: iconURL, StatusCode: resp.StatusCode}
	}

	iconBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &flathub.TransportError{URL: iconURL, Err: err}
	}

	if err := c.store.SetIconData(appID, iconBytes); err != nil {
		return false, err
	}
	return true, nil
}

// IconDataURL returns the stored icon as a self-describing data URL, or
// empty when no icon is cached.
func (c *IconCache) IconDataURL(appID string) (string, error) {
	data, err := c.store.GetIconData(appID)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	return encodeIconDataURL(data), nil
}

// IconDataURLBatch returns one entry per requested id, empty string for
// apps without a cached icon.
func (c *IconCache) IconDataURLBatch(appIDs []string) ([]string, error) {
	icons, err := c.store.GetIconDataBatch(appIDs)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(appIDs))
	for _, appID := range appIDs {
		if data, ok := icons[appID]; ok {
			result = append(result, encodeIconDataURL(data))
		} else {
			result = append(result, "")
		}
	}
	return result, nil
}

// encodeIconDataURL sniffs the blob's leading bytes against known image
// signatures, defaulting to PNG when unrecognized.
func encodeIconDataURL(data []byte) string {
	mime := "image/png"
	switch {
	case len(data) > 4 && bytes.Equal(data[0:4], []byte("\x89PNG")):
		mime = "image/png"
	case len(data) > 2 && bytes.Equal(data[0:2], []byte("\xff\xd8")):
		mime = "image/jpeg"
	case len(data) > 4 && bytes.EqualFold(data[1:4], []byte("svg")):
		mime = "image/svg+xml"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
