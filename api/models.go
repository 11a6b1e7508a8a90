package api

import (
	"github.com/blossom-os/softwarehub/catalog"
)

type App struct {
	AppID       string  `json:"app_id"`
	Name        *string `json:"name"`
	Summary     *string `json:"summary"`
	Description *string `json:"description,omitempty"`
	InstallRef  string  `json:"install_ref"`
	IconURL     *string `json:"icon_url"`
	IconPath    *string `json:"icon_path"`
	HasIcon     bool    `json:"has_icon"`
	CachedAt    int64   `json:"cached_at,omitempty"`
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CachedAt int64  `json:"cached_at"`
}

type CollectionResponse struct {
	CategoryID string   `json:"category_id"`
	AppIDs     []string `json:"app_ids"`
	TotalHits  int64    `json:"total_hits"`
	CachedAt   int64    `json:"cached_at"`
}

type CollectionWithAppsResponse struct {
	Collection CollectionResponse `json:"collection"`
	Apps       []App              `json:"apps"`
}

type CollectionPageResponse struct {
	Apps  []App `json:"apps"`
	Total int64 `json:"total"`
}

type HomepageResponse struct {
	Popular         []App `json:"popular"`
	Trending        []App `json:"trending"`
	RecentlyUpdated []App `json:"recently_updated"`
}

type SearchResponse struct {
	Results []catalog.SearchResult `json:"results"`
}

type IconResponse struct {
	AppID   string `json:"app_id"`
	DataURL string `json:"data_url,omitempty"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

type SyncRequest struct {
	ClearCache bool `json:"clear_cache"`
}

type GetLogOutputRequest struct {
	MaxLen int `query:"maxLen"`
}

type GetLogOutputResponse struct {
	Log string `json:"logs"`
}
