package constants

// shared constants used by multiple packages

const (
	COLLECTION_POPULAR          = "popular"
	COLLECTION_TRENDING         = "trending"
	COLLECTION_RECENTLY_UPDATED = "recently-updated"
)

func GetCuratedCollections() []string {
	return []string{
		COLLECTION_POPULAR,
		COLLECTION_TRENDING,
		COLLECTION_RECENTLY_UPDATED,
	}
}

// static topical categories; the remote API only serves their membership
// collections, never the list itself
var Categories = []struct {
	ID   string
	Name string
}{
	{"AudioVideo", "Audio & Video"},
	{"Development", "Development"},
	{"Education", "Education"},
	{"Game", "Games"},
	{"Graphics", "Graphics"},
	{"Network", "Network"},
	{"Office", "Office"},
	{"Science", "Science"},
	{"System", "System"},
	{"Utility", "Utility"},
}

func GetCategoryIDs() []string {
	ids := make([]string, 0, len(Categories))
	for _, category := range Categories {
		ids = append(ids, category.ID)
	}
	return ids
}

// number of app detail fetches issued concurrently per catalog chunk
const APPS_PER_PAGE = 250

const (
	SYNC_STAGE_FETCHING_APPS        = "fetching_apps"
	SYNC_STAGE_FETCHING_COLLECTIONS = "fetching_collections"
	SYNC_STAGE_COMPLETE             = "complete"
	SYNC_STAGE_ERROR                = "error"
)

const (
	HOMEPAGE_COLLECTION_LIMIT = 8
	COLLECTION_APPS_LIMIT     = 24
	SEARCH_RESULT_LIMIT       = 100
)

const APP_IDENTIFIER = "softwarehub"
