package catalog

// AppProjection selects which column set a batch read returns, so list
// views never transfer icon blobs or long descriptions they don't need.
type AppProjection int

const (
	ProjectionMinimal AppProjection = iota
	ProjectionWithDescription
	ProjectionWithIcon
	ProjectionFull
)

var projectionColumns = map[AppProjection][]string{
	ProjectionMinimal:         {"app_id", "name", "summary", "install_ref", "icon_url", "icon_path"},
	ProjectionWithDescription: {"app_id", "name", "summary", "description", "install_ref", "icon_url", "icon_path"},
	ProjectionWithIcon:        {"app_id", "name", "summary", "install_ref", "icon_url", "icon_path", "icon_data"},
	ProjectionFull:            {"app_id", "name", "summary", "description", "install_ref", "icon_url", "icon_path", "icon_data", "metadata", "cached_at"},
}

func (p AppProjection) Columns() []string {
	columns, ok := projectionColumns[p]
	if !ok {
		return projectionColumns[ProjectionFull]
	}
	return columns
}

// Collection is a collection header joined with its ordered member ids.
type Collection struct {
	CategoryID string   `json:"category_id"`
	AppIDs     []string `json:"app_ids"`
	TotalHits  int64    `json:"total_hits"`
	CachedAt   int64    `json:"cached_at"`
}

// SearchResult is the trimmed app projection returned by the search path.
type SearchResult struct {
	AppID    string  `json:"app_id"`
	Name     *string `json:"name"`
	Summary  *string `json:"summary"`
	IconURL  *string `json:"icon_url"`
	IconPath *string `json:"icon_path"`
}
