package catalog

import (
	"errors"
	"time"

	"github.com/blossom-os/softwarehub/constants"
	"github.com/blossom-os/softwarehub/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store owns all persisted catalog state. Every multi-row logical update
// runs in one transaction so readers never observe a partially-applied
// replace.
type Store struct {
	db *gorm.DB
}

func NewStore(gormDB *gorm.DB) *Store {
	return &Store{
		db: gormDB,
	}
}

// upserts exclude icon_data: icon bytes are only written by the icon cache
// and must survive metadata refreshes untouched
var appUpsertColumns = []string{
	"name", "summary", "description", "install_ref", "icon_url", "icon_path", "metadata", "cached_at",
}

// UpsertApps replaces-or-inserts each record inside one transaction. A
// write fully replaces the row's non-blob fields, never partial-patches.
func (s *Store) UpsertApps(apps []db.CachedApp) error {
	if len(apps) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "app_id"}},
			DoUpdates: clause.AssignmentColumns(appUpsertColumns),
		}).Create(&apps).Error
	})
}

// ReplaceCategories regenerates the static category set: delete-all then
// insert-all in one transaction.
func (s *Store) ReplaceCategories(categories []db.CachedCategory) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM categories").Error; err != nil {
			return err
		}
		if len(categories) == 0 {
			return nil
		}
		return tx.Create(&categories).Error
	})
}

// ReplaceCollection upserts the collection header and fully replaces its
// ordered membership list. Partial membership overwrite is never valid
// because stale positions would corrupt ordering.
func (s *Store) ReplaceCollection(categoryID string, appIDs []string, totalHits int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		header := db.CachedCategoryCollection{
			CategoryID: categoryID,
			TotalHits:  totalHits,
			CachedAt:   time.Now().Unix(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_hits", "cached_at"}),
		}).Create(&header).Error
		if err != nil {
			return err
		}

		err = tx.Exec("DELETE FROM category_collection_apps WHERE category_id = ?", categoryID).Error
		if err != nil {
			return err
		}

		if len(appIDs) == 0 {
			return nil
		}

		members := make([]db.CategoryCollectionApp, 0, len(appIDs))
		for position, appID := range appIDs {
			members = append(members, db.CategoryCollectionApp{
				CategoryID: categoryID,
				AppID:      appID,
				Position:   int64(position),
			})
		}
		return tx.Create(&members).Error
	})
}

func (s *Store) GetApp(appID string) (*db.CachedApp, error) {
	var app db.CachedApp
	err := s.db.First(&app, "app_id = ?", appID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetAppsBatch fetches the given apps with the requested projection. The
// returned slice follows appIDs order; ids with no cached row are dropped.
func (s *Store) GetAppsBatch(appIDs []string, projection AppProjection) ([]db.CachedApp, error) {
	if len(appIDs) == 0 {
		return []db.CachedApp{}, nil
	}

	var apps []db.CachedApp
	err := s.db.
		Select(projection.Columns()).
		Where("app_id IN ?", appIDs).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	return orderByIDs(apps, appIDs), nil
}

func (s *Store) ListApps() ([]db.CachedApp, error) {
	var apps []db.CachedApp
	err := s.db.Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// ListCategories returns the static category set ordered by display name.
// Rows outside the known set are ignored.
func (s *Store) ListCategories() ([]db.CachedCategory, error) {
	var categories []db.CachedCategory
	err := s.db.
		Where("id IN ?", constants.GetCategoryIDs()).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCollection returns the collection header with all member ids in
// position order, or nil when the collection was never cached.
func (s *Store) GetCollection(categoryID string) (*Collection, error) {
	var header db.CachedCategoryCollection
	err := s.db.First(&header, "category_id = ?", categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	appIDs, err := s.collectionAppIDs(categoryID, 0, 0)
	if err != nil {
		return nil, err
	}

	return &Collection{
		CategoryID: header.CategoryID,
		AppIDs:     appIDs,
		TotalHits:  header.TotalHits,
		CachedAt:   header.CachedAt,
	}, nil
}

// GetCollectionWithApps returns the header plus the first limit member
// apps joined against the apps table.
func (s *Store) GetCollectionWithApps(categoryID string, limit int) (*Collection, []db.CachedApp, error) {
	var header db.CachedCategoryCollection
	err := s.db.First(&header, "category_id = ?", categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	appIDs, err := s.collectionAppIDs(categoryID, limit, 0)
	if err != nil {
		return nil, nil, err
	}

	apps, err := s.GetAppsBatch(appIDs, ProjectionMinimal)
	if err != nil {
		return nil, nil, err
	}

	collection := &Collection{
		CategoryID: header.CategoryID,
		AppIDs:     []string{},
		TotalHits:  header.TotalHits,
		CachedAt:   header.CachedAt,
	}
	return collection, apps, nil
}

// GetCollectionPage returns one page of a collection's member apps in
// position order plus the total membership count, which is independent of
// the page requested.
func (s *Store) GetCollectionPage(categoryID string, limit int, offset int) ([]db.CachedApp, int64, error) {
	var total int64
	err := s.db.Model(&db.CategoryCollectionApp{}).
		Where("category_id = ?", categoryID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	appIDs, err := s.collectionAppIDs(categoryID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	apps, err := s.GetAppsBatch(appIDs, ProjectionMinimal)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// GetCollectionApps returns the top member apps of one curated collection.
func (s *Store) GetCollectionApps(collectionType string) ([]db.CachedApp, error) {
	appIDs, err := s.collectionAppIDs(collectionType, constants.COLLECTION_APPS_LIMIT, 0)
	if err != nil {
		return nil, err
	}
	return s.GetAppsBatch(appIDs, ProjectionWithDescription)
}

// Homepage aggregates the top entries of the three curated collections.
type Homepage struct {
	Popular         []db.CachedApp `json:"popular"`
	Trending        []db.CachedApp `json:"trending"`
	RecentlyUpdated []db.CachedApp `json:"recently_updated"`
}

// GetHomepage reads the three curated collections in one batched app
// lookup while preserving each collection's own order. Member ids with no
// app row yet are dropped; a sync may still be streaming the catalog.
func (s *Store) GetHomepage() (*Homepage, error) {
	idsByCollection := map[string][]string{}
	allIDs := []string{}
	for _, name := range constants.GetCuratedCollections() {
		appIDs, err := s.collectionAppIDs(name, constants.HOMEPAGE_COLLECTION_LIMIT, 0)
		if err != nil {
			return nil, err
		}
		idsByCollection[name] = appIDs
		allIDs = append(allIDs, appIDs...)
	}

	apps, err := s.GetAppsBatch(allIDs, ProjectionWithIcon)
	if err != nil {
		return nil, err
	}

	appsByID := map[string]db.CachedApp{}
	for _, app := range apps {
		appsByID[app.AppID] = app
	}

	pick := func(name string) []db.CachedApp {
		picked := []db.CachedApp{}
		for _, appID := range idsByCollection[name] {
			if app, ok := appsByID[appID]; ok {
				picked = append(picked, app)
			}
		}
		return picked
	}

	return &Homepage{
		Popular:         pick(constants.COLLECTION_POPULAR),
		Trending:        pick(constants.COLLECTION_TRENDING),
		RecentlyUpdated: pick(constants.COLLECTION_RECENTLY_UPDATED),
	}, nil
}

// SearchApps does a case-insensitive substring match across name, summary
// and description, capped at the search result limit.
func (s *Store) SearchApps(query string) ([]SearchResult, error) {
	pattern := "%" + query + "%"
	var results []SearchResult
	err := s.db.Model(&db.CachedApp{}).
		Select("app_id", "name", "summary", "icon_url", "icon_path").
		Where("name LIKE ? COLLATE NOCASE OR summary LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE", pattern, pattern, pattern).
		Limit(constants.SEARCH_RESULT_LIMIT).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) CountApps() (int64, error) {
	var count int64
	err := s.db.Model(&db.CachedApp{}).Count(&count).Error
	return count, err
}

// CacheReady reports whether at least one app has been cached.
func (s *Store) CacheReady() bool {
	count, err := s.CountApps()
	if err != nil {
		return false
	}
	return count > 0
}

// ClearAll empties every table. Only an explicit clear-cache request
// deletes cached apps.
func (s *Store) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"apps", "categories", "category_collections", "category_collection_apps"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// HasIconData reports whether a non-empty icon blob exists for the app.
func (s *Store) HasIconData(appID string) (bool, error) {
	var count int64
	err := s.db.Model(&db.CachedApp{}).
		Where("app_id = ? AND icon_data IS NOT NULL AND length(icon_data) > 0", appID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetIconData writes the icon blob for one app. Single-column update so a
// concurrent metadata upsert is never clobbered.
func (s *Store) SetIconData(appID string, data []byte) error {
	return s.db.Model(&db.CachedApp{}).
		Where("app_id = ?", appID).
		Update("icon_data", data).Error
}

func (s *Store) GetIconData(appID string) ([]byte, error) {
	var app db.CachedApp
	err := s.db.
		Select("app_id", "icon_data").
		First(&app, "app_id = ?", appID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app.IconData, nil
}

func (s *Store) GetIconDataBatch(appIDs []string) (map[string][]byte, error) {
	icons := map[string][]byte{}
	if len(appIDs) == 0 {
		return icons, nil
	}

	var apps []db.CachedApp
	err := s.db.
		Select("app_id", "icon_data").
		Where("app_id IN ? AND icon_data IS NOT NULL", appIDs).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	for _, app := range apps {
		if len(app.IconData) > 0 {
			icons[app.AppID] = app.IconData
		}
	}
	return icons, nil
}

func (s *Store) collectionAppIDs(categoryID string, limit int, offset int) ([]string, error) {
	query := s.db.Model(&db.CategoryCollectionApp{}).
		Where("category_id = ?", categoryID).
		Order("position")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	appIDs := []string{}
	err := query.Pluck("app_id", &appIDs).Error
	if err != nil {
		return nil, err
	}
	return appIDs, nil
}

func orderByIDs(apps []db.CachedApp, appIDs []string) []db.CachedApp {
	appsByID := make(map[string]db.CachedApp, len(apps))
	for _, app := range apps {
		appsByID[app.AppID] = app
	}

	ordered := make([]db.CachedApp, 0, len(apps))
	seen := make(map[string]bool, len(appIDs))
	for _, appID := range appIDs {
		if seen[appID] {
			continue
		}
		seen[appID] = true
		if app, ok := appsByID[appID]; ok {
			ordered = append(ordered, app)
		}
	}
	return ordered
}
