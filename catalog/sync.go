package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blossom-os/softwarehub/constants"
	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/events"
	"github.com/blossom-os/softwarehub/flathub"
	"github.com/blossom-os/softwarehub/logger"
	"gorm.io/datatypes"
)

// SyncService drives the full and incremental refresh workflows. Bulk
// work runs in tracked background tasks so callers never block on the
// catalog stream, while Shutdown can still await or cancel it.
type SyncService struct {
	store          *Store
	client         *flathub.Client
	icons          *IconCache
	eventPublisher events.EventPublisher

	ctx      context.Context
	cancelFn context.CancelFunc
	wg       sync.WaitGroup
}

func NewSyncService(ctx context.Context, store *Store, client *flathub.Client, icons *IconCache, eventPublisher events.EventPublisher) *SyncService {
	ctx, cancelFn := context.WithCancel(ctx)
	return &SyncService{
		store:          store,
		client:         client,
		icons:          icons,
		eventPublisher: eventPublisher,
		ctx:            ctx,
		cancelFn:       cancelFn,
	}
}

// StartPeriodicSync triggers an incremental refresh on the given interval
// until shutdown.
func (s *SyncService) StartPeriodicSync(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.track(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Refresh(false)
			case <-s.ctx.Done():
				return
			}
		}
	})
}

// Refresh launches a sync workflow and returns immediately. clearCache
// selects the full refresh (wipe and re-stream everything) over the
// incremental diff against the recently-updated collection.
func (s *SyncService) Refresh(clearCache bool) {
	logger.Logger.Info().Bool("clear_cache", clearCache).Msg("Starting catalog sync")
	s.track(func() {
		var err error
		if clearCache {
			err = s.fullRefresh(s.ctx)
		} else {
			err = s.incrementalRefresh(s.ctx)
		}
		if err != nil {
			logger.Logger.Error().Err(err).Bool("clear_cache", clearCache).Msg("Catalog sync failed")
			s.publishError("Catalog sync failed", err)
		}
	})
}

// Shutdown cancels in-flight work and waits for all tracked tasks.
func (s *SyncService) Shutdown() {
	s.cancelFn()
	s.wg.Wait()
}

func (s *SyncService) fullRefresh(ctx context.Context) error {
	if err := s.store.ClearAll(); err != nil {
		return err
	}

	// priority: curated collections first so the homepage fills in quickly
	for _, name := range constants.GetCuratedCollections() {
		if _, err := s.SyncCollection(ctx, name); err != nil {
			logger.Logger.Error().Err(err).Str("collection", name).Msg("Failed to fetch curated collection")
		}
	}

	// the catalog-wide stream runs concurrently with the category passes
	// below; only the final complete event waits for it
	var bulk sync.WaitGroup
	bulk.Add(1)
	s.track(func() {
		defer bulk.Done()
		if err := s.syncAllApps(s.ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to fetch full catalog")
		}
	})

	if err := s.syncCategories(); err != nil {
		return err
	}

	if err := s.syncCategoryCollections(ctx); err != nil {
		return err
	}

	bulk.Wait()
	return s.publishComplete("Cache complete! Cached %d apps")
}

func (s *SyncService) incrementalRefresh(ctx context.Context) error {
	// curated collections are cheap and order-sensitive, always fully
	// re-derived rather than diffed
	for _, name := range constants.GetCuratedCollections() {
		if _, err := s.SyncCollection(ctx, name); err != nil {
			logger.Logger.Error().Err(err).Str("collection", name).Msg("Failed to fetch curated collection")
		}
	}

	var bulk sync.WaitGroup
	bulk.Add(1)
	s.track(func() {
		defer bulk.Done()
		if err := s.syncRecentlyUpdatedApps(s.ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to fetch recently updated apps")
		}
	})

	if err := s.syncCategoryCollections(ctx); err != nil {
		return err
	}

	bulk.Wait()
	return s.publishComplete("Cache updated! %d apps cached")
}

// syncAllApps streams the entire catalog: the id list is split into fixed
// chunks, each chunk's detail fetches fan out concurrently and the chunk
// waits for all of them before its batch write. Chunk N+1 never starts
// before chunk N's writes are durable, which caps memory and in-flight
// connections to one chunk's width.
func (s *SyncService) syncAllApps(ctx context.Context) error {
	s.publishProgress(constants.SYNC_STAGE_FETCHING_APPS, 0, 0, "Starting to fetch apps...")

	appIDs, err := s.client.FetchAppIDs(ctx)
	if err != nil {
		return err
	}
	logger.Logger.Info().Int("count", len(appIDs)).Msg("Fetched catalog app id list")

	totalApps := len(appIDs)
	totalFetched := 0

	for start := 0; start < len(appIDs); start += constants.APPS_PER_PAGE {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := min(start+constants.APPS_PER_PAGE, len(appIDs))
		chunk := appIDs[start:end]

		batch := s.fetchAppDetails(ctx, chunk)
		if len(batch) == 0 {
			logger.Logger.Warn().Int("chunk_size", len(chunk)).Msg("Empty batch, no apps to insert")
			continue
		}

		if err := s.store.UpsertApps(batch); err != nil {
			return err
		}
		totalFetched += len(batch)
		s.publishProgress(constants.SYNC_STAGE_FETCHING_APPS, totalFetched, totalApps,
			fmt.Sprintf("Fetched %d/%d apps", totalFetched, totalApps))

		// icon downloads do not block the next chunk
		s.launchIconDownloads(batch)
	}

	return nil
}

// syncRecentlyUpdatedApps is the incremental diff path: only apps whose
// content actually differs from the local snapshot are rewritten.
func (s *SyncService) syncRecentlyUpdatedApps(ctx context.Context) error {
	collection, err := s.client.FetchCollection(ctx, constants.COLLECTION_RECENTLY_UPDATED)
	if err != nil {
		return err
	}
	logger.Logger.Info().Int("count", len(collection.AppIDs)).Msg("Checking recently updated apps")

	existingApps, err := s.store.GetAppsBatch(collection.AppIDs, ProjectionWithDescription)
	if err != nil {
		return err
	}
	existingByID := make(map[string]db.CachedApp, len(existingApps))
	for _, app := range existingApps {
		existingByID[app.AppID] = app
	}

	fetched := s.fetchAppDetails(ctx, collection.AppIDs)

	updatedBatch := []db.CachedApp{}
	for _, app := range fetched {
		existing, exists := existingByID[app.AppID]
		if !exists || hasAppChanged(existing, app) {
			updatedBatch = append(updatedBatch, app)
		}
	}

	if len(updatedBatch) == 0 {
		logger.Logger.Info().Msg("No apps needed updating")
		return nil
	}

	if err := s.store.UpsertApps(updatedBatch); err != nil {
		return err
	}
	logger.Logger.Info().
		Int("updated", len(updatedBatch)).
		Int("checked", len(collection.AppIDs)).
		Msg("Updated changed apps")

	// only records that were actually written get icon downloads
	var iconWg sync.WaitGroup
	for _, app := range updatedBatch {
		if app.IconURL == nil || *app.IconURL == "" {
			continue
		}
		iconWg.Add(1)
		go func(appID string, iconURL string) {
			defer iconWg.Done()
			if _, err := s.icons.EnsureIconCached(ctx, appID, iconURL); err != nil {
				logger.Logger.Error().Err(err).Str("app_id", appID).Msg("Failed to cache icon")
			}
		}(app.AppID, *app.IconURL)
	}
	iconWg.Wait()

	return nil
}

// fetchAppDetails fans out one concurrent detail fetch per id and waits
// for all of them. Per-item fetch or parse failures are logged and the
// item dropped, never fatal to the batch.
func (s *SyncService) fetchAppDetails(ctx context.Context, appIDs []string) []db.CachedApp {
	records := make([]*flathub.AppRecord, len(appIDs))
	var wg sync.WaitGroup
	for i, appID := range appIDs {
		wg.Add(1)
		go func(i int, appID string) {
			defer wg.Done()
			record, err := s.client.FetchAppDetail(ctx, appID)
			if err != nil {
				logger.Logger.Error().Err(err).Str("app_id", appID).Msg("Failed to fetch app details")
				return
			}
			records[i] = record
		}(i, appID)
	}
	wg.Wait()

	batch := make([]db.CachedApp, 0, len(appIDs))
	for _, record := range records {
		if record == nil {
			continue
		}
		batch = append(batch, recordToCachedApp(record))
	}
	return batch
}

func (s *SyncService) launchIconDownloads(batch []db.CachedApp) {
	for _, app := range batch {
		if app.IconURL == nil || *app.IconURL == "" {
			continue
		}
		appID := app.AppID
		iconURL := *app.IconURL
		s.track(func() {
			if _, err := s.icons.EnsureIconCached(s.ctx, appID, iconURL); err != nil {
				logger.Logger.Error().Err(err).Str("app_id", appID).Msg("Failed to cache icon")
			}
		})
	}
}

// SyncCollection fetches one curated collection and replaces its stored
// membership, returning the fetched member ids.
func (s *SyncService) SyncCollection(ctx context.Context, name string) ([]string, error) {
	collection, err := s.client.FetchCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceCollection(name, collection.AppIDs, collection.TotalHits); err != nil {
		return nil, err
	}
	return collection.AppIDs, nil
}

// SyncCategoryCollection fetches one category's membership collection and
// replaces it.
func (s *SyncService) SyncCategoryCollection(ctx context.Context, categoryID string) error {
	collection, err := s.client.FetchCategoryCollection(ctx, categoryID)
	if err != nil {
		return err
	}
	return s.store.ReplaceCollection(categoryID, collection.AppIDs, collection.TotalHits)
}

func (s *SyncService) syncCategories() error {
	cachedAt := time.Now().Unix()
	categories := make([]db.CachedCategory, 0, len(constants.Categories))
	for _, category := range constants.Categories {
		categories = append(categories, db.CachedCategory{
			ID:       category.ID,
			Name:     category.Name,
			CachedAt: cachedAt,
		})
	}
	return s.store.ReplaceCategories(categories)
}

func (s *SyncService) syncCategoryCollections(ctx context.Context) error {
	categories, err := s.store.ListCategories()
	if err != nil {
		return err
	}
	// full refresh persists the category list before this runs; on
	// incremental refresh the previous sync's list is reused
	if len(categories) == 0 {
		if err := s.syncCategories(); err != nil {
			return err
		}
		categories, err = s.store.ListCategories()
		if err != nil {
			return err
		}
	}

	total := len(categories)
	for processed, category := range categories {
		if err := s.SyncCategoryCollection(ctx, category.ID); err != nil {
			logger.Logger.Error().Err(err).Str("category", category.ID).Msg("Failed to fetch category collection")
		}
		s.publishProgress(constants.SYNC_STAGE_FETCHING_COLLECTIONS, processed+1, total,
			fmt.Sprintf("Fetched %d/%d collections", processed+1, total))
	}
	return nil
}

func hasAppChanged(existing db.CachedApp, updated db.CachedApp) bool {
	return !equalStringPtr(existing.Name, updated.Name) ||
		!equalStringPtr(existing.Summary, updated.Summary) ||
		!equalStringPtr(existing.Description, updated.Description) ||
		existing.InstallRef != updated.InstallRef ||
		!equalStringPtr(existing.IconURL, updated.IconURL)
}

func equalStringPtr(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func recordToCachedApp(record *flathub.AppRecord) db.CachedApp {
	return db.CachedApp{
		AppID:       record.AppID,
		Name:        record.Name,
		Summary:     record.Summary,
		Description: record.Description,
		InstallRef:  record.InstallRef,
		IconURL:     record.IconURL,
		Metadata:    datatypes.JSON(record.Raw),
		CachedAt:    time.Now().Unix(),
	}
}

func (s *SyncService) track(task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		task()
	}()
}

func (s *SyncService) publishComplete(messageFormat string) error {
	count, err := s.store.CountApps()
	if err != nil {
		return err
	}
	s.publishProgress(constants.SYNC_STAGE_COMPLETE, int(count), int(count),
		fmt.Sprintf(messageFormat, count))
	return nil
}

func (s *SyncService) publishProgress(stage string, progress int, total int, message string) {
	s.eventPublisher.Publish(&events.Event{
		Event: "catalog_sync_progress",
		Properties: map[string]interface{}{
			"stage":    stage,
			"progress": progress,
			"total":    total,
			"message":  message,
		},
	})
}

func (s *SyncService) publishError(message string, err error) {
	s.eventPublisher.Publish(&events.Event{
		Event: "catalog_sync_progress",
		Properties: map[string]interface{}{
			"stage":    constants.SYNC_STAGE_ERROR,
			"progress": 0,
			"total":    0,
			"message":  message,
			"details":  err.Error(),
		},
	})
}
