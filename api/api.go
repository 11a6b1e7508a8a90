package api

import (
	"context"
	"fmt"
	"slices"

	"github.com/blossom-os/softwarehub/catalog"
	"github.com/blossom-os/softwarehub/constants"
	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/logger"
	"github.com/blossom-os/softwarehub/utils"
)

type API interface {
	CacheReady() ReadyResponse
	ListApps() ([]App, error)
	GetApp(appID string) (*App, error)
	GetAppsBatch(appIDs []string) ([]App, error)
	ListCategories() ([]Category, error)
	GetCollection(categoryID string) (*CollectionResponse, error)
	GetCollectionWithApps(categoryID string, limit int) (*CollectionWithAppsResponse, error)
	GetCollectionPage(categoryID string, limit int, offset int) (*CollectionPageResponse, error)
	GetCollectionApps(collectionType string) ([]App, error)
	GetHomepage() (*HomepageResponse, error)
	Search(query string) (*SearchResponse, error)
	GetIconDataURL(appID string) (*IconResponse, error)
	GetIconDataURLBatch(appIDs []string) ([]IconResponse, error)
	Sync(clearCache bool)
	SyncCollection(ctx context.Context, name string) ([]string, error)
	SyncCategoryCollection(ctx context.Context, categoryID string) error
	GetLogOutput(getLogRequest *GetLogOutputRequest) (*GetLogOutputResponse, error)
}

type api struct {
	store   *catalog.Store
	icons   *catalog.IconCache
	syncSvc *catalog.SyncService
}

func NewAPI(store *catalog.Store, icons *catalog.IconCache, syncSvc *catalog.SyncService) *api {
	return &api{
		store:   store,
		icons:   icons,
		syncSvc: syncSvc,
	}
}

func (a *api) CacheReady() ReadyResponse {
	return ReadyResponse{Ready: a.store.CacheReady()}
}

func (a *api) ListApps() ([]App, error) {
	apps, err := a.store.ListApps()
	if err != nil {
		return nil, err
	}
	return toApiApps(apps), nil
}

func (a *api) GetApp(appID string) (*App, error) {
	app, err := a.store.GetApp(appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}
	apiApp := toApiApp(*app)
	return &apiApp, nil
}

func (a *api) GetAppsBatch(appIDs []string) ([]App, error) {
	apps, err := a.store.GetAppsBatch(appIDs, catalog.ProjectionWithDescription)
	if err != nil {
		return nil, err
	}
	return toApiApps(apps), nil
}

func (a *api) ListCategories() ([]Category, error) {
	categories, err := a.store.ListCategories()
	if err != nil {
		return nil, err
	}
	result := make([]Category, 0, len(categories))
	for _, category := range categories {
		result = append(result, Category{
			ID:       category.ID,
			Name:     category.Name,
			CachedAt: category.CachedAt,
		})
	}
	return result, nil
}

func (a *api) GetCollection(categoryID string) (*CollectionResponse, error) {
	collection, err := a.store.GetCollection(categoryID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, nil
	}
	return &CollectionResponse{
		CategoryID: collection.CategoryID,
		AppIDs:     collection.AppIDs,
		TotalHits:  collection.TotalHits,
		CachedAt:   collection.CachedAt,
	}, nil
}

func (a *api) GetCollectionWithApps(categoryID string, limit int) (*CollectionWithAppsResponse, error) {
	collection, apps, err := a.store.GetCollectionWithApps(categoryID, limit)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, nil
	}
	return &CollectionWithAppsResponse{
		Collection: CollectionResponse{
			CategoryID: collection.CategoryID,
			AppIDs:     collection.AppIDs,
			TotalHits:  collection.TotalHits,
			CachedAt:   collection.CachedAt,
		},
		Apps: toApiApps(apps),
	}, nil
}

func (a *api) GetCollectionPage(categoryID string, limit int, offset int) (*CollectionPageResponse, error) {
	apps, total, err := a.store.GetCollectionPage(categoryID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &CollectionPageResponse{
		Apps:  toApiApps(apps),
		Total: total,
	}, nil
}

func (a *api) GetCollectionApps(collectionType string) ([]App, error) {
	if !slices.Contains(constants.GetCuratedCollections(), collectionType) {
		return nil, fmt.Errorf("unknown collection type: %s", collectionType)
	}
	apps, err := a.store.GetCollectionApps(collectionType)
	if err != nil {
		return nil, err
	}
	return toApiApps(apps), nil
}

func (a *api) GetHomepage() (*HomepageResponse, error) {
	homepage, err := a.store.GetHomepage()
	if err != nil {
		return nil, err
	}
	return &HomepageResponse{
		Popular:         toApiApps(homepage.Popular),
		Trending:        toApiApps(homepage.Trending),
		RecentlyUpdated: toApiApps(homepage.RecentlyUpdated),
	}, nil
}

func (a *api) Search(query string) (*SearchResponse, error) {
	results, err := a.store.SearchApps(query)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Results: results}, nil
}

func (a *api) GetIconDataURL(appID string) (*IconResponse, error) {
	dataURL, err := a.icons.IconDataURL(appID)
	if err != nil {
		return nil, err
	}
	return &IconResponse{AppID: appID, DataURL: dataURL}, nil
}

func (a *api) GetIconDataURLBatch(appIDs []string) ([]IconResponse, error) {
	dataURLs, err := a.icons.IconDataURLBatch(appIDs)
	if err != nil {
		return nil, err
	}
	result := make([]IconResponse, 0, len(appIDs))
	for i, appID := range appIDs {
		result = append(result, IconResponse{AppID: appID, DataURL: dataURLs[i]})
	}
	return result, nil
}

func (a *api) Sync(clearCache bool) {
	a.syncSvc.Refresh(clearCache)
}

func (a *api) SyncCollection(ctx context.Context, name string) ([]string, error) {
	return a.syncSvc.SyncCollection(ctx, name)
}

func (a *api) SyncCategoryCollection(ctx context.Context, categoryID string) error {
	return a.syncSvc.SyncCategoryCollection(ctx, categoryID)
}

func (a *api) GetLogOutput(getLogRequest *GetLogOutputRequest) (*GetLogOutputResponse, error) {
	var logData []byte

	logFileName := logger.GetLogFilePath()
	if logFileName == "" {
		logData = []byte("file log is disabled")
	} else {
		var err error
		logData, err = utils.ReadFileTail(logFileName, getLogRequest.MaxLen)
		if err != nil {
			return nil, err
		}
	}

	return &GetLogOutputResponse{Log: string(logData)}, nil
}

func toApiApp(app db.CachedApp) App {
	return App{
		AppID:       app.AppID,
		Name:        app.Name,
		Summary:     app.Summary,
		Description: app.Description,
		InstallRef:  app.InstallRef,
		IconURL:     app.IconURL,
		IconPath:    app.IconPath,
		HasIcon:     len(app.IconData) > 0,
		CachedAt:    app.CachedAt,
	}
}

func toApiApps(apps []db.CachedApp) []App {
	result := make([]App, 0, len(apps))
	for _, app := range apps {
		result = append(result, toApiApp(app))
	}
	return result
}
