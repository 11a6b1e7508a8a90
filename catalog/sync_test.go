package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/constants"
	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/events"
	"github.com/blossom-os/softwarehub/flathub"
	"github.com/blossom-os/softwarehub/tests"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recordingSubscriber) ConsumeEvent(ctx context.Context, event *events.Event, globalProperties map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSubscriber) findStage(stage string) *events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		properties, ok := event.Properties.(map[string]interface{})
		if ok && properties["stage"] == stage {
			return event
		}
	}
	return nil
}

func newTestSyncService(svc *tests.TestService, baseURL string) (*SyncService, *Store, *recordingSubscriber) {
	cfg := config.NewConfig(&config.AppConfig{
		CatalogApiUrl:           baseURL,
		HttpTimeout:             5 * time.Second,
		CollectionRetryAttempts: 2,
		CollectionRetryDelay:    10 * time.Millisecond,
	})

	store := NewStore(svc.DB)
	client := flathub.NewClient(cfg)
	icons := NewIconCache(store, cfg)

	subscriber := &recordingSubscriber{}
	svc.EventPublisher.RegisterSubscriber(subscriber)

	syncService := NewSyncService(context.Background(), store, client, icons, svc.EventPublisher)
	return syncService, store, subscriber
}

func appDetailJSON(appID string) string {
	return fmt.Sprintf(`{"id":%q,"name":"Name of %s","summary":"Summary of %s","description":"Description of %s"}`,
		appID, appID, appID, appID)
}

func hitsJSON(appIDs ...string) string {
	hits := make([]string, 0, len(appIDs))
	for _, appID := range appIDs {
		hits = append(hits, fmt.Sprintf(`{"app_id":%q}`, appID))
	}
	return fmt.Sprintf(`{"hits":[%s],"totalHits":%d}`, strings.Join(hits, ","), len(appIDs))
}

func newCatalogServer(appIDs []string, recentlyUpdated []string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/appstream", func(w http.ResponseWriter, r *http.Request) {
		ids := make([]string, 0, len(appIDs))
		for _, appID := range appIDs {
			ids = append(ids, fmt.Sprintf("%q", appID))
		}
		fmt.Fprintf(w, "[%s]", strings.Join(ids, ","))
	})
	mux.HandleFunc("/appstream/", func(w http.ResponseWriter, r *http.Request) {
		appID := strings.TrimPrefix(r.URL.Path, "/appstream/")
		fmt.Fprint(w, appDetailJSON(appID))
	})
	mux.HandleFunc("/collection/popular", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hitsJSON(appIDs...))
	})
	mux.HandleFunc("/collection/trending", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hitsJSON())
	})
	mux.HandleFunc("/collection/recently-updated", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, hitsJSON(recentlyUpdated...))
	})
	mux.HandleFunc("/collection/category/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"apps":[],"totalHits":0}`)
	})
	return httptest.NewServer(mux)
}

func TestFullRefresh(t *testing.T) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)
	defer svc.Remove()

	appIDs := []string{"app.a", "app.b", "app.c"}
	server := newCatalogServer(appIDs, nil)
	defer server.Close()

	syncService, store, subscriber := newTestSyncService(svc, server.URL)

	require.NoError(t, syncService.fullRefresh(context.Background()))
	syncService.wg.Wait()

	count, err := store.CountApps()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	app, err := store.GetApp("app.b")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "Name of app.b", *app.Name)
	assert.Equal(t, "Summary of app.b", *app.Summary)
	assert.Equal(t, "app.b", app.InstallRef)

	categories, err := store.ListCategories()
	require.NoError(t, err)
	assert.Len(t, categories, len(constants.Categories))

	popular, err := store.GetCollection(constants.COLLECTION_POPULAR)
	require.NoError(t, err)
	require.NotNil(t, popular)
	assert.Equal(t, appIDs, popular.AppIDs)

	require.Eventually(t, func() bool {
		return subscriber.findStage(constants.SYNC_STAGE_COMPLETE) != nil
	}, 2*time.Second, 10*time.Millisecond)

	complete := subscriber.findStage(constants.SYNC_STAGE_COMPLETE)
	properties := complete.Properties.(map[string]interface{})
	assert.Equal(t, 3, properties["progress"])
	assert.Equal(t, 3, properties["total"])
}

func TestIncrementalRefresh_SkipsUnchangedApps(t *testing.T) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)
	defer svc.Remove()

	server := newCatalogServer([]string{"app.a"}, []string{"app.a"})
	defer server.Close()

	syncService, store, _ := newTestSyncService(svc, server.URL)

	// snapshot identical to what the remote serves
	require.NoError(t, store.UpsertApps([]db.CachedApp{{
		AppID:       "app.a",
		Name:        strPtr("Name of app.a"),
		Summary:     strPtr("Summary of app.a"),
		Description: strPtr("Description of app.a"),
		InstallRef:  "app.a",
		CachedAt:    1,
	}}))

	require.NoError(t, syncService.incrementalRefresh(context.Background()))
	syncService.wg.Wait()

	app, err := store.GetApp("app.a")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, int64(1), app.CachedAt, "unchanged app must not be rewritten")
}

func TestIncrementalRefresh_RewritesChangedApps(t *testing.T) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)
	defer svc.Remove()

	server := newCatalogServer([]string{"app.a"}, []string{"app.a"})
	defer server.Close()

	syncService, store, _ := newTestSyncService(svc, server.URL)

	// stale description, everything else matches the remote
	require.NoError(t, store.UpsertApps([]db.CachedApp{{
		AppID:       "app.a",
		Name:        strPtr("Name of app.a"),
		Summary:     strPtr("Summary of app.a"),
		Description: strPtr("An outdated description"),
		InstallRef:  "app.a",
		CachedAt:    1,
	}}))

	require.NoError(t, syncService.incrementalRefresh(context.Background()))
	syncService.wg.Wait()

	app, err := store.GetApp("app.a")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "Description of app.a", *app.Description)
	assert.Greater(t, app.CachedAt, int64(1))
}

func TestSyncCollection_NotFoundIsEmpty(t *testing.T) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)
	defer svc.Remove()

	// a mux with no routes answers 404 to everything
	server := httptest.NewServer(http.NewServeMux())
	defer server.Close()

	syncService, store, _ := newTestSyncService(svc, server.URL)

	appIDs, err := syncService.SyncCollection(context.Background(), "popular")
	require.NoError(t, err)
	assert.Empty(t, appIDs)

	collection, err := store.GetCollection("popular")
	require.NoError(t, err)
	require.NotNil(t, collection)
	assert.Empty(t, collection.AppIDs)
	assert.Equal(t, int64(0), collection.TotalHits)
}

func TestFullRefresh_DownloadsIcons(t *testing.T) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)
	defer svc.Remove()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/appstream", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["app.a"]`)
	})
	mux.HandleFunc("/appstream/app.a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"app.a","name":"A","iconDesktopUrl":%q}`, server.URL+"/icon/app.a.png")
	})
	mux.HandleFunc("/icon/app.a.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\x89PNG-bytes"))
	})
	mux.HandleFunc("/collection/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":[],"totalHits":0}`)
	})
	mux.HandleFunc("/collection/category/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"apps":[],"totalHits":0}`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	syncService, store, _ := newTestSyncService(svc, server.URL)

	require.NoError(t, syncService.fullRefresh(context.Background()))
	syncService.wg.Wait()

	hasIcon, err := store.HasIconData("app.a")
	require.NoError(t, err)
	assert.True(t, hasIcon)

	data, err := store.GetIconData("app.a")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG-bytes"), data)
}
