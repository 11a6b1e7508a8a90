package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-os/softwarehub/catalog"
	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/flathub"
	"github.com/blossom-os/softwarehub/tests"
)

func newTestAPI(t *testing.T) (*api, *catalog.Store, func()) {
	svc, err := tests.CreateTestService(t)
	require.NoError(t, err)

	cfg := config.NewConfig(&config.AppConfig{
		CatalogApiUrl: "http://localhost:0",
		HttpTimeout:   time.Second,
	})

	store := catalog.NewStore(svc.DB)
	client := flathub.NewClient(cfg)
	icons := catalog.NewIconCache(store, cfg)
	syncSvc := catalog.NewSyncService(context.Background(), store, client, icons, svc.EventPublisher)

	cleanup := func() {
		syncSvc.Shutdown()
		svc.Remove()
	}
	return NewAPI(store, icons, syncSvc), store, cleanup
}

func strPtr(s string) *string {
	return &s
}

func TestCacheReady(t *testing.T) {
	a, store, cleanup := newTestAPI(t)
	defer cleanup()

	assert.False(t, a.CacheReady().Ready)

	require.NoError(t, store.UpsertApps([]db.CachedApp{
		{AppID: "app.one", InstallRef: "app.one", CachedAt: 1},
	}))
	assert.True(t, a.CacheReady().Ready)
}

func TestGetApp(t *testing.T) {
	a, store, cleanup := newTestAPI(t)
	defer cleanup()

	require.NoError(t, store.UpsertApps([]db.CachedApp{
		{AppID: "app.one", Name: strPtr("One"), InstallRef: "app.one", CachedAt: 1},
	}))
	require.NoError(t, store.SetIconData("app.one", []byte("\x89PNGdata")))

	app, err := a.GetApp("app.one")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "One", *app.Name)
	assert.True(t, app.HasIcon)

	missing, err := a.GetApp("app.unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetCollectionApps_RejectsUnknownType(t *testing.T) {
	a, _, cleanup := newTestAPI(t)
	defer cleanup()

	_, err := a.GetCollectionApps("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection type")

	_, err = a.GetCollectionApps("popular")
	require.NoError(t, err)
}

func TestGetIconDataURLBatch(t *testing.T) {
	a, store, cleanup := newTestAPI(t)
	defer cleanup()

	require.NoError(t, store.UpsertApps([]db.CachedApp{
		{AppID: "app.one", InstallRef: "app.one", CachedAt: 1},
	}))
	require.NoError(t, store.SetIconData("app.one", []byte("\xff\xd8jpeg")))

	icons, err := a.GetIconDataURLBatch([]string{"app.one", "app.two"})
	require.NoError(t, err)
	require.Len(t, icons, 2)
	assert.Equal(t, "app.one", icons[0].AppID)
	assert.NotEmpty(t, icons[0].DataURL)
	assert.Equal(t, "app.two", icons[1].AppID)
	assert.Empty(t, icons[1].DataURL)
}
