package flathub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppRecord_IDAliasPriority(t *testing.T) {
	// app_id wins over id, id wins over flatpakAppId
	record, err := ParseAppRecord([]byte(`{"app_id":"first","id":"second","flatpakAppId":"third"}`))
	require.NoError(t, err)
	assert.Equal(t, "first", record.AppID)

	record, err = ParseAppRecord([]byte(`{"id":"second","flatpakAppId":"third"}`))
	require.NoError(t, err)
	assert.Equal(t, "second", record.AppID)

	record, err = ParseAppRecord([]byte(`{"flatpakAppId":"third"}`))
	require.NoError(t, err)
	assert.Equal(t, "third", record.AppID)
}

func TestParseAppRecord_MissingID(t *testing.T) {
	_, err := ParseAppRecord([]byte(`{"name":"No identifier here"}`))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseAppRecord_Fields(t *testing.T) {
	payload := []byte(`{"id":"org.example.App","name":"Example","summary":"Short","description":"Long","iconDesktopUrl":"https://example.com/desktop.png","icon":"https://example.com/icon.png"}`)

	record, err := ParseAppRecord(payload)
	require.NoError(t, err)
	assert.Equal(t, "org.example.App", record.AppID)
	assert.Equal(t, "org.example.App", record.InstallRef)
	assert.Equal(t, "Example", *record.Name)
	assert.Equal(t, "Short", *record.Summary)
	assert.Equal(t, "Long", *record.Description)
	assert.Equal(t, "https://example.com/desktop.png", *record.IconURL)
	assert.JSONEq(t, string(payload), string(record.Raw))
}

func TestParseAppRecord_IconFallback(t *testing.T) {
	record, err := ParseAppRecord([]byte(`{"id":"org.example.App","icon":"https://example.com/icon.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/icon.png", *record.IconURL)

	record, err = ParseAppRecord([]byte(`{"id":"org.example.App"}`))
	require.NoError(t, err)
	assert.Nil(t, record.IconURL)
	assert.Nil(t, record.Name)
}

func TestParseCollection_Hits(t *testing.T) {
	result, err := parseCollection([]byte(`{"hits":[{"app_id":"a"},{"flatpakAppId":"b"},{"junk":1}],"totalHits":42}`), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.AppIDs)
	assert.Equal(t, int64(42), result.TotalHits)
}

func TestParseCollection_TotalHitsDefaultsToLength(t *testing.T) {
	result, err := parseCollection([]byte(`{"hits":[{"app_id":"a"},{"app_id":"b"}]}`), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalHits)
}

func TestParseCollection_AppsKeyOnlyForCategories(t *testing.T) {
	payload := []byte(`{"apps":[{"app_id":"a"}]}`)

	result, err := parseCollection(payload, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.AppIDs)

	_, err = parseCollection(payload, false)
	require.Error(t, err)
}
