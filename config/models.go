package config

import "time"

type AppConfig struct {
	Workdir       string `envconfig:"WORK_DIR"`
	Port          string `envconfig:"PORT" default:"8029"`
	DatabaseUri   string `envconfig:"DATABASE_URI" default:"catalog.db"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"4"`
	LogToFile     bool   `envconfig:"LOG_TO_FILE" default:"true"`
	LogDBQueries  bool   `envconfig:"LOG_DB_QUERIES" default:"false"`
	CatalogApiUrl string `envconfig:"CATALOG_API_URL" default:"https://flathub.org/api/v2"`

	// 0 disables the periodic incremental refresh
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"6h"`

	// CollectionRetryAttempts caps retries on HTTP 500 from the collection
	// endpoints. 0 retries forever.
	CollectionRetryAttempts int           `envconfig:"COLLECTION_RETRY_ATTEMPTS" default:"0"`
	CollectionRetryDelay    time.Duration `envconfig:"COLLECTION_RETRY_DELAY" default:"2s"`

	HttpTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}
