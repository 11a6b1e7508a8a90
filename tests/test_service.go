package tests

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/db/migrations"
	"github.com/blossom-os/softwarehub/events"
	"github.com/blossom-os/softwarehub/logger"
)

type TestService struct {
	DB             *gorm.DB
	EventPublisher events.EventPublisher
}

// CreateTestService spins up an isolated in-memory store for one test.
func CreateTestService(t *testing.T) (*TestService, error) {
	logger.Init("4")

	// one shared-cache in-memory database per test name
	dbName := strings.ReplaceAll(t.Name(), "/", "_")
	uri := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)

	gormDB, err := db.NewDB(uri, false)
	if err != nil {
		return nil, err
	}

	if err := migrations.Migrate(gormDB); err != nil {
		return nil, err
	}

	return &TestService{
		DB:             gormDB,
		EventPublisher: events.NewEventPublisher(),
	}, nil
}

func (ts *TestService) Remove() {
	db.Stop(ts.DB)
}
