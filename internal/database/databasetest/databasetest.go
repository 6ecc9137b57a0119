// Package databasetest starts a disposable PostgreSQL container for
// integration tests.
package databasetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Tomlord1122/todo-items/internal/config"
	"github.com/Tomlord1122/todo-items/internal/database"
)

const (
	image    = "postgres:16-alpine"
	dbName   = "todos"
	user     = "todo"
	password = "todo"
)

var (
	once     sync.Once
	dbConfig config.DatabaseConfig
	startErr error
)

// Config returns the settings of the shared container, starting it on first
// use. Tests are skipped with -short or when no container runtime is
// available.
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx, image,
			postgres.WithDatabase(dbName),
			postgres.WithUsername(user),
			postgres.WithPassword(password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			startErr = err
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			startErr = err
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			startErr = err
			return
		}

		dbConfig = config.DatabaseConfig{
			Host:            host,
			Port:            port.Int(),
			User:            user,
			Password:        password,
			Name:            dbName,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			AutoMigrate:     true,
			LogLevel:        "silent",
		}
	})
	require.NoError(t, startErr, "failed to start postgres container")
	return dbConfig
}

// New connects to the shared container and resets the schema, so every test
// starts from empty tables. The pool is closed when the test ends.
func New(t *testing.T) database.Service {
	t.Helper()
	cfg := Config(t)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Reset(t.Context()))
	return db
}
