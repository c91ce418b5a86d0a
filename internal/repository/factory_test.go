package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resopt/pkg/config"
)

func newTestGormDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestNewRepositories(t *testing.T) {
	db := newTestGormDB(t)

	t.Run("PostgreSQL", func(t *testing.T) {
		repos := NewRepositories(db, "postgres", "1.0.0")
		require.NotNil(t, repos)
		assert.NotNil(t, repos.Job)
		assert.NotNil(t, repos.Report)
		assert.NotNil(t, repos.Suggestion)
		assert.NotNil(t, repos.Batch)
	})

	t.Run("MySQL", func(t *testing.T) {
		repos := NewRepositories(db, "mysql", "1.0.0")
		require.NotNil(t, repos)
		assert.NotNil(t, repos.Job)
	})
}

func TestNewSQLRepositories(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("PostgreSQL", func(t *testing.T) {
		repos, err := NewSQLRepositories(db, "postgres", "1.0.0")
		require.NoError(t, err)
		assert.IsType(t, &PostgresJobRepository{}, repos.Job)
		assert.IsType(t, &PostgresBatchRepository{}, repos.Batch)
	})

	t.Run("PostgreSQL_Alt", func(t *testing.T) {
		repos, err := NewSQLRepositories(db, "postgresql", "1.0.0")
		require.NoError(t, err)
		assert.IsType(t, &PostgresJobRepository{}, repos.Job)
	})

	t.Run("MySQL", func(t *testing.T) {
		repos, err := NewSQLRepositories(db, "mysql", "1.0.0")
		require.NoError(t, err)
		assert.IsType(t, &MySQLJobRepository{}, repos.Job)
		assert.IsType(t, &MySQLReportRepository{}, repos.Report)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := NewSQLRepositories(db, "oracle", "1.0.0")
		assert.Error(t, err)
	})
}

func TestRepositories_Close(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db, "postgres", "1.0.0")

	err := repos.Close()
	assert.NoError(t, err)
}

func TestRepositories_DB(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db, "postgres", "1.0.0")

	sqlDB := repos.DB()
	assert.NotNil(t, sqlDB)
}

func TestRepositories_GormDB(t *testing.T) {
	db := newTestGormDB(t)
	repos := NewRepositories(db, "postgres", "1.0.0")

	gormDB := repos.GormDB()
	assert.Equal(t, db, gormDB)
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: "oracle"}
	_, err := NewGormDB(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}
