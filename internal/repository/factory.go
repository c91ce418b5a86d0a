package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/telemetry"
)

// DBType represents the database type.
type DBType string

const (
	DBTypePostgres DBType = "postgres"
	DBTypeMySQL    DBType = "mysql"
)

// NewGormDB creates a new GORM database connection based on configuration.
func NewGormDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch DBType(cfg.Type) {
	case DBTypePostgres, DBType("postgresql"):
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		dialector = postgres.Open(dsn)
	case DBTypeMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable OpenTelemetry tracing if OTEL_ENABLED=true
	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("failed to enable telemetry: %w", err)
		}
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSQLDB opens a raw database/sql connection for the SQL
// repositories (driver: sql), bypassing GORM.
func NewSQLDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	var driverName, dsn string

	switch DBType(cfg.Type) {
	case DBTypePostgres, DBType("postgresql"):
		driverName = "pgx"
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
	case DBTypeMySQL:
		driverName = "mysql"
		dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repositories holds all repository instances.
type Repositories struct {
	Job        JobRepository
	Report     ReportRepository
	Suggestion SuggestionRepository
	Batch      BatchRepository
	gormDB     *gorm.DB
	sqlDB      *sql.DB
	dbType     string
}

// NewRepositories creates all repositories using GORM.
func NewRepositories(gormDB *gorm.DB, dbType string, version string) *Repositories {
	repos := &Repositories{gormDB: gormDB, dbType: dbType}

	repos.Job = NewGormJobRepository(gormDB)
	repos.Report = NewGormReportRepository(gormDB, version)
	repos.Suggestion = NewGormSuggestionRepository(gormDB)
	repos.Batch = NewGormBatchRepository(gormDB)

	return repos
}

// NewSQLRepositories creates all repositories on a raw sql.DB. Used
// when GORM is bypassed (driver: sql).
func NewSQLRepositories(db *sql.DB, dbType string, version string) (*Repositories, error) {
	repos := &Repositories{sqlDB: db, dbType: dbType}

	switch DBType(dbType) {
	case DBTypePostgres, DBType("postgresql"):
		repos.Job = NewPostgresJobRepository(db)
		repos.Report = NewPostgresReportRepository(db, version)
		repos.Suggestion = NewPostgresSuggestionRepository(db)
		repos.Batch = NewPostgresBatchRepository(db)
	case DBTypeMySQL:
		repos.Job = NewMySQLJobRepository(db)
		repos.Report = NewMySQLReportRepository(db, version)
		repos.Suggestion = NewMySQLSuggestionRepository(db)
		repos.Batch = NewMySQLBatchRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	return repos, nil
}

// Close closes the database connection.
func (r *Repositories) Close() error {
	if r.gormDB != nil {
		sqlDB, err := r.gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	if r.sqlDB != nil {
		return r.sqlDB.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is still alive.
func (r *Repositories) HealthCheck(ctx context.Context) error {
	if r.gormDB != nil {
		sqlDB, err := r.gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	if r.sqlDB != nil {
		return r.sqlDB.PingContext(ctx)
	}
	return nil
}

// DB returns the underlying sql.DB connection.
func (r *Repositories) DB() *sql.DB {
	if r.gormDB != nil {
		sqlDB, _ := r.gormDB.DB()
		return sqlDB
	}
	return r.sqlDB
}

// GormDB returns the underlying GORM DB instance.
func (r *Repositories) GormDB() *gorm.DB {
	return r.gormDB
}
