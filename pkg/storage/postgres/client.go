package postgres

import (
	"context"
	"fmt"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/config"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresClient struct {
	DB *gorm.DB
}

var _ benchmark.Store = (*PostgresClient)(nil)
var _ benchmark.BasketProvider = (*PostgresClient)(nil)

func NewClient(dsn string) (*PostgresClient, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresClient{DB: db}, nil
}

// InitializeAndMigrate connects to Postgres, optionally creates the DB,
// and runs AutoMigrate for the benchmark schema.
func InitializeAndMigrate(cfg config.PostgresConfig, env string, createDB bool) (*PostgresClient, error) {
	if createDB {
		if err := CreateDatabase(cfg, env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN(env))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) AutoMigrateAll() error {
	err := p.DB.AutoMigrate(
		&ReleaseRecord{},
		&PriceObservationRecord{},
		&IndexObservationRecord{},
		&BasketEntryRecord{},
		&PeriodAggregateRecord{},
		&PeriodComparisonRecord{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate benchmark tables: %w", err)
	}
	return nil
}

func (p *PostgresClient) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *PostgresClient) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
