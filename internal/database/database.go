package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildflow/subcontractor-api/internal/config"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

// NewDatabase creates a new database connection with pool tuning applied
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs automatic migrations (for development only; production
// schemas are managed by goose migrations)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Project{},
		&domain.Building{},
		&domain.Trade{},
		&domain.Subcontractor{},
		&domain.Unit{},
		&domain.CostCode{},
		&domain.Currency{},
		&domain.WizardDraft{},
		&domain.Contract{},
		&domain.ContractBOQItem{},
		&domain.VariationOrder{},
		&domain.VariationOrderBOQItem{},
		&domain.BudgetBOQLine{},
		&domain.Attachment{},
		&domain.NumberSequence{},
	)
}

// HealthCheck pings the database with a short timeout
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Stats summarizes connection pool usage for the readiness endpoint
type Stats struct {
	OpenConnections int `json:"openConnections"`
	InUse           int `json:"inUse"`
	Idle            int `json:"idle"`
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	if err := HealthCheck(ctx, db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	s := sqlDB.Stats()
	return &Stats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
	}, nil
}
