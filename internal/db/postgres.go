package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CryptracSolutions/ultaura-insights/internal/domain"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/envutil"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.Get("POSTGRES_HOST", "localhost")
	postgresPort := envutil.Get("POSTGRES_PORT", "5432")
	postgresUser := envutil.Get("POSTGRES_USER", "postgres")
	postgresPassword := envutil.Get("POSTGRES_PASSWORD", "")
	postgresName := envutil.Get("POSTGRES_NAME", "ultaura_insights")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&domain.Line{},
		&domain.AccountCryptoKey{},
		&domain.CallSession{},
		&domain.EncryptedCallInsight{},
		&domain.EncryptedWeeklySummary{},
		&domain.LineBaseline{},
		&domain.InsightPrivacy{},
		&domain.NotificationPreferences{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
