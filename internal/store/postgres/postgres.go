// Package postgres stores investigations in PostgreSQL through GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/workplace-hygiene/noiseexposure/internal/log"
	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// Store is a store.Store backed by PostgreSQL
type Store struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

var _ store.Store = (*Store)(nil)

// CreateConnection opens a GORM connection with SQL logging bridged to zap
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a PostgreSQL connection: %w", err)
	}
	return db, nil
}

// Open connects to PostgreSQL and creates the tables if needed
func Open(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	logger.Info("connecting to PostgreSQL...")
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&Investigation{}, &StatisticsRun{}, &GroupStatistic{}); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	logger.Info("PostgreSQL connection successful")
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveInvestigation inserts or replaces a snapshot
func (s *Store) SaveInvestigation(ctx context.Context, inv *exposure.Investigation) error {
	if inv.ID == "" {
		return errors.New("investigation ID is required")
	}

	model, err := toInvestigationModel(inv, time.Now())
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "snapshot", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("saving investigation %s: %w", inv.ID, err)
	}
	return nil
}

// LoadInvestigation reads a snapshot
func (s *Store) LoadInvestigation(ctx context.Context, id string) (*exposure.Investigation, error) {
	var model Investigation
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading investigation %s: %w", id, err)
	}
	return fromInvestigationModel(model)
}

// ListInvestigations returns all investigations ordered by ID
func (s *Store) ListInvestigations(ctx context.Context) ([]store.Summary, error) {
	var models []Investigation
	err := s.DB.WithContext(ctx).Select("id", "name", "updated_at").Order("id").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing investigations: %w", err)
	}

	summaries := make([]store.Summary, 0, len(models))
	for _, m := range models {
		summaries = append(summaries, store.Summary{ID: m.ID, Name: m.Name, UpdatedAt: m.UpdatedAt})
	}
	return summaries, nil
}

// SaveStatistics records a computation run
func (s *Store) SaveStatistics(ctx context.Context, investigationID string, stats []exposure.Statistics) (string, error) {
	run, err := toRunModel(uuid.NewString(), investigationID, stats, time.Now())
	if err != nil {
		return "", err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Investigation{}).Where("id = ?", investigationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", store.ErrNotFound, investigationID)
		}
		return tx.Create(&run).Error
	})
	if err != nil {
		return "", fmt.Errorf("saving statistics run for %s: %w", investigationID, err)
	}
	return run.ID, nil
}

// LatestRun returns the most recent computation run of an investigation
func (s *Store) LatestRun(ctx context.Context, investigationID string) (*store.Run, error) {
	var run StatisticsRun
	err := s.DB.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("investigation_id = ?", investigationID).
		Order("computed_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no statistics for %s", store.ErrNotFound, investigationID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run of %s: %w", investigationID, err)
	}

	stats, err := fromGroupStatistics(run.Groups)
	if err != nil {
		return nil, err
	}
	return &store.Run{
		ID:              run.ID,
		InvestigationID: run.InvestigationID,
		ComputedAt:      run.ComputedAt,
		Statistics:      stats,
	}, nil
}
