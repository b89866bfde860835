// Package datastore persists analysis results in SQLite so repeated runs can
// be queried without re-reading the CSV artifacts.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/results"
)

// Interface defines the database operations used by the analysis commands.
type Interface interface {
	Open() error
	Close() error
	SaveDailyCounts(sound string, rows []results.DailyCount) error
	SaveShannonScores(rows []results.ShannonScore) error
	SaveRichnessScores(hourly bool, rows []results.RichnessScore) error
	SaveNightProportions(rows []results.NightProportion) error
	SaveKernelOverlaps(rows []results.KernelOverlap) error
}

// DailyCountRecord is the stored form of a combined count row.
type DailyCountRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Sound     string `gorm:"index:idx_count_key"`
	Region    string `gorm:"index:idx_count_key"`
	Site      string `gorm:"index:idx_count_key"`
	Day       string `gorm:"index:idx_count_key"`
	Treatment string
	Count     int
	CreatedAt time.Time
}

// ShannonRecord is the stored form of a Shannon diversity row.
type ShannonRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Region    string `gorm:"index"`
	Site      string
	Day       string `gorm:"index"`
	Treatment string
	Shannon   float64
	CreatedAt time.Time
}

// RichnessRecord is the stored form of a phonic richness row. Hour is -1 for
// daily rows.
type RichnessRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Region    string `gorm:"index"`
	Site      string
	Day       string `gorm:"index"`
	Hour      int
	Treatment string
	Count     int
	CreatedAt time.Time
}

// NightProportionRecord is the stored form of a night-window proportion row.
type NightProportionRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Region     string `gorm:"index"`
	Site       string
	Day        string `gorm:"index"`
	Detected   int
	Total      int
	Proportion float64
	CreatedAt  time.Time
}

// KernelOverlapRecord is the stored form of a treatment-pair kernel overlap.
type KernelOverlapRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Region     string `gorm:"index"`
	Sound      string `gorm:"index"`
	TreatmentA string
	TreatmentB string
	Overlap    float64
	CreatedAt  time.Time
}

// SQLiteStore implements Interface using a GORM SQLite database.
type SQLiteStore struct {
	Settings *conf.Settings
	DB       *gorm.DB
}

// New returns a store when SQLite output is enabled, nil otherwise.
func New(settings *conf.Settings) Interface {
	if !settings.Output.SQLite.Enabled {
		return nil
	}
	return &SQLiteStore{Settings: settings}
}

// Open opens the SQLite database and migrates the result tables.
func (s *SQLiteStore) Open() error {
	path := s.Settings.Output.SQLite.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Settings.BaseDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(
		&DailyCountRecord{},
		&ShannonRecord{},
		&RichnessRecord{},
		&NightProportionRecord{},
		&KernelOverlapRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	s.DB = db
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDailyCounts replaces the stored counts of one sound with the given rows.
func (s *SQLiteStore) SaveDailyCounts(sound string, rows []results.DailyCount) error {
	records := make([]DailyCountRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, DailyCountRecord{
			Sound:     sound,
			Region:    r.Region,
			Site:      r.Site,
			Day:       r.Day,
			Treatment: r.Treatment,
			Count:     r.Count,
		})
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sound = ?", sound).Delete(&DailyCountRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// SaveShannonScores replaces all stored Shannon rows.
func (s *SQLiteStore) SaveShannonScores(rows []results.ShannonScore) error {
	records := make([]ShannonRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, ShannonRecord{
			Region:    r.Region,
			Site:      r.Site,
			Day:       r.Day,
			Treatment: r.Treatment,
			Shannon:   r.Shannon,
		})
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ShannonRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// SaveRichnessScores replaces the stored richness rows of one granularity.
func (s *SQLiteStore) SaveRichnessScores(hourly bool, rows []results.RichnessScore) error {
	records := make([]RichnessRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, RichnessRecord{
			Region:    r.Region,
			Site:      r.Site,
			Day:       r.Day,
			Hour:      r.Hour,
			Treatment: r.Treatment,
			Count:     r.Count,
		})
	}
	cond := "hour = -1"
	if hourly {
		cond = "hour >= 0"
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(cond).Delete(&RichnessRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// SaveNightProportions replaces all stored night proportion rows.
func (s *SQLiteStore) SaveNightProportions(rows []results.NightProportion) error {
	records := make([]NightProportionRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, NightProportionRecord{
			Region:     r.Region,
			Site:       r.Site,
			Day:        r.Day,
			Detected:   r.Detected,
			Total:      r.Total,
			Proportion: r.Proportion,
		})
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&NightProportionRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}

// SaveKernelOverlaps replaces all stored kernel overlap rows.
func (s *SQLiteStore) SaveKernelOverlaps(rows []results.KernelOverlap) error {
	records := make([]KernelOverlapRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, KernelOverlapRecord{
			Region:     r.Region,
			Sound:      r.Sound,
			TreatmentA: r.TreatmentA,
			TreatmentB: r.TreatmentB,
			Overlap:    r.Overlap,
		})
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&KernelOverlapRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 200).Error
	})
}
