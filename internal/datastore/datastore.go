// Package datastore persists one record per finished grid cell to SQLite.
// The CSV artifacts under output/ stay the source of truth; the database
// exists so long experiment campaigns can be queried without scraping files.
package datastore

import (
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/logging"
)

var logger *slog.Logger = logging.ForService("datastore")

// RunRecord is the aggregated outcome of one (model, learning-rate) cell.
type RunRecord struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement"`
	LogID        string `gorm:"index"`
	DataSource   string
	ModelType    string `gorm:"index"`
	LearningRate float64
	Seeds        int // number of seeds averaged (single-split family)
	ValUAR       float64
	UAR          float64
	Recall1      float64
	Specificity  float64
	F1           float64
	CreatedAt    time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, dbError(err, "open")
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, dbError(err, "migrate")
	}

	logger.Debug("run datastore opened", "path", path)
	return &Store{db: db}, nil
}

// SaveRun inserts one cell record.
func (s *Store) SaveRun(record *RunRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return dbError(err, "insert")
	}
	return nil
}

// RunsByLogID returns all cell records of one experiment, oldest first.
func (s *Store) RunsByLogID(logID string) ([]RunRecord, error) {
	var records []RunRecord
	if err := s.db.Where("log_id = ?", logID).Order("id").Find(&records).Error; err != nil {
		return nil, dbError(err, "query")
	}
	return records, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	return sqlDB.Close()
}

func dbError(err error, op string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Build()
}
