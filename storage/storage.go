package storage

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/furkansenharputlu/f-keyfile/config"
	"github.com/furkansenharputlu/f-keyfile/lcs"
)

// Handler stores the license check history.
type Handler interface {
	Add(r *CheckRecord) error
	Get(id string) (*CheckRecord, error)
	// GetAll returns the newest records first; limit <= 0 means no limit.
	GetAll(limit int) ([]*CheckRecord, error)
	DeleteByID(id string) error
	DropDatabase() error
	Close() error
}

// Connect opens the backend selected by c.Database.
func Connect(c *config.Config) (Handler, error) {
	switch c.Database {
	case "mongo":
		return ConnectMongo(c.DatabaseOptions.Mongo)
	case "file":
		return NewFileHandler(c.DatabaseOptions.File.Dir), nil
	default:
		return ConnectSQLite(c.DatabaseOptions.SQLite.Path)
	}
}

// Recorder returns a check observer that stores every outcome in h.
func Recorder(h Handler) func(lcs.Outcome) {
	return func(o lcs.Outcome) {
		r := NewCheckRecord(o)
		if err := h.Add(r); err != nil {
			logrus.WithError(err).Error("Couldn't store license check")
			return
		}
		logrus.WithField("id", r.ID).Debug("License check stored")
	}
}

type sqlHandler struct {
	db *gorm.DB
}

func ConnectSQLite(path string) (Handler, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrap(err, "problem while connecting to SQL")
	}

	if err := db.AutoMigrate(&CheckRecord{}); err != nil {
		return nil, errors.Wrap(err, "problem while creating SQL tables")
	}

	return sqlHandler{db: db}, nil
}

func (s sqlHandler) Add(r *CheckRecord) error {
	return s.db.Create(r).Error
}

func (s sqlHandler) Get(id string) (*CheckRecord, error) {
	var r CheckRecord
	err := s.db.Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (s sqlHandler) GetAll(limit int) ([]*CheckRecord, error) {
	records := make([]*CheckRecord, 0)
	q := s.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	return records, q.Find(&records).Error
}

func (s sqlHandler) DeleteByID(id string) error {
	res := s.db.Where("id = ?", id).Delete(&CheckRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s sqlHandler) DropDatabase() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CheckRecord{}).Error
}

func (s sqlHandler) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
