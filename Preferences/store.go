package Preferences

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Preference is one local key-value flag
type Preference struct {
	Key   string `gorm:"primaryKey;size:128"`
	Value string
}

type Store struct {
	DB *gorm.DB
}

// Open opens (or creates) the sqlite file at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open preferences %s: %w", path, err)
	}
	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Preference{}); err != nil {
		return nil, fmt.Errorf("migrate preferences: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	var p Preference
	err := s.DB.Where("key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.Value, true, nil
}

func (s *Store) Set(key, value string) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Preference{Key: key, Value: value}).Error
}

func (s *Store) Delete(key string) error {
	return s.DB.Where("key = ?", key).Delete(&Preference{}).Error
}

func (s *Store) Bool(key string) bool {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
