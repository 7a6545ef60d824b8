package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nftmarket_go/internal/event"
)

// EventRecord is one journaled change event. The journal is
// append-only; Seq mirrors the engine's commit sequence.
type EventRecord struct {
	Seq       uint64 `gorm:"primaryKey"`
	Type      string `gorm:"index"`
	Payload   string
	CreatedAt time.Time
}

// AppMeta is a key-value table for journal metadata (application
// version at last run, schema markers).
type AppMeta struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Storage persists the marketplace event journal in SQLite.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (creating if needed) the journal database at path.
func NewStorage(path string) (*Storage, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite driver
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&EventRecord{}, &AppMeta{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// SaveEvent appends one committed event to the journal.
func (s *Storage) SaveEvent(ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", ev.GetSeq(), err)
	}
	rec := EventRecord{
		Seq:     ev.GetSeq(),
		Type:    ev.GetType(),
		Payload: string(payload),
	}
	return s.db.Create(&rec).Error
}

// LoadEvents returns all journaled events in sequence order.
func (s *Storage) LoadEvents() ([]event.Event, error) {
	var records []EventRecord
	if err := s.db.Order("seq asc").Find(&records).Error; err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(records))
	for _, rec := range records {
		ev, err := event.Decode(rec.Type, []byte(rec.Payload))
		if err != nil {
			return nil, fmt.Errorf("journal seq %d: %w", rec.Seq, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// LastSeq returns the highest journaled sequence number, 0 if empty.
func (s *Storage) LastSeq() (uint64, error) {
	var rec EventRecord
	err := s.db.Order("seq desc").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return rec.Seq, err
}

// SaveMeta stores a journal metadata entry.
func (s *Storage) SaveMeta(key, value string) error {
	return s.db.Save(&AppMeta{Key: key, Value: value}).Error
}

// LoadMeta retrieves a journal metadata entry; missing keys return "".
func (s *Storage) LoadMeta(key string) (string, error) {
	var meta AppMeta
	err := s.db.First(&meta, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return meta.Value, err
}
