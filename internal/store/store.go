package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"gorm.io/gorm"
)

// DefaultNewCardsPerDay is the fallback seeded when a caller (tests, or
// a fresh deployment with no NEW_CARDS_PER_DAY override) doesn't have a
// more specific value to pass to AutoMigrateAll.
const DefaultNewCardsPerDay = 20

// Store is the sole gateway to persistent state shared by every component
// above it. It carries no HTTP awareness.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{db: db, log: baseLog.With("component", "Store")}
}

// AutoMigrateAll creates or updates every table this service owns and
// seeds the default meta entries on first start. newCardsPerDay seeds
// the new_cards_per_day meta entry — callers pass the configured
// NEW_CARDS_PER_DAY value (or DefaultNewCardsPerDay when none applies).
func (s *Store) AutoMigrateAll(ctx context.Context, newCardsPerDay int) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&VocabItem{},
		&KanjiItem{},
		&MemoryCard{},
		&ReviewEvent{},
		&Session{},
		&MetaEntry{},
	); err != nil {
		return MapError("Store.AutoMigrateAll", err)
	}
	return s.seedDefaults(ctx, newCardsPerDay)
}

func (s *Store) seedDefaults(ctx context.Context, newCardsPerDay int) error {
	defaults := map[string]string{
		MetaKeyJLPTFocus:      string(LevelN5),
		MetaKeyNewCardsPerDay: strconv.Itoa(newCardsPerDay),
		MetaKeySchemaVersion:  CurrentSchemaVersion,
	}
	for key, val := range defaults {
		entry := MetaEntry{Key: key, Value: val}
		if err := s.db.WithContext(ctx).
			Where("key = ?", key).
			FirstOrCreate(&entry).Error; err != nil {
			return MapError("Store.seedDefaults", err)
		}
	}
	return nil
}

// tx returns the transaction handle if one is supplied, else the store's
// own *gorm.DB, mirroring the optional-transaction idiom used by every
// method below.
func (s *Store) tx(handle *gorm.DB) *gorm.DB {
	if handle != nil {
		return handle
	}
	return s.db
}

// WithTransaction runs fn inside a single database transaction, rolling
// back on any returned error. ReviewTransaction does not go through this
// helper: it opens its transaction with db.Transaction itself.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Now is overridable in tests. SubmitReview reads the review clock
// through it; the session tracker calls time.Now directly.
var Now = func() time.Time { return time.Now() }
