// Package store is the sole gateway to persistent state: vocabulary, kanji,
// per-item memory cards, the append-only review log, sessions, and
// key-value settings. No component outside this package talks to the
// database directly.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
)

// ItemKind is a tagged variant distinguishing vocabulary from kanji,
// replacing a loose string column.
type ItemKind string

const (
	ItemKindVocab ItemKind = "vocab"
	ItemKindKanji ItemKind = "kanji"
)

func (k ItemKind) Valid() bool {
	return k == ItemKindVocab || k == ItemKindKanji
}

// Level is a JLPT level, N5 (elementary) through N1 (advanced).
type Level string

const (
	LevelN5 Level = "N5"
	LevelN4 Level = "N4"
	LevelN3 Level = "N3"
	LevelN2 Level = "N2"
	LevelN1 Level = "N1"
)

func (l Level) Valid() bool {
	switch l {
	case LevelN5, LevelN4, LevelN3, LevelN2, LevelN1:
		return true
	}
	return false
}

// AllLevels enumerates levels in N5-to-N1 order, the ordering
// select-new-items and the per-level progress stats both follow.
var AllLevels = []Level{LevelN5, LevelN4, LevelN3, LevelN2, LevelN1}

// StringList is an ordered list of strings (on-readings, kun-readings,
// meanings) persisted as a JSON array column. gorm's own datatypes.JSON
// helper targets Postgres' jsonb operators, which this column never
// queries into — a plain json.Marshal-backed Scanner/Valuer is the
// smaller, dependency-free fit for an opaque ordered list.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("store: unsupported StringList scan source %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// VocabItem is a learnable word. Inserted once by the ingestion pipeline
// (out of scope here); read-only thereafter.
type VocabItem struct {
	ID           uint   `gorm:"primaryKey"`
	Surface      string `gorm:"column:surface;not null;index:idx_vocab_surface"`
	Reading      string `gorm:"column:reading;not null"`
	Gloss        string `gorm:"column:gloss;not null"`
	PartOfSpeech string `gorm:"column:part_of_speech"`
	Level        Level  `gorm:"column:level;not null;index:idx_vocab_level"`
	ExampleJP    *string `gorm:"column:example_jp"`
	ExampleEN    *string `gorm:"column:example_en"`
}

func (VocabItem) TableName() string { return "vocab_items" }

// KanjiItem is a learnable character. Inserted once by ingestion;
// read-only thereafter.
type KanjiItem struct {
	ID            uint       `gorm:"primaryKey"`
	Character     string     `gorm:"column:character;not null;uniqueIndex:idx_kanji_character"`
	OnReadings    StringList `gorm:"column:on_readings;type:text"`
	KunReadings   StringList `gorm:"column:kun_readings;type:text"`
	Meanings      StringList `gorm:"column:meanings;type:text"`
	StrokeCount   int        `gorm:"column:stroke_count;not null"`
	Level         *Level     `gorm:"column:level;index:idx_kanji_level"`
	FrequencyRank *int       `gorm:"column:frequency_rank;index:idx_kanji_frequency"`
	ExampleJP     *string    `gorm:"column:example_jp"`
	ExampleEN     *string    `gorm:"column:example_en"`
}

func (KanjiItem) TableName() string { return "kanji_items" }

// MemoryCard is the SM-2 memory state for one (item kind, item id) pair.
// Created on first review; updated on every subsequent one; never deleted.
type MemoryCard struct {
	ID           uint          `gorm:"primaryKey"`
	ItemKind     ItemKind      `gorm:"column:item_kind;not null;index:idx_memory_card_item,unique,priority:1"`
	ItemID       uint          `gorm:"column:item_id;not null;index:idx_memory_card_item,unique,priority:2"`
	EaseFactor   float64       `gorm:"column:ease_factor;not null"`
	IntervalDays int           `gorm:"column:interval_days;not null"`
	Reps         int           `gorm:"column:reps;not null"`
	DueDate      calendar.Date `gorm:"column:due_date;type:date;not null;index:idx_memory_card_due"`
	LastReviewed *time.Time    `gorm:"column:last_reviewed"`
	// CreatedAt backs the daily intake-cap count: "cards created today"
	// is counted from this column, not from last_reviewed, so a
	// resubmitted first review can't shift a card's creation date.
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_memory_card_created"`
}

func (MemoryCard) TableName() string { return "memory_cards" }

// ReviewEvent is an append-only log entry for one graded review.
type ReviewEvent struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"column:session_id;not null;index:idx_review_session"`
	CardID    uint      `gorm:"column:card_id;not null;index:idx_review_card"`
	Grade     int       `gorm:"column:grade;not null"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_review_timestamp"`
}

func (ReviewEvent) TableName() string { return "review_events" }

// Session is one contiguous review sitting.
type Session struct {
	ID             uint       `gorm:"primaryKey"`
	StartedAt      time.Time  `gorm:"column:started_at;not null"`
	EndedAt        *time.Time `gorm:"column:ended_at"`
	CardsReviewed  int        `gorm:"column:cards_reviewed;not null;default:0"`
	CorrectCount   int        `gorm:"column:correct_count;not null;default:0"`
	IncorrectCount int        `gorm:"column:incorrect_count;not null;default:0"`
}

func (Session) TableName() string { return "sessions" }

// MetaEntry is a key-value setting, e.g. jlpt_focus, new_cards_per_day.
type MetaEntry struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}

func (MetaEntry) TableName() string { return "meta_entries" }

const (
	MetaKeyJLPTFocus      = "jlpt_focus"
	MetaKeyNewCardsPerDay = "new_cards_per_day"
	MetaKeySchemaVersion  = "schema_version"
)

// CurrentSchemaVersion is the witness value seeded into meta on first
// start and reported by /api/health. Bumped whenever AutoMigrateAll's
// effective shape changes.
const CurrentSchemaVersion = "1"

// ResolvedCard is a MemoryCard joined with its item's fields — a response
// record, not a persisted table, split from MemoryCard per the design
// note against reusing a single dynamically-typed row as both the
// persisted entity and the shape handed back to clients.
type ResolvedCard struct {
	MemoryCard
	Surface      string
	Reading      string
	Gloss        string
	Character    string
	Meanings     StringList
	Level        Level
}
