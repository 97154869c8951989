package store

import (
	"context"

	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"gorm.io/gorm/clause"
)

// GetAllMeta returns every MetaEntry as a key-value map.
func (s *Store) GetAllMeta(ctx context.Context) (map[string]string, error) {
	var entries []MetaEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, MapError("Store.GetAllMeta", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

// GetMeta returns a single meta value or a not-found error.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var entry MetaEntry
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error; err != nil {
		return "", MapError("Store.GetMeta", err)
	}
	return entry.Value, nil
}

// UpdateMeta upserts one or more key-value settings. jlpt_focus is
// validated against the five JLPT levels and new_cards_per_day against a
// non-negative integer.
func (s *Store) UpdateMeta(ctx context.Context, updates map[string]string) (map[string]string, error) {
	if lvl, ok := updates[MetaKeyJLPTFocus]; ok {
		if !Level(lvl).Valid() {
			return nil, apperr.Validation("Store.UpdateMeta", "jlpt_focus must be one of N5,N4,N3,N2,N1")
		}
	}
	if raw, ok := updates[MetaKeyNewCardsPerDay]; ok {
		if _, err := parseNonNegativeInt(raw); err != nil {
			return nil, apperr.Validation("Store.UpdateMeta", "new_cards_per_day must be a non-negative integer")
		}
	}

	for key, value := range updates {
		entry := MetaEntry{Key: key, Value: value}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&entry).Error
		if err != nil {
			return nil, MapError("Store.UpdateMeta", err)
		}
	}
	return s.GetAllMeta(ctx)
}
