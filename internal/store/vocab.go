package store

import (
	"context"

	"gorm.io/gorm"
)

// GetVocabByID returns the vocab item or a not-found error.
func (s *Store) GetVocabByID(ctx context.Context, tx *gorm.DB, id uint) (*VocabItem, error) {
	var item VocabItem
	if err := s.tx(tx).WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, MapError("Store.GetVocabByID", err)
	}
	return &item, nil
}

// ListVocabParams filters and paginates a vocab listing.
type ListVocabParams struct {
	Level    *Level
	Search   string
	Page     int
	PageSize int
}

// ListVocab returns a page of vocab items plus the total matching count.
// Search matches surface, reading, and gloss case-insensitively. Ordering
// is by id ascending, stable for pagination.
func (s *Store) ListVocab(ctx context.Context, params ListVocabParams) ([]VocabItem, int64, error) {
	q := s.db.WithContext(ctx).Model(&VocabItem{})
	q = applyVocabFilters(q, params)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, MapError("Store.ListVocab", err)
	}

	var items []VocabItem
	offset := (params.Page - 1) * params.PageSize
	listQ := s.db.WithContext(ctx).Model(&VocabItem{})
	listQ = applyVocabFilters(listQ, params)
	if err := listQ.Order("id ASC").Offset(offset).Limit(params.PageSize).Find(&items).Error; err != nil {
		return nil, 0, MapError("Store.ListVocab", err)
	}
	return items, total, nil
}

func applyVocabFilters(q *gorm.DB, params ListVocabParams) *gorm.DB {
	if params.Level != nil {
		q = q.Where("level = ?", string(*params.Level))
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		q = q.Where("LOWER(surface) LIKE LOWER(?) OR LOWER(reading) LIKE LOWER(?) OR LOWER(gloss) LIKE LOWER(?)", like, like, like)
	}
	return q
}
