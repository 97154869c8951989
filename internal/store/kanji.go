package store

import (
	"context"

	"gorm.io/gorm"
)

// GetKanjiByCharacter returns the kanji item or a not-found error.
func (s *Store) GetKanjiByCharacter(ctx context.Context, tx *gorm.DB, character string) (*KanjiItem, error) {
	var item KanjiItem
	if err := s.tx(tx).WithContext(ctx).Where("character = ?", character).First(&item).Error; err != nil {
		return nil, MapError("Store.GetKanjiByCharacter", err)
	}
	return &item, nil
}

// GetKanjiByID returns the kanji item or a not-found error.
func (s *Store) GetKanjiByID(ctx context.Context, tx *gorm.DB, id uint) (*KanjiItem, error) {
	var item KanjiItem
	if err := s.tx(tx).WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, MapError("Store.GetKanjiByID", err)
	}
	return &item, nil
}

// ListKanjiParams filters and paginates a kanji listing.
type ListKanjiParams struct {
	Level    *Level
	Search   string
	Page     int
	PageSize int
}

// ListKanji returns a page of kanji items plus the total matching count.
// Search matches the character and meanings case-insensitively. Ordering
// is by id ascending, stable for pagination.
func (s *Store) ListKanji(ctx context.Context, params ListKanjiParams) ([]KanjiItem, int64, error) {
	q := s.db.WithContext(ctx).Model(&KanjiItem{})
	q = applyKanjiFilters(q, params)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, MapError("Store.ListKanji", err)
	}

	var items []KanjiItem
	offset := (params.Page - 1) * params.PageSize
	listQ := s.db.WithContext(ctx).Model(&KanjiItem{})
	listQ = applyKanjiFilters(listQ, params)
	if err := listQ.Order("id ASC").Offset(offset).Limit(params.PageSize).Find(&items).Error; err != nil {
		return nil, 0, MapError("Store.ListKanji", err)
	}
	return items, total, nil
}

func applyKanjiFilters(q *gorm.DB, params ListKanjiParams) *gorm.DB {
	if params.Level != nil {
		q = q.Where("level = ?", string(*params.Level))
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		q = q.Where("character LIKE ? OR LOWER(meanings) LIKE LOWER(?)", like, like)
	}
	return q
}
