package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/calendar"
	"gorm.io/gorm"
)

// GetCard returns the MemoryCard for (kind, itemID) or a not-found error.
func (s *Store) GetCard(ctx context.Context, tx *gorm.DB, kind ItemKind, itemID uint) (*MemoryCard, error) {
	var card MemoryCard
	if err := s.tx(tx).WithContext(ctx).
		Where("item_kind = ? AND item_id = ?", string(kind), itemID).
		First(&card).Error; err != nil {
		return nil, MapError("Store.GetCard", err)
	}
	return &card, nil
}

// CreateCard inserts a brand-new MemoryCard. The unique (item_kind,
// item_id) index turns a concurrent duplicate attempt into exactly one
// inserted row and one integrity error for every loser — no silent
// conflict ignoring.
func (s *Store) CreateCard(ctx context.Context, tx *gorm.DB, card *MemoryCard) error {
	if err := s.tx(tx).WithContext(ctx).Create(card).Error; err != nil {
		return MapError("Store.CreateCard", err)
	}
	return nil
}

// SelectDueCards returns MemoryCards whose due date is today or earlier,
// joined with their item's fields, sorted by due date ascending then id.
// The level filter is pushed into the query as a subquery against the
// item tables, rather than left for resolveCards to apply after the
// fact, so limit is applied to the already-level-filtered set instead
// of dropping rows after a limited fetch.
func (s *Store) SelectDueCards(ctx context.Context, level *Level, kind *ItemKind, today calendar.Date, limit int) ([]ResolvedCard, error) {
	var cards []MemoryCard
	q := s.db.WithContext(ctx).Model(&MemoryCard{}).Where("due_date <= ?", today)
	if kind != nil {
		q = q.Where("item_kind = ?", string(*kind))
	}
	if level != nil {
		switch {
		case kind != nil && *kind == ItemKindVocab:
			q = q.Where("item_id IN (SELECT id FROM vocab_items WHERE level = ?)", string(*level))
		case kind != nil && *kind == ItemKindKanji:
			q = q.Where("item_id IN (SELECT id FROM kanji_items WHERE level = ?)", string(*level))
		default:
			q = q.Where(
				"(item_kind = ? AND item_id IN (SELECT id FROM vocab_items WHERE level = ?)) OR "+
					"(item_kind = ? AND item_id IN (SELECT id FROM kanji_items WHERE level = ?))",
				string(ItemKindVocab), string(*level), string(ItemKindKanji), string(*level),
			)
		}
	}
	if err := q.Order("due_date ASC, id ASC").Limit(limit).Find(&cards).Error; err != nil {
		return nil, MapError("Store.SelectDueCards", err)
	}
	return s.resolveCards(ctx, cards, level)
}

// resolveCards joins each card with its item. When level is non-nil it
// also drops cards whose item is at another level; SelectDueCards has
// already applied the same filter in SQL, so for its cards this check
// removes nothing further.
func (s *Store) resolveCards(ctx context.Context, cards []MemoryCard, level *Level) ([]ResolvedCard, error) {
	var vocabIDs, kanjiIDs []uint
	for _, c := range cards {
		switch c.ItemKind {
		case ItemKindVocab:
			vocabIDs = append(vocabIDs, c.ItemID)
		case ItemKindKanji:
			kanjiIDs = append(kanjiIDs, c.ItemID)
		}
	}

	vocabByID := map[uint]VocabItem{}
	if len(vocabIDs) > 0 {
		var items []VocabItem
		if err := s.db.WithContext(ctx).Where("id IN ?", vocabIDs).Find(&items).Error; err != nil {
			return nil, MapError("Store.resolveCards", err)
		}
		for _, it := range items {
			vocabByID[it.ID] = it
		}
	}

	kanjiByID := map[uint]KanjiItem{}
	if len(kanjiIDs) > 0 {
		var items []KanjiItem
		if err := s.db.WithContext(ctx).Where("id IN ?", kanjiIDs).Find(&items).Error; err != nil {
			return nil, MapError("Store.resolveCards", err)
		}
		for _, it := range items {
			kanjiByID[it.ID] = it
		}
	}

	resolved := make([]ResolvedCard, 0, len(cards))
	for _, c := range cards {
		rc := ResolvedCard{MemoryCard: c}
		switch c.ItemKind {
		case ItemKindVocab:
			item, ok := vocabByID[c.ItemID]
			if !ok {
				continue
			}
			if level != nil && item.Level != *level {
				continue
			}
			rc.Surface = item.Surface
			rc.Reading = item.Reading
			rc.Gloss = item.Gloss
			rc.Level = item.Level
		case ItemKindKanji:
			item, ok := kanjiByID[c.ItemID]
			if !ok {
				continue
			}
			if level != nil && (item.Level == nil || *item.Level != *level) {
				continue
			}
			rc.Character = item.Character
			rc.Meanings = item.Meanings
			if item.Level != nil {
				rc.Level = *item.Level
			}
		}
		resolved = append(resolved, rc)
	}
	return resolved, nil
}

// NewItemCandidate is an item with no MemoryCard yet, returned by
// SelectNewItems. Exactly one of Vocab/Kanji is set.
type NewItemCandidate struct {
	Kind          ItemKind
	Vocab         *VocabItem
	Kanji         *KanjiItem
	Level         Level
	FrequencyRank *int
}

// SelectNewItems returns items for which no MemoryCard yet exists, limit
// already reduced by the caller to respect the daily intake cap. Ordering:
// by JLPT level (N5 to N1), then items with a frequency rank (ascending)
// before items without one; remaining ties keep vocabulary before kanji,
// each in id order. Only kanji carry a frequency rank.
func (s *Store) SelectNewItems(ctx context.Context, level *Level, kind *ItemKind, limit int) ([]NewItemCandidate, error) {
	var candidates []NewItemCandidate

	if kind == nil || *kind == ItemKindVocab {
		var items []VocabItem
		q := s.db.WithContext(ctx).Model(&VocabItem{}).
			Where("NOT EXISTS (SELECT 1 FROM memory_cards mc WHERE mc.item_kind = ? AND mc.item_id = vocab_items.id)", string(ItemKindVocab))
		if level != nil {
			q = q.Where("level = ?", string(*level))
		}
		if err := q.Order("id ASC").Find(&items).Error; err != nil {
			return nil, MapError("Store.SelectNewItems", err)
		}
		for i := range items {
			v := items[i]
			candidates = append(candidates, NewItemCandidate{Kind: ItemKindVocab, Vocab: &v, Level: v.Level})
		}
	}

	if kind == nil || *kind == ItemKindKanji {
		var items []KanjiItem
		q := s.db.WithContext(ctx).Model(&KanjiItem{}).
			Where("NOT EXISTS (SELECT 1 FROM memory_cards mc WHERE mc.item_kind = ? AND mc.item_id = kanji_items.id)", string(ItemKindKanji))
		if level != nil {
			q = q.Where("level = ?", string(*level))
		}
		if err := q.Order("id ASC").Find(&items).Error; err != nil {
			return nil, MapError("Store.SelectNewItems", err)
		}
		for i := range items {
			k := items[i]
			lvl := Level("")
			if k.Level != nil {
				lvl = *k.Level
			}
			candidates = append(candidates, NewItemCandidate{Kind: ItemKindKanji, Kanji: &k, Level: lvl, FrequencyRank: k.FrequencyRank})
		}
	}

	sortNewItemCandidates(candidates)
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func sortNewItemCandidates(candidates []NewItemCandidate) {
	levelRank := func(l Level) int {
		for i, lvl := range AllLevels {
			if lvl == l {
				return i
			}
		}
		return len(AllLevels)
	}
	// stable insertion-style sort keeps id order within ties, matching
	// the id-ascending order each sub-query already produced.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && lessNewItemCandidate(candidates[j], candidates[j-1], levelRank); j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}

func lessNewItemCandidate(a, b NewItemCandidate, levelRank func(Level) int) bool {
	ra, rb := levelRank(a.Level), levelRank(b.Level)
	if ra != rb {
		return ra < rb
	}
	switch {
	case a.FrequencyRank != nil && b.FrequencyRank != nil:
		return *a.FrequencyRank < *b.FrequencyRank
	case a.FrequencyRank != nil:
		return true
	case b.FrequencyRank != nil:
		return false
	default:
		return false
	}
}

// CountCardsCreatedOn counts MemoryCards whose created_at falls within
// the given calendar day, used for the daily new-card intake cap.
func (s *Store) CountCardsCreatedOn(ctx context.Context, day calendar.Date) (int64, error) {
	start, end := day.Bounds()
	var count int64
	if err := s.db.WithContext(ctx).Model(&MemoryCard{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		return 0, MapError("Store.CountCardsCreatedOn", err)
	}
	return count, nil
}

// ReviewResult is what ReviewTransaction hands back after committing.
type ReviewResult struct {
	Card             MemoryCard
	SessionCorrect   int
	SessionIncorrect int
}

// ReviewTransaction upserts the post-transition card, appends a
// ReviewEvent, and increments the session's counters, all inside one
// database transaction. cardExists distinguishes "update this row" from
// "insert it for the first time" since the caller already knows which
// case applies from its prior GetCard call.
func (s *Store) ReviewTransaction(ctx context.Context, cardExists bool, card MemoryCard, sessionID uint, grade int, now time.Time) (*ReviewResult, error) {
	var result ReviewResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cardExists {
			if err := tx.Model(&MemoryCard{}).Where("id = ?", card.ID).
				Updates(map[string]interface{}{
					"ease_factor":   card.EaseFactor,
					"interval_days": card.IntervalDays,
					"reps":          card.Reps,
					"due_date":      card.DueDate,
					"last_reviewed": card.LastReviewed,
				}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&card).Error; err != nil {
				return err
			}
		}

		event := ReviewEvent{SessionID: sessionID, CardID: card.ID, Grade: grade, Timestamp: now}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		correctIncrement, incorrectIncrement := 0, 0
		if grade >= 3 {
			correctIncrement = 1
		} else {
			incorrectIncrement = 1
		}

		var session Session
		if err := tx.Model(&Session{}).Where("id = ?", sessionID).First(&session).Error; err != nil {
			return err
		}
		session.CardsReviewed++
		session.CorrectCount += correctIncrement
		session.IncorrectCount += incorrectIncrement
		if err := tx.Model(&Session{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"cards_reviewed":  session.CardsReviewed,
			"correct_count":   session.CorrectCount,
			"incorrect_count": session.IncorrectCount,
		}).Error; err != nil {
			return err
		}

		result = ReviewResult{Card: card, SessionCorrect: session.CorrectCount, SessionIncorrect: session.IncorrectCount}
		return nil
	})
	if err != nil {
		return nil, MapError("Store.ReviewTransaction", err)
	}
	return &result, nil
}

// GetMetaInt reads a meta entry and parses it as a non-negative integer.
func (s *Store) GetMetaInt(ctx context.Context, key string) (int, error) {
	var entry MetaEntry
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error; err != nil {
		return 0, MapError("Store.GetMetaInt", err)
	}
	n, err := parseNonNegativeInt(entry.Value)
	if err != nil {
		return 0, apperr.Internal("Store.GetMetaInt", err)
	}
	return n, nil
}

// parseNonNegativeInt parses s strictly: any negative value is an error,
// never silently clamped, so callers validating user input (UpdateMeta)
// and callers reading already-trusted stored values (GetMetaInt) see
// the same rejection.
func parseNonNegativeInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscan(s, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("store: value %q is negative", s)
	}
	return n, nil
}
