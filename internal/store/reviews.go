package store

import (
	"context"
)

// RecentReviewItem names an item touched by one of the most recent
// reviews, resolved to its surface form for prompt context assembly.
type RecentReviewItem struct {
	Kind    ItemKind
	Surface string
}

// ListRecentReviewItems returns the surface forms of the items behind the
// most recent ReviewEvents, most recent first, capped at limit.
func (s *Store) ListRecentReviewItems(ctx context.Context, limit int) ([]RecentReviewItem, error) {
	var events []ReviewEvent
	if err := s.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, MapError("Store.ListRecentReviewItems", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	cardIDs := make([]uint, 0, len(events))
	for _, e := range events {
		cardIDs = append(cardIDs, e.CardID)
	}
	var cards []MemoryCard
	if err := s.db.WithContext(ctx).Where("id IN ?", cardIDs).Find(&cards).Error; err != nil {
		return nil, MapError("Store.ListRecentReviewItems", err)
	}
	cardByID := map[uint]MemoryCard{}
	for _, c := range cards {
		cardByID[c.ID] = c
	}

	resolved, err := s.resolveCards(ctx, cards, nil)
	if err != nil {
		return nil, err
	}
	surfaceByCardID := map[uint]RecentReviewItem{}
	for _, rc := range resolved {
		surface := rc.Surface
		if rc.MemoryCard.ItemKind == ItemKindKanji {
			surface = rc.Character
		}
		surfaceByCardID[rc.MemoryCard.ID] = RecentReviewItem{Kind: rc.MemoryCard.ItemKind, Surface: surface}
	}

	out := make([]RecentReviewItem, 0, len(events))
	seen := map[uint]bool{}
	for _, e := range events {
		if seen[e.CardID] {
			continue
		}
		if item, ok := surfaceByCardID[e.CardID]; ok {
			out = append(out, item)
			seen[e.CardID] = true
		}
	}
	return out, nil
}

// ListWeakestCards returns the memory cards with the lowest ease factor,
// resolved with their surface forms, for prompt context assembly.
func (s *Store) ListWeakestCards(ctx context.Context, limit int) ([]ResolvedCard, error) {
	var cards []MemoryCard
	if err := s.db.WithContext(ctx).Order("ease_factor ASC, id ASC").Limit(limit).Find(&cards).Error; err != nil {
		return nil, MapError("Store.ListWeakestCards", err)
	}
	return s.resolveCards(ctx, cards, nil)
}

// ReviewEventsForCard returns a card's full review history in timestamp
// order, used to verify that replaying it through the scheduler's
// transition function reconstructs the persisted state.
func (s *Store) ReviewEventsForCard(ctx context.Context, cardID uint) ([]ReviewEvent, error) {
	var events []ReviewEvent
	if err := s.db.WithContext(ctx).Where("card_id = ?", cardID).Order("timestamp ASC, id ASC").Find(&events).Error; err != nil {
		return nil, MapError("Store.ReviewEventsForCard", err)
	}
	return events, nil
}
