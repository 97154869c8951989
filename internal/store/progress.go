package store

import (
	"context"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
)

// DistinctReviewDates returns every local calendar date on which at
// least one ReviewEvent exists, used to compute the streak.
func (s *Store) DistinctReviewDates(ctx context.Context) ([]calendar.Date, error) {
	var timestamps []struct {
		Timestamp string
	}
	// SQLite and Postgres both accept DATE(column) for a calendar-day
	// truncation; this is the one query in the package that reaches for
	// raw SQL instead of the builder, since SELECT DISTINCT DATE(...) has
	// no cleaner gorm builder expression.
	if err := s.db.WithContext(ctx).Raw(
		"SELECT DISTINCT DATE(timestamp) AS timestamp FROM review_events",
	).Scan(&timestamps).Error; err != nil {
		return nil, MapError("Store.DistinctReviewDates", err)
	}
	dates := make([]calendar.Date, 0, len(timestamps))
	for _, row := range timestamps {
		var d calendar.Date
		if err := d.Scan(row.Timestamp); err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// AccuracyTotals returns the count of correct (grade >= 3) and total
// ReviewEvents across all time.
func (s *Store) AccuracyTotals(ctx context.Context) (correct, total int64, err error) {
	if err = s.db.WithContext(ctx).Model(&ReviewEvent{}).Count(&total).Error; err != nil {
		return 0, 0, MapError("Store.AccuracyTotals", err)
	}
	if err = s.db.WithContext(ctx).Model(&ReviewEvent{}).Where("grade >= 3").Count(&correct).Error; err != nil {
		return 0, 0, MapError("Store.AccuracyTotals", err)
	}
	return correct, total, nil
}

// LevelStat is one row of the per-level progress breakdown.
type LevelStat struct {
	Level    Level
	Total    int64
	Seen     int64
	Mastered int64
	DueToday int64
}

// LevelStats returns total/seen/mastered/due-today counts for every
// JLPT level.
func (s *Store) LevelStats(ctx context.Context, today calendar.Date) ([]LevelStat, error) {
	stats := make([]LevelStat, 0, len(AllLevels))
	for _, level := range AllLevels {
		stat := LevelStat{Level: level}

		var vocabTotal, kanjiTotal int64
		if err := s.db.WithContext(ctx).Model(&VocabItem{}).Where("level = ?", string(level)).Count(&vocabTotal).Error; err != nil {
			return nil, MapError("Store.LevelStats", err)
		}
		if err := s.db.WithContext(ctx).Model(&KanjiItem{}).Where("level = ?", string(level)).Count(&kanjiTotal).Error; err != nil {
			return nil, MapError("Store.LevelStats", err)
		}
		stat.Total = vocabTotal + kanjiTotal

		vocabIDs, kanjiIDs, err := s.itemIDsAtLevel(ctx, level)
		if err != nil {
			return nil, err
		}

		seen, mastered, dueToday, err := s.cardCountsForItems(ctx, vocabIDs, kanjiIDs, today)
		if err != nil {
			return nil, err
		}
		stat.Seen = seen
		stat.Mastered = mastered
		stat.DueToday = dueToday

		stats = append(stats, stat)
	}
	return stats, nil
}

func (s *Store) itemIDsAtLevel(ctx context.Context, level Level) (vocabIDs, kanjiIDs []uint, err error) {
	if err = s.db.WithContext(ctx).Model(&VocabItem{}).Where("level = ?", string(level)).Pluck("id", &vocabIDs).Error; err != nil {
		return nil, nil, MapError("Store.itemIDsAtLevel", err)
	}
	if err = s.db.WithContext(ctx).Model(&KanjiItem{}).Where("level = ?", string(level)).Pluck("id", &kanjiIDs).Error; err != nil {
		return nil, nil, MapError("Store.itemIDsAtLevel", err)
	}
	return vocabIDs, kanjiIDs, nil
}

func (s *Store) cardCountsForItems(ctx context.Context, vocabIDs, kanjiIDs []uint, today calendar.Date) (seen, mastered, dueToday int64, err error) {
	if len(vocabIDs) == 0 && len(kanjiIDs) == 0 {
		return 0, 0, 0, nil
	}
	q := s.db.WithContext(ctx).Model(&MemoryCard{}).Where(
		"(item_kind = ? AND item_id IN ?) OR (item_kind = ? AND item_id IN ?)",
		string(ItemKindVocab), vocabIDs, string(ItemKindKanji), kanjiIDs,
	)
	if err = q.Count(&seen).Error; err != nil {
		return 0, 0, 0, MapError("Store.cardCountsForItems", err)
	}

	matureQ := s.db.WithContext(ctx).Model(&MemoryCard{}).Where(
		"((item_kind = ? AND item_id IN ?) OR (item_kind = ? AND item_id IN ?)) AND interval_days >= ?",
		string(ItemKindVocab), vocabIDs, string(ItemKindKanji), kanjiIDs, 21,
	)
	if err = matureQ.Count(&mastered).Error; err != nil {
		return 0, 0, 0, MapError("Store.cardCountsForItems", err)
	}

	dueQ := s.db.WithContext(ctx).Model(&MemoryCard{}).Where(
		"((item_kind = ? AND item_id IN ?) OR (item_kind = ? AND item_id IN ?)) AND due_date <= ?",
		string(ItemKindVocab), vocabIDs, string(ItemKindKanji), kanjiIDs, today,
	)
	if err = dueQ.Count(&dueToday).Error; err != nil {
		return 0, 0, 0, MapError("Store.cardCountsForItems", err)
	}
	return seen, mastered, dueToday, nil
}

// ForecastDay is the due-count for one future calendar date.
type ForecastDay struct {
	Date  calendar.Date
	Count int64
}

// Forecast returns the count of MemoryCards due on each of today..today+6.
// Days with zero cards due are still present in the result.
func (s *Store) Forecast(ctx context.Context, today calendar.Date) ([]ForecastDay, error) {
	days := make([]ForecastDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDays(i)
		var count int64
		if err := s.db.WithContext(ctx).Model(&MemoryCard{}).Where("due_date = ?", day).Count(&count).Error; err != nil {
			return nil, MapError("Store.Forecast", err)
		}
		days = append(days, ForecastDay{Date: day, Count: count})
	}
	return days, nil
}
