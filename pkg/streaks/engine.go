// Package streaks tracks consecutive successful study days per user. A day
// succeeds when every tracked deck reported zero due cards by the day
// boundary; a missing report counts as failure, not as a skipped day.
package streaks

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Summary struct {
	Length         int
	LastSuccessDay *time.Time
	TrackedDecks   []string
}

type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeReset
	OutcomeIncremented
	OutcomeAlreadyEvaluated
)

// Ingest stores the latest due counts reported by the client and the
// running new-cards total for the day. It never changes streak length;
// that happens only at the day boundary.
func Ingest(userID int64, dueCounts map[string]int, newCardsToday int, now time.Time) error {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	record, err := getOrCreateLocked(userID)
	if err != nil {
		return err
	}

	known, err := decodeCounts(record.DueCounts)
	if err != nil {
		return err
	}
	for deck, due := range dueCounts {
		known[deck] = due
	}

	record.DueCounts, err = encodeJSON(known)
	if err != nil {
		return err
	}
	if newCardsToday > record.NewCardsToday {
		record.NewCardsToday = newCardsToday
	}
	record.LastReportAt = &now
	return db.DB.Save(&record).Error
}

// EvaluateBoundary closes out the local day that ended at the boundary.
// since is the previous boundary instant; a record with no report in
// (since, boundary] resets. Re-evaluating an already closed day is a
// no-op, so restarts cannot double-count.
func EvaluateBoundary(userID int64, day time.Time, since time.Time) (Outcome, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	var record db.StreakRecord
	err := db.DB.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	if record.LastEvaluatedDay != nil && !day.After(*record.LastEvaluatedDay) {
		return OutcomeAlreadyEvaluated, nil
	}

	decks, err := decodeDecks(record.TrackedDecks)
	if err != nil {
		return OutcomeSkipped, err
	}

	outcome := OutcomeSkipped
	if len(decks) > 0 {
		switch {
		case record.LastReportAt == nil || record.LastReportAt.Before(since):
			record.Length = 0
			outcome = OutcomeReset
		case allDecksDone(decks, record.DueCounts):
			record.Length++
			d := day
			record.LastSuccessDay = &d
			outcome = OutcomeIncremented
		default:
			record.Length = 0
			outcome = OutcomeReset
		}
	}

	d := day
	record.LastEvaluatedDay = &d
	record.NewCardsToday = 0
	if err := db.DB.Save(&record).Error; err != nil {
		return OutcomeSkipped, err
	}
	return outcome, nil
}

// Track adds a deck to the tracked set. Takes effect at the next boundary.
func Track(userID int64, deck string) ([]string, error) {
	return updateDecks(userID, func(decks []string) []string {
		for _, d := range decks {
			if d == deck {
				return decks
			}
		}
		return append(decks, deck)
	})
}

// Untrack removes a deck from the tracked set.
func Untrack(userID int64, deck string) ([]string, error) {
	return updateDecks(userID, func(decks []string) []string {
		kept := decks[:0]
		for _, d := range decks {
			if d != deck {
				kept = append(kept, d)
			}
		}
		return kept
	})
}

// Get returns the user's streak summary; a user without a record gets the
// zero summary.
func Get(userID int64) (Summary, error) {
	var record db.StreakRecord
	err := db.DB.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Summary{TrackedDecks: []string{}}, nil
	}
	if err != nil {
		return Summary{}, err
	}
	decks, err := decodeDecks(record.TrackedDecks)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Length:         record.Length,
		LastSuccessDay: record.LastSuccessDay,
		TrackedDecks:   decks,
	}, nil
}

// HasDueCards reports whether any tracked deck has a nonzero last known
// due count. Drives reminder dispatch.
func HasDueCards(userID int64) (bool, error) {
	var record db.StreakRecord
	err := db.DB.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	decks, err := decodeDecks(record.TrackedDecks)
	if err != nil {
		return false, err
	}
	if len(decks) == 0 {
		return false, nil
	}
	return !allDecksDone(decks, record.DueCounts), nil
}

type Entry struct {
	UserID   int64
	Streak   int
	NewCards int
}

// Leaderboard ranks users with at least one tracked deck by streak length,
// then new cards learned today, then user id. The last key makes the
// order a total one.
func Leaderboard() ([]Entry, error) {
	var records []db.StreakRecord
	if err := db.DB.Find(&records).Error; err != nil {
		return nil, err
	}

	var disabled []int64
	if err := db.DB.Model(&db.User{}).Where("disabled = ?", true).Pluck("user_id", &disabled).Error; err != nil {
		return nil, err
	}
	skip := make(map[int64]bool, len(disabled))
	for _, id := range disabled {
		skip[id] = true
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		if skip[record.UserID] {
			continue
		}
		decks, err := decodeDecks(record.TrackedDecks)
		if err != nil {
			return nil, err
		}
		if len(decks) == 0 {
			continue
		}
		entries = append(entries, Entry{
			UserID:   record.UserID,
			Streak:   record.Length,
			NewCards: record.NewCardsToday,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		if entries[i].NewCards != entries[j].NewCards {
			return entries[i].NewCards > entries[j].NewCards
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

func updateDecks(userID int64, apply func([]string) []string) ([]string, error) {
	db.Locks.Lock(userID)
	defer db.Locks.Unlock(userID)

	record, err := getOrCreateLocked(userID)
	if err != nil {
		return nil, err
	}
	decks, err := decodeDecks(record.TrackedDecks)
	if err != nil {
		return nil, err
	}
	decks = apply(decks)
	record.TrackedDecks, err = encodeJSON(decks)
	if err != nil {
		return nil, err
	}
	if err := db.DB.Save(&record).Error; err != nil {
		return nil, err
	}
	return decks, nil
}

func getOrCreateLocked(userID int64) (db.StreakRecord, error) {
	var record db.StreakRecord
	err := db.DB.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = db.StreakRecord{
			UserID:       userID,
			TrackedDecks: datatypes.JSON([]byte("[]")),
			DueCounts:    datatypes.JSON([]byte("{}")),
		}
		if err := db.DB.Create(&record).Error; err != nil {
			return db.StreakRecord{}, err
		}
		return record, nil
	}
	return record, err
}

func allDecksDone(decks []string, counts datatypes.JSON) bool {
	known, err := decodeCounts(counts)
	if err != nil {
		return false
	}
	for _, deck := range decks {
		due, ok := known[deck]
		if !ok || due != 0 {
			return false
		}
	}
	return true
}

func decodeDecks(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var decks []string
	if err := json.Unmarshal(raw, &decks); err != nil {
		return nil, fmt.Errorf("decode tracked decks: %w", err)
	}
	return decks, nil
}

func decodeCounts(raw datatypes.JSON) (map[string]int, error) {
	counts := make(map[string]int)
	if len(raw) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("decode due counts: %w", err)
	}
	return counts, nil
}

func encodeJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
