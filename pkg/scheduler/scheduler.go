// Package scheduler drives the daily cycle: streak evaluation at the day
// boundary, per-user reminders, leaderboard publication, and retention
// pruning. A minute ticker feeds Tick; all date math happens in a single
// configured time zone and every check takes `now` as an argument, so
// tests inject synthetic clocks instead of sleeping.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/cards"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/streaks"
)

// Sender delivers a message to a chat. Implemented by the Telegram bot in
// production and by fakes in tests.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

const deliveryAttempts = 3

type Options struct {
	Timezone        string
	BoundaryTime    string // "HH:MM"
	LeaderboardTime string // "HH:MM"
	AnnounceChatID  int64
	RetentionDays   int
}

type Scheduler struct {
	sender Sender
	loc    *time.Location

	boundaryHour   int
	boundaryMinute int
	boardHour      int
	boardMinute    int
	announceChatID int64
	retention      time.Duration

	lastBoundary time.Time
	lastBoardDay time.Time
	lastPruneDay time.Time
}

func New(sender Sender, opts Options) (*Scheduler, error) {
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", opts.Timezone, err)
	}
	bh, bm, err := parseClock(opts.BoundaryTime)
	if err != nil {
		return nil, fmt.Errorf("boundary time: %w", err)
	}
	lh, lm, err := parseClock(opts.LeaderboardTime)
	if err != nil {
		return nil, fmt.Errorf("leaderboard time: %w", err)
	}
	retentionDays := opts.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &Scheduler{
		sender:         sender,
		loc:            loc,
		boundaryHour:   bh,
		boundaryMinute: bm,
		boardHour:      lh,
		boardMinute:    lm,
		announceChatID: opts.AnnounceChatID,
		retention:      time.Duration(retentionDays) * 24 * time.Hour,
	}, nil
}

// Start runs the cycle until ctx is cancelled.
func Start(ctx context.Context, s *Scheduler) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick runs every due piece of the cycle for the given instant.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	local := now.In(s.loc)
	s.runBoundary(local)
	s.runReminders(ctx, local)
	s.runLeaderboard(ctx, local)
	s.runPrune(local)
}

func (s *Scheduler) runBoundary(local time.Time) {
	boundary := s.latestBoundary(local)
	if boundary.Equal(s.lastBoundary) {
		return
	}

	endedDay := dateOf(boundary.AddDate(0, 0, -1))
	since := boundary.AddDate(0, 0, -1)

	var userIDs []int64
	if err := db.DB.Model(&db.StreakRecord{}).Pluck("user_id", &userIDs).Error; err != nil {
		logger.Error("failed to list users for boundary evaluation", "error", err)
		return
	}

	// One user at a time: the engine takes and releases each user's lock,
	// so a slow evaluation never starves the rest.
	for _, userID := range userIDs {
		outcome, err := streaks.EvaluateBoundary(userID, endedDay, since)
		if err != nil {
			logger.Error("boundary evaluation failed", "user_id", userID, "error", err)
			continue
		}
		logger.Debug("boundary evaluated", "user_id", userID, "day", endedDay.Format("2006-01-02"), "outcome", outcome)
	}

	s.lastBoundary = boundary
}

func (s *Scheduler) runReminders(ctx context.Context, local time.Time) {
	var users []db.User
	if err := db.DB.Where("reminder_enabled = ? AND disabled = ?", true, false).Find(&users).Error; err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return
	}

	today := dateOf(local)
	for _, user := range users {
		due := time.Date(local.Year(), local.Month(), local.Day(), user.ReminderHour, user.ReminderMinute, 0, 0, s.loc)
		if local.Before(due) {
			continue
		}
		if user.LastReminderDay != nil && !user.LastReminderDay.Before(today) {
			continue
		}

		hasDue, err := streaks.HasDueCards(user.UserID)
		if err != nil {
			logger.Error("failed to check due cards", "user_id", user.UserID, "error", err)
			continue
		}
		if !hasDue {
			continue
		}

		// Stamp before sending so a re-trigger cannot double-remind.
		day := today
		if err := db.DB.Model(&db.User{}).
			Where("user_id = ?", user.UserID).
			Update("last_reminder_day", &day).Error; err != nil {
			logger.Error("failed to stamp reminder day", "user_id", user.UserID, "error", err)
			continue
		}

		s.deliver(ctx, user.UserID, "You still have cards due today. A quick review keeps your streak alive!")
	}
}

func (s *Scheduler) runLeaderboard(ctx context.Context, local time.Time) {
	if s.announceChatID == 0 {
		return
	}
	due := time.Date(local.Year(), local.Month(), local.Day(), s.boardHour, s.boardMinute, 0, 0, s.loc)
	if local.Before(due) {
		return
	}
	today := dateOf(local)
	if today.Equal(s.lastBoardDay) {
		return
	}
	s.lastBoardDay = today

	entries, err := streaks.Leaderboard()
	if err != nil {
		logger.Error("failed to compute leaderboard", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	s.deliver(ctx, s.announceChatID, FormatLeaderboard(entries))
}

func (s *Scheduler) runPrune(local time.Time) {
	today := dateOf(local)
	if today.Equal(s.lastPruneDay) {
		return
	}
	s.lastPruneDay = today

	pruned, err := cards.PruneAcked(local.Add(-s.retention))
	if err != nil {
		logger.Error("failed to prune acked cards", "error", err)
		return
	}
	if pruned > 0 {
		logger.Info("pruned acked cards", "count", pruned)
	}
}

// deliver sends without blocking the cycle; failures get a bounded retry
// and are then dropped with a log line.
func (s *Scheduler) deliver(ctx context.Context, chatID int64, text string) {
	go func() {
		var err error
		for attempt := 1; attempt <= deliveryAttempts; attempt++ {
			if err = s.sender.SendMessage(ctx, chatID, text); err == nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		logger.Error("failed to deliver message", "chat_id", chatID, "error", err)
	}()
}

func FormatLeaderboard(entries []streaks.Entry) string {
	var b strings.Builder
	b.WriteString("Study leaderboard for today:\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. user %d — %d day streak, %d new cards\n",
			i+1, entry.UserID, entry.Streak, entry.NewCards)
	}
	return b.String()
}

// latestBoundary returns the most recent boundary instant at or before
// local.
func (s *Scheduler) latestBoundary(local time.Time) time.Time {
	boundary := time.Date(local.Year(), local.Month(), local.Day(), s.boundaryHour, s.boundaryMinute, 0, 0, s.loc)
	if local.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseClock(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
