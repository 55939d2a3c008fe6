package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-telegram/bot"
	"github.com/smith3v/tg-anki-sync/pkg/bot/handlers"
	"github.com/smith3v/tg-anki-sync/pkg/config"
	"github.com/smith3v/tg-anki-sync/pkg/db"
	"github.com/smith3v/tg-anki-sync/pkg/dictionary"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/memos"
	"github.com/smith3v/tg-anki-sync/pkg/scheduler"
	"github.com/smith3v/tg-anki-sync/pkg/syncapi"
)

type botSender struct {
	b *bot.Bot
}

func (s botSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	var annotator dictionary.Annotator
	if kagome, err := dictionary.NewKagome(); err != nil {
		logger.Error("failed to load kagome dictionary, readings disabled", "error", err)
		annotator = dictionary.Noop{}
	} else {
		annotator = kagome
	}
	handlers.Configure(memos.NewQueue(config.AppConfig.Limits.MemoQuota, annotator))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := []bot.Option{
		bot.WithDefaultHandler(handlers.DefaultHandler),
	}
	b, err := bot.New(config.AppConfig.Telegram.Token, opts...)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stop", bot.MatchTypeExact, handlers.HandleStop)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/list", bot.MatchTypeExact, handlers.HandleList)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/promote", bot.MatchTypePrefix, handlers.HandlePromote)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypeExact, handlers.HandleClear)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/track", bot.MatchTypePrefix, handlers.HandleTrack)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/untrack", bot.MatchTypePrefix, handlers.HandleUntrack)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/decks", bot.MatchTypeExact, handlers.HandleDecks)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/streak", bot.MatchTypeExact, handlers.HandleStreak)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/remind", bot.MatchTypePrefix, handlers.HandleRemind)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/token", bot.MatchTypeExact, handlers.HandleToken)

	sched, err := scheduler.New(botSender{b: b}, scheduler.Options{
		Timezone:        config.AppConfig.Schedule.Timezone,
		BoundaryTime:    config.AppConfig.Schedule.BoundaryTime,
		LeaderboardTime: config.AppConfig.Schedule.LeaderboardTime,
		AnnounceChatID:  config.AppConfig.Schedule.AnnounceChatID,
		RetentionDays:   config.AppConfig.Limits.RetentionDays,
	})
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := syncapi.Run(ctx, config.AppConfig.Server.Listen); err != nil {
			logger.Error("sync API server stopped", "error", err)
			cancel()
		}
	}()
	go scheduler.Start(ctx, sched)

	logger.Info("Starting bot...")
	b.Start(ctx)
}
