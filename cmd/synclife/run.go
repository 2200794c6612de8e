package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"synclife/internal/bot"
	"synclife/internal/notify"
	"synclife/internal/service"
)

const (
	reminderJob = "reminders"
	briefingJob = "daily-briefing"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reminder loop and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(a.log.Named("notify"))
	sharer := clipboardSharer(a.log.Named("share"))
	var (
		api      *tgbotapi.BotAPI
		tgNotify *notify.TelegramNotifier
	)
	if a.cfg.TelegramEnabled() {
		api, err = tgbotapi.NewBotAPI(a.cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot api: %w", err)
		}
		a.log.Info("bot authorized", zap.String("account", api.Self.UserName))

		tgNotify = notify.NewTelegramNotifier(api, a.cfg.TelegramChatID, a.log.Named("notify"))
		if a.cfg.TelegramChatID != 0 {
			if _, err := tgNotify.RequestPermission(ctx); err != nil {
				a.log.Warn("request notification permission", zap.Error(err))
			}
		}
		notifier = tgNotify
		sharer = notify.NewSharer(notify.NewChatShareTarget(api, tgNotify.ChatID), notify.ClipboardTarget{}, a.log.Named("share"))
	}

	// The generator is optional here; without a key the bot reports generation failures.
	gen, err := a.newGenerator(ctx, a.cfg)
	if err != nil {
		a.log.Warn("schedule generation disabled", zap.Error(err))
	}
	if err := a.openSession(ctx, gen, sharer); err != nil {
		return err
	}
	if !a.session.Active() {
		a.log.Warn("no schedule yet, onboard with /start or `synclife onboard`")
	}

	reminders := service.NewReminderService(a.session, notifier, loc, a.log.Named("reminder"))
	scheduler := service.NewSchedulerService(loc, a.log.Named("scheduler"))
	if err := scheduler.ScheduleEveryMinute(reminderJob, func() {
		reminders.Tick(ctx, time.Now())
	}); err != nil {
		return err
	}

	var chatBot *bot.Bot
	if api != nil {
		chatBot = bot.New(api, a.session, tgNotify, loc, a.log.Named("bot"))
		if a.cfg.BriefingTime != "" {
			if err := scheduler.ScheduleDaily(briefingJob, a.cfg.BriefingTime, func() {
				jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				if err := chatBot.SendDailyBriefing(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error("daily briefing", zap.Error(err))
				}
			}); err != nil {
				return err
			}
		}
	}

	scheduler.Start()
	defer scheduler.Stop()
	if next, ok := scheduler.Next(briefingJob); ok {
		a.log.Info("daily briefing scheduled", zap.Time("next", next))
	}

	g, gctx := errgroup.WithContext(ctx)
	if chatBot != nil {
		g.Go(func() error {
			return chatBot.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	a.log.Info("synclife started", zap.Bool("telegram", chatBot != nil), zap.String("timezone", loc.String()))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
