package cli

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskmaster/internal/bot"
	"taskmaster/internal/service"
)

func (r *runner) botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the task list over Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.cfg.ValidateBot(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, err := r.factory(ctx, r.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(context.Background()); err != nil {
					log.Printf("close: %v", err)
				}
			}()
			return runBot(ctx, app)
		},
	}
}

func runBot(ctx context.Context, app *App) error {
	cfg := app.Config
	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Tasks:      app.Tasks,
		Categories: app.Categories,
		Theme:      app.Theme,
		Digest:     app.Digest,
	}, &cfg)
	if err != nil {
		return err
	}
	app.Notifier.Add(telegramBot)

	scheduler := service.NewSchedulerService(time.Local)
	job := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("digest: %v", err)
		}
	}
	switch {
	case cfg.ReportTime != "":
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, job); err != nil {
			return err
		}
	case cfg.ReportInterval > 0:
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, job); err != nil {
			return err
		}
	}
	if scheduler.Entries() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Println("TaskMaster bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Shutdown complete.")
	return nil
}
