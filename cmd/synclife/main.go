package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"synclife/internal/config"
	"synclife/internal/logger"
	"synclife/internal/notify"
	"synclife/internal/planner"
	"synclife/internal/repository"
	"synclife/internal/service"
)

// app holds what every subcommand shares. It is filled in PersistentPreRunE.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	db    *gorm.DB
	store *repository.Store

	session *service.SessionService

	// newGenerator is swapped in tests.
	newGenerator func(ctx context.Context, cfg config.Config) (planner.Generator, error)
}

func main() {
	a := &app{newGenerator: genaiGenerator}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		if errors.Is(err, planner.ErrContentGeneration) {
			fmt.Fprintln(os.Stderr, "Schedule generation failed. Run `synclife onboard` again to retry.")
		}
		os.Exit(1)
	}
}

func genaiGenerator(ctx context.Context, cfg config.Config) (planner.Generator, error) {
	if err := cfg.RequireGenerator(); err != nil {
		return nil, err
	}
	gen, err := planner.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "synclife",
		Short:        "SyncLife - a weekly life planner for busy parents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.AddCommand(
		newOnboardCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newToggleCmd(a),
		newDeleteCmd(a),
		newResetCmd(a),
		newRunCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log = log

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	a.db = db
	a.store = repository.NewStore(repository.NewRecordRepository(db), log.Named("store"))
	return nil
}

// openSession builds the session and restores the previous one if present.
func (a *app) openSession(ctx context.Context, gen planner.Generator, sharer service.Sharer) error {
	a.session = service.NewSessionService(a.store, gen, sharer, a.log.Named("session"), a.cfg.SyncDelay)
	if _, err := a.session.Restore(ctx); err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func clipboardSharer(log *zap.Logger) *notify.Sharer {
	return notify.NewSharer(nil, notify.ClipboardTarget{}, log)
}
