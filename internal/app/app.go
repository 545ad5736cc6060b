package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"nabot/internal/domain/ports"
)

// Runner is a single pass of the listing watch.
type Runner interface {
	Run(ctx context.Context) error
}

// App manages the lifecycle of the listing watch: one pass, or a cron schedule.
type App struct {
	cron     *cron.Cron
	runner   Runner
	logger   ports.Logger
	schedule string
}

// New constructs an App instance. An empty schedule means a single pass.
func New(runner Runner, logger ports.Logger, schedule string) *App {
	return &App{
		cron:     cron.New(),
		runner:   runner,
		logger:   logger,
		schedule: schedule,
	}
}

// Run executes one pass and returns its error when no schedule is set.
// Otherwise it runs once immediately, then according to the cron schedule until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.schedule == "" {
		return a.runner.Run(ctx)
	}

	if err := a.scheduleJob(ctx); err != nil {
		return err
	}

	a.logger.Info(ctx, "running first pass immediately")
	if err := a.runner.Run(ctx); err != nil {
		a.logger.Error(ctx, "initial pass failed", "error", err)
	}

	a.logger.Info(ctx, "starting scheduler", "cron", a.schedule)
	a.cron.Start()

	<-ctx.Done()
	stopCtx := a.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	a.logger.Info(context.Background(), "scheduler stopped")
	return nil
}

func (a *App) scheduleJob(parent context.Context) error {
	_, err := a.cron.AddFunc(a.schedule, func() {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		if err := a.runner.Run(ctx); err != nil {
			a.logger.Error(ctx, "scheduled pass failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return nil
}
