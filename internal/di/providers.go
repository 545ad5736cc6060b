package di

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"nabot/internal/adapter/arxiv"
	"nabot/internal/adapter/console"
	"nabot/internal/adapter/discord"
	"nabot/internal/adapter/gifsink"
	"nabot/internal/adapter/logging"
	"nabot/internal/adapter/reporting"
	"nabot/internal/config"
	"nabot/internal/domain/ports"
	"nabot/internal/fem"
	"nabot/internal/transport"
	"nabot/internal/usecase"
)

func provideSlogLogger(cfg *config.Config) *slog.Logger {
	return logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
}

func provideLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.RequestInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
}

func provideListingProvider(cfg *config.Config, limiter *rate.Limiter, logger ports.Logger) ports.ListingProvider {
	if cfg.Source == config.SourceRSS {
		return arxiv.NewFeedProvider(cfg.RequestTimeout, limiter, logger)
	}
	return arxiv.NewListingProvider(cfg.RequestTimeout, limiter, logger)
}

// provideNotifier returns nil when no webhook is configured.
func provideNotifier(cfg *config.Config, logger ports.Logger) ports.Notifier {
	if cfg.DiscordWebhookURL == "" {
		return nil
	}
	return discord.NewWebhook(cfg.DiscordWebhookURL, cfg.RequestTimeout, logger)
}

func provideReporter(cfg *config.Config, notifier ports.Notifier, logger ports.Logger) ports.Reporter {
	reporters := []ports.Reporter{console.New(os.Stdout, cfg.ReportWidth)}
	if notifier != nil {
		reporters = append(reporters, reporting.NewNotificationReporter(notifier))
	}
	return reporting.NewCompositeReporter(logger, reporters...)
}

func provideDigestConfig(cfg *config.Config) usecase.ListingDigestConfig {
	return usecase.ListingDigestConfig{
		Subjects:   cfg.Subjects,
		MaxResults: cfg.MaxResults,
		Keywords:   cfg.Keywords,
		Authors:    cfg.Authors,
	}
}

func provideSchedule(cfg *config.Config) string {
	return cfg.ScheduleCron
}

func provideSimSlogLogger(cfg *config.Simulation) *slog.Logger {
	return logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
}

func provideMesh(cfg *config.Simulation) (*fem.Mesh, error) {
	return fem.UnitSquare(cfg.Resolution, cfg.Resolution)
}

func provideFrames(cfg *config.Simulation, mesh *fem.Mesh, logger ports.Logger) (transport.Frames, error) {
	opts := gifsink.DefaultOptions(cfg.FramesPerSecond())
	opts.Clip = cfg.Clip

	v, err := gifsink.New(cfg.OutputV, mesh, opts, logger)
	if err != nil {
		return transport.Frames{}, err
	}
	p, err := gifsink.New(cfg.OutputP, mesh, opts, logger)
	if err != nil {
		return transport.Frames{}, err
	}
	return transport.Frames{V: v, P: p}, nil
}

func provideParams(cfg *config.Simulation) transport.Params {
	return transport.Params{Steps: cfg.Steps, EndTime: cfg.EndTime, Eps: cfg.Eps}
}

func provideProgress() io.Writer {
	return os.Stdout
}
