package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nabot/internal/config"
	"nabot/internal/di"
)

type flags struct {
	subjects   []string
	keywords   []string
	authors    []string
	maxResults int
	watchlist  string
	schedule   string
	source     string
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "nabot",
		Short:        "Print new arXiv listing entries matching a keyword and author watchlist",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			application, err := di.InitializeApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}

	f.bind(cmd)
	return cmd
}

func (f *flags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.subjects, "subject", nil, "arXiv subject listing(s) to fetch, e.g. math.NA")
	fs.StringSliceVar(&f.keywords, "keywords", nil, "title keywords (case-insensitive)")
	fs.StringSliceVar(&f.authors, "authors", nil, "author names (case-insensitive)")
	fs.IntVar(&f.maxResults, "max-results", 0, "entries per listing page (25, 50, 100, 250, 500, 1000 or 2000)")
	fs.StringVar(&f.watchlist, "watchlist", "", "YAML watchlist file")
	fs.StringVar(&f.schedule, "schedule", "", "cron expression; run repeatedly instead of once")
	fs.StringVar(&f.source, "source", "", "listing source: listing or rss")
}

// apply overrides cfg with the flags set on the command line. The watchlist is
// applied first so explicit list flags win over it.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("watchlist") {
		wl, err := config.LoadWatchlist(f.watchlist)
		if err != nil {
			return err
		}
		cfg.ApplyWatchlist(wl)
	}
	if changed("subject") {
		cfg.Subjects = f.subjects
	}
	if changed("keywords") {
		cfg.Keywords = f.keywords
	}
	if changed("authors") {
		cfg.Authors = f.authors
	}
	if changed("max-results") {
		cfg.MaxResults = f.maxResults
	}
	if changed("schedule") {
		cfg.ScheduleCron = f.schedule
	}
	if changed("source") {
		cfg.Source = f.source
	}
	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("application runtime error: %v", err)
	}
}
