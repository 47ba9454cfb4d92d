package clip

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/notion-clipper/internal/common"
	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/caching"
	"github.com/dtnitsch/notion-clipper/pkg/db"
	"github.com/dtnitsch/notion-clipper/pkg/dedup"
	"github.com/dtnitsch/notion-clipper/pkg/detector"
	"github.com/dtnitsch/notion-clipper/pkg/fetcher"
	"github.com/dtnitsch/notion-clipper/pkg/notion"
	"github.com/dtnitsch/notion-clipper/pkg/storage"
)

func ClipAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}
	if c.IsSet("cap") {
		cfg.Pack.CapPerBlock = c.Int("cap")
	}
	if c.IsSet("max-blocks") {
		cfg.Pack.MaxBlocks = c.Int("max-blocks")
	}
	if c.IsSet("language") {
		cfg.Pack.Language = c.String("language")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}

	opts := Options{
		Title:     c.String("title"),
		Mode:      models.ParseModeFromString(c.String("mode")),
		PlainText: c.Bool("text"),
		DryRun:    c.Bool("dry-run"),
		Force:     c.Bool("force"),
	}

	switch {
	case c.IsSet("url") && c.IsSet("file"):
		return cli.Exit("Error: Cannot use both --url and --file flags", 1)
	case c.IsSet("url"):
		u, err := common.ValidateSourceURL(c.String("url"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		opts.URL = u
	case c.IsSet("file"):
		data, err := os.ReadFile(c.String("file"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		opts.Source = c.String("file")
		opts.Content = string(data)
	default:
		fmt.Fprintln(os.Stderr, "Error: No input provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  clipper clip --url "https://example.com/post"`)
		fmt.Fprintln(os.Stderr, `  clipper clip --file chat.txt --text --title "Chat log"`)
		fmt.Fprintln(os.Stderr, `  clipper clip --url "https://example.com/post" --dry-run --out payloads`)
		return cli.Exit("", 1)
	}

	if !opts.DryRun && (cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "") {
		return cli.Exit("Error: NOTION_TOKEN and NOTION_DATABASE_ID must be set (or use --dry-run)", 2)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit("", 2)
	}
	defer database.Close()

	var cache *caching.Cache
	if ttl, err := time.ParseDuration(cfg.CacheTTL); err == nil && ttl > 0 && cfg.CacheDir != "" {
		cache, err = caching.NewCache(cfg.CacheDir, ttl)
		if err != nil {
			logger.Warn("page cache disabled", "error", err)
			cache = nil
		}
	}

	client := notion.New(cfg.Notion.Token, notion.WithLogger(logger), notion.WithVersion(cfg.Notion.Version))
	if cfg.Notion.BaseURL != "" {
		notion.WithBaseURL(cfg.Notion.BaseURL)(client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := Run(ctx, Deps{
		Config:   cfg,
		Fetcher:  fetcher.NewFetcher(cache, logger),
		Saver:    client,
		DB:       database,
		Dedup:    dedup.NewService(database),
		Storage:  &storage.Storage{Dir: c.String("out")},
		Detector: detector.New(),
		Logger:   logger,
	}, opts)
	if res != nil {
		out, yerr := yaml.Marshal(res)
		if yerr == nil {
			fmt.Print(string(out))
		}
	}
	if err != nil {
		logger.Error("clip failed", "error", err)
		return cli.Exit("", 1)
	}
	return nil
}
