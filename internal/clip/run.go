package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/analytics"
	"github.com/dtnitsch/notion-clipper/pkg/budget"
	"github.com/dtnitsch/notion-clipper/pkg/db"
	"github.com/dtnitsch/notion-clipper/pkg/dedup"
	"github.com/dtnitsch/notion-clipper/pkg/detector"
	"github.com/dtnitsch/notion-clipper/pkg/notion"
	"github.com/dtnitsch/notion-clipper/pkg/packer"
	"github.com/dtnitsch/notion-clipper/pkg/parser"
	"github.com/dtnitsch/notion-clipper/pkg/splitter"
	"github.com/dtnitsch/notion-clipper/pkg/storage"
	"github.com/dtnitsch/notion-clipper/pkg/validator"
)

const maxDerivedTitle = 100

var ErrNoInput = errors.New("nothing to clip")

// Fetcher loads a page body.
type Fetcher interface {
	GetHtml(ctx context.Context, url string) (string, error)
}

// Saver submits a page.
type Saver interface {
	SaveWithFallback(ctx context.Context, target notion.Target, page *models.Page) (*notion.SaveResult, error)
}

// Options is one clip request as given on the command line.
type Options struct {
	URL       string
	Source    string // file path when reading from disk
	Content   string // file content; HTML unless PlainText
	PlainText bool
	Title     string
	Mode      models.ParseMode
	DryRun    bool
	Force     bool
}

// Deps carries the collaborators a clip needs.
type Deps struct {
	Config   *models.Config
	Fetcher  Fetcher
	Saver    Saver
	DB       *db.DB
	Dedup    *dedup.Service
	Storage  *storage.Storage
	Detector *detector.Detector
	Logger   *slog.Logger
	Now      func() time.Time
}

// Result is printed after every clip.
type Result struct {
	Title          string            `yaml:"title"`
	Source         string            `yaml:"source,omitempty"`
	Status         string            `yaml:"status"`
	Language       string            `yaml:"language,omitempty"`
	PageID         string            `yaml:"page_id,omitempty"`
	PageURL        string            `yaml:"page_url,omitempty"`
	PayloadPath    string            `yaml:"payload_path,omitempty"`
	ImagesStripped int               `yaml:"images_stripped,omitempty"`
	Summary        analytics.Summary `yaml:"summary"`
}

// Run packs one clip and saves it, or writes the payload on a dry run.
// Every outcome except invalid input is recorded in history.
func Run(ctx context.Context, deps Deps, opts Options) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = models.DefaultConfig()
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	source := opts.URL
	if source == "" {
		source = opts.Source
	}
	itemID := itemIDFor(opts)

	if !opts.Force && deps.Dedup != nil {
		seen, err := deps.Dedup.Seen(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if seen {
			logger.Info("already saved, skipping", "source", source, "item_id", itemID)
			res := &Result{Title: opts.Title, Source: source, Status: db.StatusDuplicate}
			record(ctx, deps, logger, itemID, res, "")
			return res, nil
		}
	}

	page, err := buildPage(ctx, deps, cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Title:    page.Title,
		Source:   source,
		Language: page.Language,
		Summary:  analytics.Summarize(page.Blocks),
	}
	logger.Info("packed clip", "title", page.Title, "blocks", res.Summary.Blocks,
		"chars", res.Summary.Chars, "truncated", res.Summary.Truncated)

	if opts.DryRun {
		req := notion.BuildCreatePageRequest(cfg.Notion.DatabaseID, cfg.Notion.TitleProperty, page)
		st := deps.Storage
		if st == nil {
			st = &storage.Storage{Dir: "."}
		}
		path, err := st.SaveJSON(storage.PayloadName(opts.URL, page.Title, now()), req)
		if err != nil {
			return nil, err
		}
		res.Status = db.StatusDryRun
		res.PayloadPath = path
		record(ctx, deps, logger, itemID, res, "")
		return res, nil
	}

	if deps.Saver == nil {
		return nil, fmt.Errorf("no Notion client configured")
	}
	saved, err := deps.Saver.SaveWithFallback(ctx, notion.Target{
		DatabaseID:    cfg.Notion.DatabaseID,
		TitleProperty: cfg.Notion.TitleProperty,
		MaxBlocks:     cfg.Pack.MaxBlocks,
	}, page)
	if err != nil {
		res.Status = db.StatusFailed
		record(ctx, deps, logger, itemID, res, err.Error())
		return res, fmt.Errorf("failed to save %q: %w", page.Title, err)
	}

	res.Status = db.StatusSaved
	res.PageID = saved.Page.ID
	res.PageURL = saved.Page.URL
	res.ImagesStripped = saved.ImagesStripped
	res.Summary = analytics.Summarize(saved.Blocks)

	if deps.Dedup != nil {
		if err := deps.Dedup.Mark(ctx, itemID); err != nil {
			logger.Warn("failed to mark clip as saved", "item_id", itemID, "error", err)
		}
	}
	record(ctx, deps, logger, itemID, res, "")
	return res, nil
}

func buildPage(ctx context.Context, deps Deps, cfg *models.Config, logger *slog.Logger, opts Options) (*models.Page, error) {
	content := opts.Content
	if opts.URL != "" && content == "" {
		if deps.Fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for %s", opts.URL)
		}
		html, err := deps.Fetcher.GetHtml(ctx, opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", opts.URL, err)
		}
		content = html
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoInput
	}

	v := validator.Default()
	v.RequireHTTPS = cfg.Images.RequireHTTPS
	if cfg.Images.MaxURLLength > 0 {
		v.MaxLength = cfg.Images.MaxURLLength
	}
	v.TrustedImageHosts = append(v.TrustedImageHosts, cfg.Images.TrustedHosts...)
	v.AllowedHosts = cfg.Images.AllowedHosts

	if opts.PlainText {
		return packPlainText(cfg, deps.Detector, opts, content)
	}

	pk, err := packer.New(cfg.Pack.CapPerBlock, nil)
	if err != nil {
		return nil, err
	}
	p := parser.New(pk, cfg.Pack.MaxBlocks, logger)
	p.Validator = v
	p.Detector = deps.Detector

	return p.Parse(models.ParseRequest{
		URL:   opts.URL,
		HTML:  content,
		Mode:  opts.Mode,
		Title: opts.Title,
	})
}

// packPlainText handles chat exports and other text: sections found by the
// language's pattern table become paragraphs.
func packPlainText(cfg *models.Config, det *detector.Detector, opts Options, text string) (*models.Page, error) {
	lang := cfg.Pack.Language
	if lang == "" && det != nil {
		lang = det.Detect(text)
	}

	pk, err := packer.New(cfg.Pack.CapPerBlock, splitter.New(detector.PatternsFor(lang)))
	if err != nil {
		return nil, err
	}
	blocks, err := pk.PackText(text)
	if err != nil {
		return nil, err
	}
	blocks, err = budget.Enforce(blocks, cfg.Pack.MaxBlocks)
	if err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title = firstLine(text)
	}
	return &models.Page{Title: title, SourceURL: opts.URL, Language: lang, Blocks: blocks}, nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxDerivedTitle {
			return string(runes[:maxDerivedTitle]) + "…"
		}
		return line
	}
	return "Untitled clip"
}

func itemIDFor(opts Options) string {
	if opts.URL != "" {
		return dedup.ItemID(opts.URL)
	}
	return dedup.ItemID(opts.Source, opts.Content)
}

func record(ctx context.Context, deps Deps, logger *slog.Logger, itemID string, res *Result, errMsg string) {
	if deps.DB == nil {
		return
	}
	title := res.Title
	if title == "" {
		title = res.Source
	}
	_, err := deps.DB.RecordSave(ctx, db.SaveRecord{
		ItemID:         itemID,
		Title:          title,
		SourceURL:      res.Source,
		NotionPageID:   res.PageID,
		Status:         res.Status,
		ErrorMessage:   errMsg,
		Blocks:         res.Summary.Blocks,
		Paragraphs:     res.Summary.Paragraphs,
		Images:         res.Summary.Images,
		Notices:        res.Summary.Notices,
		Chars:          res.Summary.Chars,
		Truncated:      res.Summary.Truncated,
		ImagesStripped: res.ImagesStripped > 0,
	})
	if err != nil {
		logger.Warn("failed to record save", "title", title, "error", err)
	}
}
