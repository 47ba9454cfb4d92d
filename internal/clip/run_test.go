package clip

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/db"
	"github.com/dtnitsch/notion-clipper/pkg/dedup"
	"github.com/dtnitsch/notion-clipper/pkg/notion"
	"github.com/dtnitsch/notion-clipper/pkg/storage"
)

type stubFetcher struct {
	html  string
	calls int
}

func (f *stubFetcher) GetHtml(context.Context, string) (string, error) {
	f.calls++
	return f.html, nil
}

type stubSaver struct {
	pages []*models.Page
	err   error
}

func (s *stubSaver) SaveWithFallback(_ context.Context, _ notion.Target, page *models.Page) (*notion.SaveResult, error) {
	s.pages = append(s.pages, page)
	if s.err != nil {
		return nil, s.err
	}
	return &notion.SaveResult{Page: &notion.PageResponse{ID: "page-1", URL: "https://notion.so/page-1"}, Blocks: page.Blocks}, nil
}

func newDeps(t *testing.T) (Deps, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "clipper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := models.DefaultConfig()
	cfg.Notion.DatabaseID = "db-1"

	return Deps{
		Config:  cfg,
		DB:      database,
		Dedup:   dedup.NewService(database),
		Storage: &storage.Storage{Dir: t.TempDir()},
		Now:     func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
	}, database
}

func TestRun_SavesAndDeduplicates(t *testing.T) {
	deps, database := newDeps(t)
	f := &stubFetcher{html: "<html><head><title>Post</title></head><body><p>Hello</p></body></html>"}
	s := &stubSaver{}
	deps.Fetcher = f
	deps.Saver = s
	ctx := context.Background()

	opts := Options{URL: "https://example.com/post", Mode: models.ParseModeCheap}
	res, err := Run(ctx, deps, opts)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSaved, res.Status)
	assert.Equal(t, "Post", res.Title)
	assert.Equal(t, "page-1", res.PageID)
	assert.Equal(t, 1, res.Summary.Paragraphs)

	res, err = Run(ctx, deps, opts)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDuplicate, res.Status)
	assert.Equal(t, 1, f.calls)
	assert.Len(t, s.pages, 1)

	opts.Force = true
	res, err = Run(ctx, deps, opts)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSaved, res.Status)

	stats, err := database.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestRun_DryRunWritesPayload(t *testing.T) {
	deps, _ := newDeps(t)
	ctx := context.Background()

	text := "【Intro】\nfirst part\n【Body】\nsecond part"
	res, err := Run(ctx, deps, Options{Source: "chat.txt", Content: text, PlainText: true, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, db.StatusDryRun, res.Status)
	assert.Equal(t, "【Intro】", res.Title)
	assert.Equal(t, 2, res.Summary.Paragraphs)

	data, err := os.ReadFile(res.PayloadPath)
	require.NoError(t, err)
	var req notion.CreatePageRequest
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, "db-1", req.Parent.DatabaseID)
	require.Len(t, req.Children, 2)
	assert.Equal(t, "【Intro】\nfirst part", req.Children[0].Paragraph.RichText[0].Text.Content)

	// Dry runs do not count as saved.
	seen, err := deps.Dedup.Seen(ctx, itemIDFor(Options{Source: "chat.txt", Content: text}))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRun_FailureRecorded(t *testing.T) {
	deps, database := newDeps(t)
	deps.Fetcher = &stubFetcher{html: "<p>x</p>"}
	boom := errors.New("boom")
	deps.Saver = &stubSaver{err: boom}
	ctx := context.Background()

	res, err := Run(ctx, deps, Options{URL: "https://example.com/x", Mode: models.ParseModeCheap})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, db.StatusFailed, res.Status)

	saves, err := database.ListSaves(ctx, 1)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "boom", saves[0].ErrorMessage)

	seen, err := deps.Dedup.Seen(ctx, itemIDFor(Options{URL: "https://example.com/x"}))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRun_EmptyInput(t *testing.T) {
	deps, _ := newDeps(t)
	_, err := Run(context.Background(), deps, Options{Source: "empty.html", Content: "  \n"})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "hello", firstLine("\n  hello  \nworld"))
	assert.Equal(t, "Untitled clip", firstLine(" \n "))
	long := strings.Repeat("a", 150)
	assert.Equal(t, strings.Repeat("a", 100)+"…", firstLine(long))
}
