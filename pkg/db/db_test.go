package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/notion-clipper/pkg/dedup"
)

var _ dedup.Store = (*DB)(nil)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Every new connection would get its own empty in-memory database.
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()

	if database.Path() != path {
		t.Errorf("Path() = %q, want %q", database.Path(), path)
	}

	// Reopening must find the existing schema.
	database.Close()
	database, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer database.Close()

	if _, err := database.Stats(context.Background()); err != nil {
		t.Errorf("Stats() on reopened db error = %v", err)
	}
}

func TestSavedItems(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	has, err := db.Has(ctx, "abc")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if has {
		t.Error("Has() = true before Add")
	}

	for i := 0; i < 2; i++ {
		if err := db.Add(ctx, "abc"); err != nil {
			t.Fatalf("Add() call %d error = %v", i+1, err)
		}
	}

	has, err = db.Has(ctx, "abc")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if !has {
		t.Error("Has() = false after Add")
	}

	if err := db.ForgetItem(ctx, "abc"); err != nil {
		t.Fatalf("ForgetItem() error = %v", err)
	}
	if has, _ := db.Has(ctx, "abc"); has {
		t.Error("Has() = true after ForgetItem")
	}
}

func TestDedupServiceOverDB(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	svc := dedup.NewService(db)
	id := dedup.ItemID("https://example.com/a")
	if err := svc.Mark(ctx, id); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	unseen, err := svc.Filter(ctx, []string{id, dedup.ItemID("https://example.com/b")})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(unseen) != 1 {
		t.Errorf("Filter() returned %d ids, want 1", len(unseen))
	}
}

func TestRecordSave(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		record  SaveRecord
		wantErr bool
	}{
		{
			name: "saved page",
			record: SaveRecord{
				ItemID: "a1", Title: "Post", SourceURL: "https://example.com/post",
				NotionPageID: "page-1", Status: StatusSaved, Blocks: 95, Paragraphs: 90,
				Images: 4, Notices: 1, Chars: 12000, Truncated: true,
			},
		},
		{
			name:   "failed save keeps error",
			record: SaveRecord{Title: "Broken", Status: StatusFailed, ErrorMessage: "boom"},
		},
		{
			name:    "missing status",
			record:  SaveRecord{Title: "No status"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := db.RecordSave(ctx, tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordSave() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && id == 0 {
				t.Error("RecordSave() returned 0 ID")
			}
		})
	}
}

func TestListSaves(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := db.RecordSave(ctx, SaveRecord{Title: title, Status: StatusSaved}); err != nil {
			t.Fatalf("RecordSave(%s) error = %v", title, err)
		}
	}

	saves, err := db.ListSaves(ctx, 0)
	if err != nil {
		t.Fatalf("ListSaves() error = %v", err)
	}
	if len(saves) != 3 {
		t.Fatalf("ListSaves() returned %d rows, want 3", len(saves))
	}
	if saves[0].Title != "third" {
		t.Errorf("saves[0].Title = %q, want most recent %q", saves[0].Title, "third")
	}
	if saves[0].CreatedAt.IsZero() {
		t.Error("saves[0].CreatedAt is zero")
	}

	limited, err := db.ListSaves(ctx, 2)
	if err != nil {
		t.Fatalf("ListSaves(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListSaves(2) returned %d rows, want 2", len(limited))
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	empty, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() on empty db error = %v", err)
	}
	if empty.Total != 0 || empty.LastSavedAt != nil {
		t.Errorf("Stats() on empty db = %+v, want zero", empty)
	}

	records := []SaveRecord{
		{Title: "a", Status: StatusSaved, Blocks: 10, Chars: 100, Truncated: true},
		{Title: "b", Status: StatusSaved, Blocks: 5, Chars: 50, ImagesStripped: true},
		{Title: "c", Status: StatusFailed},
		{Title: "d", Status: StatusDryRun, Blocks: 3, Chars: 30},
		{Title: "e", Status: StatusDuplicate},
	}
	for _, r := range records {
		if _, err := db.RecordSave(ctx, r); err != nil {
			t.Fatalf("RecordSave(%s) error = %v", r.Title, err)
		}
	}

	s, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	checks := []struct {
		name string
		got  int
		want int
	}{
		{"Total", s.Total, 5},
		{"Saved", s.Saved, 2},
		{"Failed", s.Failed, 1},
		{"DryRuns", s.DryRuns, 1},
		{"Duplicates", s.Duplicates, 1},
		{"Truncated", s.Truncated, 1},
		{"Stripped", s.Stripped, 1},
		{"TotalBlocks", s.TotalBlocks, 18},
		{"TotalChars", s.TotalChars, 180},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("Stats().%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if s.LastSavedAt == nil {
		t.Error("Stats().LastSavedAt = nil, want a time")
	}
}
