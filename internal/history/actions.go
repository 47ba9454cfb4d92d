package history

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/notion-clipper/internal/common"
	dbpkg "github.com/dtnitsch/notion-clipper/pkg/db"
	"github.com/dtnitsch/notion-clipper/pkg/export"
)

func openDB(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func HistoryAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	saves, err := database.ListSaves(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}

	if len(saves) == 0 {
		fmt.Println("No saves found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-10s %-7s %-7s %-40s\n",
		"ID", "Created", "Status", "Blocks", "Chars", "Title")
	fmt.Println(strings.Repeat("-", 100))

	for _, s := range saves {
		fmt.Printf("%-6d %-20s %-10s %-7d %-7d %-40s\n",
			s.SaveID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.Status,
			s.Blocks,
			s.Chars,
			truncate(s.Title, 40),
		)
	}

	fmt.Printf("\nTotal: %d saves\n", len(saves))
	return nil
}

func StatsAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	s, err := database.Stats(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Clips:        %d\n", s.Total)
	fmt.Printf("  saved:      %d\n", s.Saved)
	fmt.Printf("  failed:     %d\n", s.Failed)
	fmt.Printf("  dry runs:   %d\n", s.DryRuns)
	fmt.Printf("  duplicates: %d\n", s.Duplicates)
	fmt.Printf("Truncated:    %d\n", s.Truncated)
	fmt.Printf("Images cut:   %d\n", s.Stripped)
	fmt.Printf("Blocks sent:  %d\n", s.TotalBlocks)
	fmt.Printf("Characters:   %d\n", s.TotalChars)
	if s.LastSavedAt != nil {
		fmt.Printf("Last saved:   %s\n", s.LastSavedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func ExportAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	saves, err := database.ListSaves(c.Context, 0)
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}

	out := os.Stdout
	if path := c.String("out"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteSaves(out, saves); err != nil {
		return err
	}
	if out != os.Stdout {
		fmt.Fprintf(os.Stderr, "Exported %d saves to %s\n", len(saves), c.String("out"))
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
