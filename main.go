package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/notion-clipper/internal/clip"
	"github.com/dtnitsch/notion-clipper/internal/history"
	"github.com/dtnitsch/notion-clipper/models"
)

func main() {
	app := &cli.App{
		Name:  "clipper",
		Usage: "Pack web pages and chat exports into Notion pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "db",
				Value: models.DefaultDBPath,
				Usage: "Path to the SQLite history database",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "clip",
				Usage:  "Clip a URL or file into Notion",
				Action: clip.ClipAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Page to fetch and clip"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Local HTML or text file to clip"},
					&cli.BoolFlag{Name: "text", Usage: "Treat the input as plain text (chat exports, notes)"},
					&cli.StringFlag{Name: "title", Usage: "Page title (default: derived from the content)"},
					&cli.StringFlag{Name: "mode", Value: "full", Usage: "HTML parse mode: minimal, cheap or full"},
					&cli.StringFlag{Name: "language", Usage: "Force the section pattern table (e.g. ja, en)"},
					&cli.IntFlag{Name: "cap", Value: models.DefaultCap, Usage: "Characters per paragraph block"},
					&cli.IntFlag{Name: "max-blocks", Value: models.DefaultMaxBlocks, Usage: "Blocks per page"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Write the request payload instead of calling Notion"},
					&cli.StringFlag{Name: "out", Value: "payloads", Usage: "Directory for dry-run payloads"},
					&cli.BoolFlag{Name: "force", Usage: "Save even if this item was saved before"},
				},
			},
			{
				Name:   "history",
				Usage:  "List recent clips",
				Action: history.HistoryAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of rows to show (0 for all)"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show clip statistics",
				Action: history.StatsAction,
			},
			{
				Name:   "export",
				Usage:  "Export clip history as CSV",
				Action: history.ExportAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "Output file (- for stdout)"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
