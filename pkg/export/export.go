// Package export writes clip history as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dtnitsch/notion-clipper/pkg/db"
)

var header = []string{
	"id", "created_at", "title", "source_url", "status",
	"blocks", "chars", "images", "truncated", "images_stripped",
	"notion_page_id", "error",
}

// WriteSaves writes a header row and one row per save.
func WriteSaves(w io.Writer, saves []db.SaveRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range saves {
		row := []string{
			strconv.FormatInt(s.SaveID, 10),
			s.CreatedAt.UTC().Format(time.RFC3339),
			s.Title,
			s.SourceURL,
			s.Status,
			strconv.Itoa(s.Blocks),
			strconv.Itoa(s.Chars),
			strconv.Itoa(s.Images),
			strconv.FormatBool(s.Truncated),
			strconv.FormatBool(s.ImagesStripped),
			s.NotionPageID,
			s.ErrorMessage,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", s.SaveID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
