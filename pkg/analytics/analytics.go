// Package analytics computes per-clip statistics for history and output.
package analytics

import (
	"github.com/dtnitsch/notion-clipper/models"
)

// Summary counts what a packed page holds.
type Summary struct {
	Blocks     int  `json:"blocks"`
	Paragraphs int  `json:"paragraphs"`
	Images     int  `json:"images"`
	Notices    int  `json:"notices"`
	Chars      int  `json:"chars"`
	Longest    int  `json:"longest_paragraph"`
	Truncated  bool `json:"truncated"`
	Omitted    int  `json:"omitted,omitempty"`
}

// Summarize walks blocks once. Chars counts paragraph runes only.
func Summarize(blocks []models.Block) Summary {
	var s Summary
	s.Blocks = len(blocks)
	for _, b := range blocks {
		switch b.Kind {
		case models.ParagraphBlock:
			s.Paragraphs++
			n := b.TextLen()
			s.Chars += n
			if n > s.Longest {
				s.Longest = n
			}
		case models.ImageBlock:
			s.Images++
		case models.NoticeBlock:
			s.Notices++
			if b.IsTruncationNotice() {
				s.Truncated = true
				s.Omitted += b.Notice.Omitted
			}
		}
	}
	return s
}
