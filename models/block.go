package models

import (
	"strings"
	"unicode/utf8"
)

// Run is a maximal sequence of same-styled text merged into one buffer.
type Run struct {
	Text       string `json:"text"`
	Style      Style  `json:"style,omitempty"`
	LinkTarget string `json:"link_target,omitempty"`
}

// Len returns the run length in text units (runes).
func (r Run) Len() int {
	return utf8.RuneCountInString(r.Text)
}

// SameGroup reports whether other may be merged into r.
func (r Run) SameGroup(style Style, linkTarget string) bool {
	return r.Style == style && r.LinkTarget == linkTarget
}

// BlockKind is the downstream tag of an emitted block.
type BlockKind int

const (
	ParagraphBlock BlockKind = iota
	ImageBlock
	NoticeBlock
)

func (k BlockKind) String() string {
	switch k {
	case ParagraphBlock:
		return "paragraph"
	case ImageBlock:
		return "image"
	case NoticeBlock:
		return "callout"
	}
	return "unknown"
}

// Notice is a system-generated callout, e.g. a truncation summary.
type Notice struct {
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Text    string `json:"text"`
	Omitted int    `json:"omitted,omitempty"` // blocks dropped by the budget enforcer
}

// Block is one unit of output.
type Block struct {
	Kind     BlockKind `json:"kind"`
	Runs     []Run     `json:"runs,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
	Caption  string    `json:"caption,omitempty"`
	Notice   *Notice   `json:"notice,omitempty"`
}

// Paragraph builds a paragraph block from runs.
func Paragraph(runs ...Run) Block {
	return Block{Kind: ParagraphBlock, Runs: runs}
}

// TextLen is the sum of the rune lengths of all runs.
func (b Block) TextLen() int {
	n := 0
	for _, r := range b.Runs {
		n += r.Len()
	}
	return n
}

// Text concatenates the run texts of a paragraph, or returns the
// notice text / caption for the other kinds.
func (b Block) Text() string {
	switch b.Kind {
	case NoticeBlock:
		if b.Notice != nil {
			return b.Notice.Text
		}
		return ""
	case ImageBlock:
		return b.Caption
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsTruncationNotice reports whether b was emitted by the budget enforcer.
func (b Block) IsTruncationNotice() bool {
	return b.Kind == NoticeBlock && b.Notice != nil && b.Notice.Omitted > 0
}
