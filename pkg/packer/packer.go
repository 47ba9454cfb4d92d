// Package packer turns an ordered fragment sequence into Notion-sized
// blocks. Every emitted paragraph stays within the configured character
// cap; the cap is enforced when a paragraph is built, never afterwards.
package packer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/splitter"
)

const (
	// NotionTextLimit is the platform limit for one rich-text content string.
	NotionTextLimit = 2000
	// DefaultCap leaves headroom under NotionTextLimit for labels and captions.
	DefaultCap = models.DefaultCap
	// MaxRuns is the platform limit for rich-text elements in one block.
	MaxRuns = 100
	// BreakWindow is how far back from the cap a whitespace break is searched.
	BreakWindow = 100
	// Placeholder stands in for empty lines; the API rejects empty rich_text.
	Placeholder = " "
)

var ErrInvalidCap = errors.New("packer: capPerBlock must be positive")

// ContinuationLabel formats the prefix of the n-th continuation piece of a
// run that was too long for one block.
func ContinuationLabel(n int) string {
	return fmt.Sprintf("(continued %d) ", n)
}

// Packer holds the packing configuration.
type Packer struct {
	Cap      int
	Splitter *splitter.Splitter
	Label    func(n int) string
}

// New returns a Packer with the default splitter and labels.
func New(capPerBlock int, sp *splitter.Splitter) (*Packer, error) {
	if capPerBlock <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCap, capPerBlock)
	}
	if sp == nil {
		sp = splitter.New(nil)
	}
	return &Packer{Cap: capPerBlock, Splitter: sp, Label: ContinuationLabel}, nil
}

// Pack is a convenience wrapper around New(capPerBlock, nil).Pack.
func Pack(fragments []models.Fragment, capPerBlock int) ([]models.Block, error) {
	p, err := New(capPerBlock, nil)
	if err != nil {
		return nil, err
	}
	return p.Pack(fragments)
}

// Pack merges fragments into runs and runs into paragraphs. Images get
// their own blocks and empty lines become placeholder paragraphs. Non-empty
// input always yields at least one block.
func (p *Packer) Pack(fragments []models.Fragment) ([]models.Block, error) {
	if p.Cap <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCap, p.Cap)
	}

	st := &state{p: p}
	for _, f := range fragments {
		switch f.Kind {
		case models.PlainRun, models.StyledRun, models.Link:
			st.text(f)
		case models.LineBreak:
			st.lineBreak()
		case models.EmptyLine:
			st.closeRun()
			st.closeParagraph()
			st.emit(PlaceholderBlock())
		case models.Image:
			st.closeRun()
			st.closeParagraph()
			if f.ImageURL != "" {
				st.emit(models.Block{Kind: models.ImageBlock, ImageURL: f.ImageURL, Caption: f.ImageAlt})
			}
		}
	}
	st.closeRun()
	st.closeParagraph()

	if len(st.blocks) == 0 && len(fragments) > 0 {
		return []models.Block{PlaceholderBlock()}, nil
	}
	return st.blocks, nil
}

// PlaceholderBlock is the single-space paragraph used for empty lines.
func PlaceholderBlock() models.Block {
	return models.Paragraph(models.Run{Text: Placeholder})
}

type state struct {
	p      *Packer
	blocks []models.Block

	para    []models.Run
	paraLen int

	cur *models.Run
}

func (st *state) emit(b models.Block) {
	st.blocks = append(st.blocks, b)
}

func (st *state) text(f models.Fragment) {
	style := f.Style
	if f.Kind == models.PlainRun {
		style = models.Style{}
	}
	if st.cur != nil && st.cur.SameGroup(style, f.LinkTarget) {
		st.cur.Text += f.Text
		return
	}
	st.closeRun()
	st.cur = &models.Run{Text: f.Text, Style: style, LinkTarget: f.LinkTarget}
}

func (st *state) lineBreak() {
	if st.cur != nil {
		st.cur.Text += "\n"
		return
	}
	// No open run: attach to the paragraph's last run if it still fits.
	if n := len(st.para); n > 0 && st.paraLen+1 <= st.p.Cap {
		st.para[n-1].Text += "\n"
		st.paraLen++
	}
}

func (st *state) closeRun() {
	if st.cur == nil {
		return
	}
	run := *st.cur
	st.cur = nil

	if strings.TrimSpace(run.Text) == "" {
		// Whitespace between differently styled runs keeps words apart;
		// anywhere else it carries nothing.
		if n := len(st.para); n > 0 && st.paraLen+run.Len() <= st.p.Cap {
			st.para[n-1].Text += run.Text
			st.paraLen += run.Len()
		}
		return
	}
	st.addRun(run)
}

func (st *state) addRun(run models.Run) {
	n := run.Len()
	if n > st.p.Cap {
		st.closeParagraph()
		pieces := st.p.splitRun(run)
		for i, piece := range pieces {
			if i == len(pieces)-1 {
				st.para = piece
				st.paraLen = runsLen(piece)
				break
			}
			st.emit(models.Paragraph(piece...))
		}
		return
	}

	if st.paraLen+n > st.p.Cap || len(st.para) >= MaxRuns {
		st.closeParagraph()
	}
	st.para = append(st.para, run)
	st.paraLen += n
}

func (st *state) closeParagraph() {
	if len(st.para) > 0 {
		st.emit(models.Paragraph(st.para...))
	}
	st.para = nil
	st.paraLen = 0
}

func runsLen(runs []models.Run) int {
	n := 0
	for _, r := range runs {
		n += r.Len()
	}
	return n
}
