package packer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/splitter"
)

// splitRun cuts a run longer than the cap into paragraphs worth of runs.
// Pieces after the first are prefixed by an unstyled label run whose
// length comes out of that piece's capacity.
func (p *Packer) splitRun(run models.Run) [][]models.Run {
	var out [][]models.Run
	for _, c := range p.splitLong(run.Text) {
		piece := models.Run{Text: c.text, Style: run.Style, LinkTarget: run.LinkTarget}
		if c.label != "" {
			out = append(out, []models.Run{{Text: c.label}, piece})
		} else {
			out = append(out, []models.Run{piece})
		}
	}
	return out
}

type chunk struct {
	label string
	text  string
}

// splitLong breaks text at the last whitespace within BreakWindow units of
// the capacity, or at the capacity itself when the window has none. Cuts
// only land on grapheme cluster boundaries.
func (p *Packer) splitLong(text string) []chunk {
	runes := []rune(text)
	bounds := clusterBounds(text, len(runes))
	var out []chunk

	start := 0
	for start < len(runes) {
		label := ""
		if len(out) > 0 && p.Label != nil {
			label = p.Label(len(out))
		}
		avail := p.Cap - utf8.RuneCountInString(label)
		if avail <= 0 {
			label = ""
			avail = p.Cap
		}

		end := len(runes)
		if end-start > avail {
			end = start + breakPoint(runes[start:], bounds[start:], avail)
		}

		s := strings.TrimRightFunc(string(runes[start:end]), unicode.IsSpace)
		if s != "" {
			out = append(out, chunk{label: label, text: s})
		}
		start = end
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
	}
	return out
}

// clusterBounds marks every rune index of text that starts a grapheme
// cluster, plus n itself.
func clusterBounds(text string, n int) []bool {
	bounds := make([]bool, n+1)
	bounds[0] = true
	bounds[n] = true
	gr := uniseg.NewGraphemes(text)
	i := 0
	for gr.Next() {
		i += len(gr.Runes())
		if i > n {
			break
		}
		bounds[i] = true
	}
	return bounds
}

// breakPoint returns a cut index in (0, avail]: just after the last
// whitespace found in the trailing window, else the last cluster boundary
// at or before avail. A single cluster wider than avail is cut at avail.
func breakPoint(runes []rune, bounds []bool, avail int) int {
	lo := avail - BreakWindow
	if lo < 1 {
		lo = 1
	}
	for j := avail; j >= lo; j-- {
		if bounds[j] && unicode.IsSpace(runes[j-1]) {
			return j
		}
	}
	for j := avail; j >= 1; j-- {
		if bounds[j] {
			return j
		}
	}
	return avail
}

// PackText packs one long plain-text blob. Natural sections become their
// own paragraphs; an oversized section falls back to blank-line
// paragraphs, then sentences, then character cuts. Sections are never
// re-split by section patterns.
func (p *Packer) PackText(text string) ([]models.Block, error) {
	if p.Cap <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCap, p.Cap)
	}
	sp := p.Splitter
	if sp == nil {
		sp = splitter.New(nil)
	}

	var blocks []models.Block
	for _, section := range sp.Split(text) {
		for _, s := range p.fitSection(section) {
			blocks = append(blocks, models.Paragraph(s...))
		}
	}

	if len(blocks) == 0 && strings.TrimSpace(text) != "" {
		return []models.Block{PlaceholderBlock()}, nil
	}
	return blocks, nil
}

func (p *Packer) fitSection(section string) [][]models.Run {
	if utf8.RuneCountInString(section) <= p.Cap {
		return [][]models.Run{{{Text: section}}}
	}

	var out [][]models.Run
	acc := &accumulator{cap: p.Cap}
	for _, para := range splitter.SplitParagraphs(section) {
		if utf8.RuneCountInString(para) <= p.Cap {
			out = acc.add(out, para, "\n\n")
			continue
		}
		for _, sentence := range splitter.SplitSentences(para) {
			if utf8.RuneCountInString(sentence) <= p.Cap {
				out = acc.add(out, sentence, sentenceJoiner(acc.buf.String()))
				continue
			}
			out = acc.flush(out)
			out = append(out, p.splitRun(models.Run{Text: sentence})...)
		}
		out = acc.flush(out)
	}
	return acc.flush(out)
}

// accumulator greedily joins pieces while the result stays within cap.
type accumulator struct {
	cap int
	buf strings.Builder
	n   int
}

func (a *accumulator) add(out [][]models.Run, s, joiner string) [][]models.Run {
	sn := utf8.RuneCountInString(s)
	jn := utf8.RuneCountInString(joiner)
	if a.n > 0 && a.n+jn+sn > a.cap {
		out = a.flush(out)
	}
	if a.n > 0 {
		a.buf.WriteString(joiner)
		a.n += jn
	}
	a.buf.WriteString(s)
	a.n += sn
	return out
}

func (a *accumulator) flush(out [][]models.Run) [][]models.Run {
	if a.n > 0 {
		out = append(out, []models.Run{{Text: a.buf.String()}})
	}
	a.buf.Reset()
	a.n = 0
	return out
}

// sentenceJoiner keeps CJK sentences tight and separates the rest by a space.
func sentenceJoiner(prev string) string {
	r, _ := utf8.DecodeLastRuneInString(prev)
	if r == '。' || r == '！' || r == '？' || r == '」' || r == '』' {
		return ""
	}
	return " "
}
