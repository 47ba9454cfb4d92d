package nodetree

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/dtnitsch/notion-clipper/models"
)

var skipTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "head": {},
	"iframe": {}, "svg": {}, "canvas": {}, "button": {}, "input": {},
	"select": {}, "textarea": {}, "object": {}, "video": {}, "audio": {},
}

var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "ul": {}, "ol": {}, "dl": {}, "dt": {}, "dd": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "table": {}, "tr": {}, "section": {},
	"article": {}, "header": {}, "footer": {}, "main": {}, "aside": {},
	"figure": {}, "figcaption": {}, "hr": {}, "address": {}, "details": {},
	"summary": {}, "nav": {},
}

// Extractor turns a tree into fragments. It implements Visitor.
type Extractor struct {
	// Base resolves relative href/src values; nil leaves them as found.
	Base *url.URL

	frags []models.Fragment

	bold, italic, underline, strike, code, mark, pre int
	links                                            []string
	opened                                           map[int]int // element id -> len(frags) at Enter
}

// Extract walks the whole tree and returns its fragments.
func Extract(t *Tree, base *url.URL) []models.Fragment {
	e := &Extractor{Base: base}
	return e.Run(t, t.Root())
}

// Run walks the subtree at start and returns the fragments found.
func (e *Extractor) Run(t *Tree, start int) []models.Fragment {
	e.frags = nil
	e.opened = make(map[int]int)
	Walk(t, start, e)

	for len(e.frags) > 0 && e.frags[len(e.frags)-1].Kind == models.LineBreak {
		e.frags = e.frags[:len(e.frags)-1]
	}
	return e.frags
}

func (e *Extractor) Enter(t *Tree, id int) bool {
	n := &t.Nodes[id]
	switch n.Kind {
	case TextNode:
		e.text(n.Text)
		return false
	case DocumentNode:
		return true
	}

	if _, skip := skipTags[n.Tag]; skip {
		return false
	}
	if n.Attrs["hidden"] != "" || strings.Contains(strings.ReplaceAll(n.Attrs["style"], " ", ""), "display:none") {
		return false
	}

	switch n.Tag {
	case "br":
		e.frags = append(e.frags, models.Break())
		return false
	case "img":
		src := n.Attrs["src"]
		if src == "" || strings.HasPrefix(src, "data:") {
			if alt := n.Attrs["data-src"]; alt != "" {
				src = alt
			}
		}
		if src != "" {
			e.frags = append(e.frags, models.ImageOf(e.resolve(src), strings.TrimSpace(n.Attrs["alt"])))
		}
		return false
	}

	if _, ok := blockTags[n.Tag]; ok {
		e.boundary()
		e.opened[id] = len(e.frags)
	}

	switch n.Tag {
	case "b", "strong", "h1", "h2", "h3", "h4", "h5", "h6", "th", "dt":
		e.bold++
	case "i", "em", "cite", "dfn":
		e.italic++
	case "u", "ins":
		e.underline++
	case "s", "del", "strike":
		e.strike++
	case "code", "kbd", "samp", "tt":
		e.code++
	case "pre":
		e.code++
		e.pre++
	case "mark":
		e.mark++
	case "a":
		e.links = append(e.links, e.resolve(strings.TrimSpace(n.Attrs["href"])))
	case "li":
		e.frags = append(e.frags, models.Plain("• "))
		e.opened[id] = len(e.frags)
	case "td":
		if prev := e.lastText(); prev != nil && !strings.HasSuffix(prev.Text, " ") {
			e.frags = append(e.frags, models.Plain(" | "))
		}
	}
	return true
}

func (e *Extractor) Leave(t *Tree, id int) {
	n := &t.Nodes[id]

	switch n.Tag {
	case "b", "strong", "h1", "h2", "h3", "h4", "h5", "h6", "th", "dt":
		e.bold--
	case "i", "em", "cite", "dfn":
		e.italic--
	case "u", "ins":
		e.underline--
	case "s", "del", "strike":
		e.strike--
	case "code", "kbd", "samp", "tt":
		e.code--
	case "pre":
		e.code--
		e.pre--
	case "mark":
		e.mark--
	case "a":
		if len(e.links) > 0 {
			e.links = e.links[:len(e.links)-1]
		}
	}

	start, ok := e.opened[id]
	if !ok {
		return
	}
	delete(e.opened, id)

	if n.Tag == "p" || n.Tag == "div" {
		if e.emptySince(start, n.Tag == "p") {
			e.frags = e.frags[:start]
			if k := len(e.frags); k > 0 && e.frags[k-1].Kind == models.LineBreak {
				e.frags = e.frags[:k-1]
			}
			e.frags = append(e.frags, models.Empty())
			return
		}
	}
	e.boundary()
}

// emptySince reports whether nothing but line breaks was emitted since
// start. Divs only count as empty lines when they held a <br>.
func (e *Extractor) emptySince(start int, bare bool) bool {
	breaks := 0
	for _, f := range e.frags[start:] {
		if f.Kind != models.LineBreak {
			return false
		}
		breaks++
	}
	return bare || breaks > 0
}

// boundary ends the current line unless it is already ended.
func (e *Extractor) boundary() {
	if len(e.frags) == 0 {
		return
	}
	switch e.frags[len(e.frags)-1].Kind {
	case models.LineBreak, models.EmptyLine, models.Image:
		return
	}
	e.frags = append(e.frags, models.Break())
}

func (e *Extractor) atLineStart() bool {
	if len(e.frags) == 0 {
		return true
	}
	switch e.frags[len(e.frags)-1].Kind {
	case models.LineBreak, models.EmptyLine, models.Image:
		return true
	}
	return false
}

func (e *Extractor) lastText() *models.Fragment {
	if len(e.frags) == 0 {
		return nil
	}
	f := &e.frags[len(e.frags)-1]
	if !f.IsText() {
		return nil
	}
	return f
}

func (e *Extractor) text(raw string) {
	text := raw
	if e.pre == 0 {
		text = collapseSpace(raw)
		if e.atLineStart() {
			text = strings.TrimLeftFunc(text, unicode.IsSpace)
		}
		if prev := e.lastText(); prev != nil && strings.HasSuffix(prev.Text, " ") {
			text = strings.TrimLeftFunc(text, unicode.IsSpace)
		}
	}
	if text == "" {
		return
	}

	style := e.style()
	if n := len(e.links); n > 0 && e.links[n-1] != "" {
		e.frags = append(e.frags, models.LinkTo(text, e.links[n-1], style))
		return
	}
	e.frags = append(e.frags, models.Styled(text, style))
}

func (e *Extractor) style() models.Style {
	s := models.Style{
		Bold:          e.bold > 0,
		Italic:        e.italic > 0,
		Underline:     e.underline > 0,
		Strikethrough: e.strike > 0,
		Code:          e.code > 0,
	}
	if e.mark > 0 {
		s.Color = "yellow_background"
	}
	return s
}

func (e *Extractor) resolve(ref string) string {
	if ref == "" || e.Base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return e.Base.ResolveReference(u).String()
}

func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) && r != '　' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
