package parser

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/budget"
	"github.com/dtnitsch/notion-clipper/pkg/detector"
	"github.com/dtnitsch/notion-clipper/pkg/nodetree"
	"github.com/dtnitsch/notion-clipper/pkg/packer"
	"github.com/dtnitsch/notion-clipper/pkg/validator"
)

const untitled = "Untitled clip"

// Parser turns fetched HTML into a packed, budgeted page.
type Parser struct {
	Validator *validator.Validator
	Packer    *packer.Packer
	Detector  *detector.Detector // optional; sets Page.Language
	MaxBlocks int
	Logger    *slog.Logger

	policy *bluemonday.Policy
}

// New builds a parser with the default validator.
func New(p *packer.Packer, maxBlocks int, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		Validator: validator.Default(),
		Packer:    p,
		MaxBlocks: maxBlocks,
		Logger:    logger,
	}
}

func (p *Parser) sanitizer() *bluemonday.Policy {
	if p.policy == nil {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("data-src").OnElements("img")
		policy.AllowElements("mark", "kbd")
		p.policy = policy
	}
	return p.policy
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Parse extracts, packs and budgets one HTML document. Full mode lets
// go-readability find the main content; Cheap mode uses the whole body.
func (p *Parser) Parse(req models.ParseRequest) (*models.Page, error) {
	if p.Packer == nil {
		return nil, fmt.Errorf("parser has no packer configured")
	}

	var base *url.URL
	if req.URL != "" {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL: %w", err)
		}
		base = u
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := normalizeText(req.Title)
	if title == "" {
		title = normalizeText(doc.Find("title").First().Text())
	}
	if title == "" {
		title = normalizeText(doc.Find("h1").First().Text())
	}

	page := &models.Page{Title: title, SourceURL: req.URL}
	if req.Mode == models.ParseModeMinimal {
		page.Title = orUntitled(page.Title)
		return page, nil
	}

	content := ""
	if req.Mode == models.ParseModeFull && base != nil {
		rp := readability.NewParser()
		article, err := rp.Parse(strings.NewReader(req.HTML), base)
		if err != nil {
			p.logger().Warn("readability failed, using whole body", "url", req.URL, "error", err)
		} else {
			content = article.Content
			if req.Title == "" && normalizeText(article.Title) != "" {
				page.Title = normalizeText(article.Title)
			}
		}
	}
	if strings.TrimSpace(content) == "" {
		doc.Find("head, script, style, noscript, template").Remove()
		body := doc.Find("body")
		if body.Length() == 0 {
			body = doc.Selection
		}
		content, err = body.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}
	}

	frags, err := p.Fragments(content, base)
	if err != nil {
		return nil, err
	}

	blocks, err := p.Packer.Pack(frags)
	if err != nil {
		return nil, err
	}
	blocks, err = budget.Enforce(blocks, p.MaxBlocks)
	if err != nil {
		return nil, err
	}

	page.Title = orUntitled(page.Title)
	page.Blocks = blocks
	if p.Detector != nil {
		page.Language = p.Detector.Detect(models.FragmentsText(frags))
	}
	return page, nil
}

// Fragments sanitizes an HTML fragment, walks it and filters the result
// through the validator.
func (p *Parser) Fragments(rawHTML string, base *url.URL) ([]models.Fragment, error) {
	clean := p.sanitizer().Sanitize(rawHTML)
	root, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sanitized HTML: %w", err)
	}
	tree := nodetree.FromHTML(root)
	frags := nodetree.Extract(tree, base)

	v := p.Validator
	if v == nil {
		v = validator.Default()
	}
	out, dropped := FilterFragments(frags, v)
	if dropped > 0 {
		p.logger().Debug("dropped unacceptable images", "count", dropped)
	}
	return out, nil
}

// FilterFragments drops images the validator rejects or that fall outside
// a configured host allow-list, and unlinks link targets it rejects. Text
// is NFC-normalized. It returns how many images were dropped.
func FilterFragments(frags []models.Fragment, v *validator.Validator) ([]models.Fragment, int) {
	out := make([]models.Fragment, 0, len(frags))
	dropped := 0
	for _, f := range frags {
		switch f.Kind {
		case models.Image:
			if !v.IsAcceptableImage(f.ImageURL) || (len(v.AllowedHosts) > 0 && !v.IsAllowed(f.ImageURL)) {
				dropped++
				continue
			}
		case models.Link:
			if !v.IsAcceptable(f.LinkTarget) {
				f = models.Styled(f.Text, f.Style)
			}
		}
		if f.Text != "" {
			f.Text = norm.NFC.String(f.Text)
		}
		out = append(out, f)
	}
	return out, dropped
}

func orUntitled(title string) string {
	if title == "" {
		return untitled
	}
	return title
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			// Write the line and a single space for separation
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	// Return the result, trimming the final space
	return strings.TrimSpace(b.String())
}
