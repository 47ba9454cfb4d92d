package notion

import (
	"github.com/dtnitsch/notion-clipper/models"
	"github.com/dtnitsch/notion-clipper/pkg/packer"
)

// CreatePageRequest is the body of POST /v1/pages.
type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]TitleProperty `json:"properties"`
	Children   []Block                  `json:"children,omitempty"`
}

type Parent struct {
	DatabaseID string `json:"database_id"`
}

type TitleProperty struct {
	Title []RichText `json:"title"`
}

type RichText struct {
	Type        string       `json:"type"`
	Text        Text         `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type Block struct {
	Object    string         `json:"object"`
	Type      string         `json:"type"`
	Paragraph *ParagraphBody `json:"paragraph,omitempty"`
	Image     *ImageBody     `json:"image,omitempty"`
	Callout   *CalloutBody   `json:"callout,omitempty"`
}

type ParagraphBody struct {
	RichText []RichText `json:"rich_text"`
}

type ImageBody struct {
	Type     string       `json:"type"`
	External ExternalFile `json:"external"`
	Caption  []RichText   `json:"caption,omitempty"`
}

type ExternalFile struct {
	URL string `json:"url"`
}

type CalloutBody struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// BuildCreatePageRequest maps a packed page onto the page-creation body.
func BuildCreatePageRequest(databaseID, titleProperty string, page *models.Page) *CreatePageRequest {
	if titleProperty == "" {
		titleProperty = models.DefaultTitleProperty
	}

	req := &CreatePageRequest{
		Parent: Parent{DatabaseID: databaseID},
		Properties: map[string]TitleProperty{
			titleProperty: {Title: []RichText{plainText(limit(page.Title))}},
		},
	}
	for _, b := range page.Blocks {
		req.Children = append(req.Children, ConvertBlock(b))
	}
	return req
}

// ConvertBlock maps one block onto its wire form.
func ConvertBlock(b models.Block) Block {
	switch b.Kind {
	case models.ImageBlock:
		img := &ImageBody{Type: "external", External: ExternalFile{URL: b.ImageURL}}
		if b.Caption != "" {
			img.Caption = []RichText{plainText(limit(b.Caption))}
		}
		return Block{Object: "block", Type: b.Kind.String(), Image: img}

	case models.NoticeBlock:
		callout := &CalloutBody{}
		if b.Notice != nil {
			callout.RichText = []RichText{plainText(limit(b.Notice.Text))}
			callout.Color = b.Notice.Color
			if b.Notice.Icon != "" {
				callout.Icon = &Icon{Type: "emoji", Emoji: b.Notice.Icon}
			}
		}
		return Block{Object: "block", Type: b.Kind.String(), Callout: callout}
	}

	body := &ParagraphBody{RichText: make([]RichText, 0, len(b.Runs))}
	for _, r := range b.Runs {
		body.RichText = append(body.RichText, runText(r))
	}
	return Block{Object: "block", Type: models.ParagraphBlock.String(), Paragraph: body}
}

func runText(r models.Run) RichText {
	rt := RichText{Type: "text", Text: Text{Content: r.Text}}
	if r.LinkTarget != "" {
		rt.Text.Link = &Link{URL: r.LinkTarget}
	}
	if !r.Style.IsZero() {
		color := r.Style.Color
		if color == "" {
			color = "default"
		}
		rt.Annotations = &Annotations{
			Bold:          r.Style.Bold,
			Italic:        r.Style.Italic,
			Strikethrough: r.Style.Strikethrough,
			Underline:     r.Style.Underline,
			Code:          r.Style.Code,
			Color:         color,
		}
	}
	return rt
}

func plainText(s string) RichText {
	return RichText{Type: "text", Text: Text{Content: s}}
}

// limit cuts s to the per-string platform limit.
func limit(s string) string {
	runes := []rune(s)
	if len(runes) <= packer.NotionTextLimit {
		return s
	}
	return string(runes[:packer.NotionTextLimit])
}
