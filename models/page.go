package models

import "strings"

// Page is a packed document ready to be submitted as one page-creation request.
type Page struct {
	Title     string  `json:"title"`
	SourceURL string  `json:"source_url,omitempty"`
	Language  string  `json:"language,omitempty"`
	Blocks    []Block `json:"blocks"`
}

// ToPlainText concatenates readable text from all blocks.
func (p *Page) ToPlainText() string {
	var sb strings.Builder

	for _, block := range p.Blocks {
		switch block.Kind {

		case ImageBlock:
			if block.Caption != "" {
				sb.WriteString(block.Caption)
				sb.WriteString("\n")
			}

		default:
			sb.WriteString(block.Text())
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
