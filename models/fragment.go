package models

import "strings"

// FragmentKind identifies what a Fragment carries.
type FragmentKind int

const (
	PlainRun FragmentKind = iota
	StyledRun
	Link
	Image
	LineBreak
	EmptyLine
)

func (k FragmentKind) String() string {
	switch k {
	case PlainRun:
		return "plain"
	case StyledRun:
		return "styled"
	case Link:
		return "link"
	case Image:
		return "image"
	case LineBreak:
		return "line_break"
	case EmptyLine:
		return "empty_line"
	}
	return "unknown"
}

// Style holds the independent annotation flags of a text run.
// Two runs may be merged only when their Styles compare equal.
type Style struct {
	Bold          bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty" yaml:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty" yaml:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty" yaml:"code,omitempty"`
	Color         string `json:"color,omitempty" yaml:"color,omitempty"` // highlight color, "" means default
}

// IsZero reports whether no annotation is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Fragment is one unit of extracted content, in document order.
type Fragment struct {
	Kind       FragmentKind `json:"kind"`
	Text       string       `json:"text,omitempty"`
	Style      Style        `json:"style,omitempty"`
	LinkTarget string       `json:"link_target,omitempty"`
	ImageURL   string       `json:"image_url,omitempty"`
	ImageAlt   string       `json:"image_alt,omitempty"`
}

// Plain returns an unstyled text fragment.
func Plain(text string) Fragment {
	return Fragment{Kind: PlainRun, Text: text}
}

// Styled returns a text fragment with annotations. A zero style
// degrades to a PlainRun.
func Styled(text string, style Style) Fragment {
	if style.IsZero() {
		return Plain(text)
	}
	return Fragment{Kind: StyledRun, Text: text, Style: style}
}

// LinkTo returns a hyperlink fragment.
func LinkTo(text, target string, style Style) Fragment {
	return Fragment{Kind: Link, Text: text, Style: style, LinkTarget: strings.TrimSpace(target)}
}

// ImageOf returns an image fragment. Images never carry style.
func ImageOf(url, alt string) Fragment {
	return Fragment{Kind: Image, ImageURL: strings.TrimSpace(url), ImageAlt: alt}
}

// Break returns a line break marker.
func Break() Fragment {
	return Fragment{Kind: LineBreak}
}

// Empty returns an empty line marker.
func Empty() Fragment {
	return Fragment{Kind: EmptyLine}
}

// IsText reports whether the fragment contributes to a Run.
func (f Fragment) IsText() bool {
	return f.Kind == PlainRun || f.Kind == StyledRun || f.Kind == Link
}

// FragmentsText concatenates the visible text of fragments, rendering
// line breaks as "\n" and empty lines as "\n\n".
func FragmentsText(fragments []Fragment) string {
	var sb strings.Builder
	for _, f := range fragments {
		switch f.Kind {
		case LineBreak:
			sb.WriteString("\n")
		case EmptyLine:
			sb.WriteString("\n\n")
		default:
			sb.WriteString(f.Text)
		}
	}
	return sb.String()
}
