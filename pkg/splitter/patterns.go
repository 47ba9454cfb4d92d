package splitter

import "regexp"

// Pattern is one named delimiter rule. Each match start is a cut point.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

func pattern(name, expr string) Pattern {
	return Pattern{Name: name, Expr: regexp.MustCompile(expr)}
}

// The tables below were tuned on chat exports; treat them as configuration.

// DefaultPatterns is the priority-ordered table for generic content.
func DefaultPatterns() []Pattern {
	return []Pattern{
		pattern("bracket_heading", `(?m)^[ \t]*[【\[][^】\]\n]{1,40}[】\]]`),
		pattern("markdown_heading", `(?m)^[ \t]*#{1,6}[ \t]+\S`),
		pattern("bullet", `(?m)^[ \t]*[・•■◆●▪◇□○◎★☆▶►\-\*][ \t]*\S`),
		pattern("numbered", `(?m)^[ \t]*(?:\d{1,3}[.)]|[①-⑳])[ \t]*\S`),
		pattern("speaker", `(?m)^[ \t]*[\p{So}][^\n:：]{0,30}[:：]`),
	}
}

// JapanesePatterns adds full-width variants ahead of the generic rules.
func JapanesePatterns() []Pattern {
	return []Pattern{
		pattern("bracket_heading", `(?m)^[ \t　]*[【〔［\[『][^】〕］\]』\n]{1,40}[】〕］\]』]`),
		pattern("markdown_heading", `(?m)^[ \t　]*#{1,6}[ \t]+\S`),
		pattern("bullet", `(?m)^[ \t　]*[・•■◆●▪◇□○◎★☆▶►※\-\*][ \t　]*\S`),
		pattern("numbered", `(?m)^[ \t　]*(?:[0-9０-９]{1,3}[.)．）、]|[①-⑳])[ \t　]*\S`),
		pattern("speaker", `(?m)^[ \t　]*[\p{So}][^\n:：]{0,30}[:：]`),
	}
}
