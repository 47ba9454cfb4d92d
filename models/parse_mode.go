package models

// ParseMode represents how much work the HTML parser does before packing.
type ParseMode int

const (
	// ParseModeMinimal extracts the title only, no content.
	ParseModeMinimal ParseMode = iota
	ParseModeCheap   // Whole sanitized document, no readability pass
	ParseModeFull    // Readability isolates the main content first
)

func (m ParseMode) String() string {
	switch m {
	case ParseModeCheap:
		return "cheap"
	case ParseModeFull:
		return "full"
	}
	return "minimal"
}

// ParseModeFromString maps a flag value to a ParseMode. Unknown values
// fall back to Full since that is what a clip almost always wants.
func ParseModeFromString(s string) ParseMode {
	switch s {
	case "minimal":
		return ParseModeMinimal
	case "cheap":
		return ParseModeCheap
	}
	return ParseModeFull
}
