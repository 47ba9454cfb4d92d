package models

type ParseRequest struct {
	URL  string
	HTML string

	// Optional hints
	Mode  ParseMode `json:"mode,omitempty"`
	Title string    `json:"title,omitempty"` // overrides the detected title
}
