package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage writes dry-run payloads and other artifacts under Dir.
type Storage struct {
	Dir string
}

// SaveFile writes content to filePath, creating parent directories.
func (s *Storage) SaveFile(filePath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Storage) HasFile(fn string) bool {
	_, err := os.Stat(fn)
	return err == nil
}

// SaveJSON writes v as indented JSON and returns the path written.
func (s *Storage) SaveJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := s.SaveFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// PayloadName builds a filesystem-friendly name from a source URL, or
// from the title when there is no URL.
func PayloadName(rawURL, title string, now time.Time) string {
	day := now.Format("2006-01-02")

	parsedURL, err := url.Parse(rawURL)
	if rawURL == "" || err != nil || parsedURL.Host == "" {
		base := sanitize(title)
		if base == "" {
			base = "clip"
		}
		return fmt.Sprintf("%s-%s.json", base, day)
	}

	host := strings.ReplaceAll(parsedURL.Host, ".", "_")

	// Path keeps github.com/a/b and github.com/c/d apart
	path := strings.Trim(parsedURL.Path, "/")
	path = strings.ReplaceAll(path, "/", "-")
	path = strings.ReplaceAll(path, ".", "_")

	base := host
	if path != "" {
		base = fmt.Sprintf("%s-%s", host, path)
	}
	return fmt.Sprintf("%s-%s.json", base, day)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
		if b.Len() >= 60 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
