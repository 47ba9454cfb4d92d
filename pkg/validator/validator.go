// Package validator decides whether an image or link URL is safe to submit
// to the Notion API. All checks are pure: no DNS, no network, no state.
package validator

import (
	"net/netip"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

const DefaultMaxLength = 2000

var (
	defaultDeniedHosts = []string{
		"localhost",
		"localhost.localdomain",
		"local",
		"internal",
	}

	// Asset names that are almost always decoration and get rejected by
	// the API or render as broken embeds.
	defaultBadSubstrings = []string{
		"emoji",
		"favicon",
		"/icon",
		"-icon",
		"_icon",
		"sprite",
		"spacer.gif",
		"pixel.gif",
		".svg",
		".ico",
	}

	defaultImageExtensions = []string{
		".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".heic",
	}

	// Image proxies that serve images from extension-less paths.
	defaultTrustedImageHosts = []string{
		"i.imgur.com",
		"images.unsplash.com",
		"googleusercontent.com",
		"ggpht.com",
		"pbs.twimg.com",
		"cdn.discordapp.com",
		"media.discordapp.net",
		"i.ebayimg.com",
		"prod-files-secure.s3.us-west-2.amazonaws.com",
	}

	privatePrefixes = mustPrefixes(
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	)
)

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

// Validator holds the rule tables. The zero value is usable and applies
// only the structural rules; use Default for the full tables.
type Validator struct {
	MaxLength         int      // 0 means DefaultMaxLength
	RequireHTTPS      bool     // stricter call sites accept https only
	DeniedHosts       []string // exact host or any subdomain of it
	BadSubstrings     []string // matched against lowercased path+query
	ImageExtensions   []string
	TrustedImageHosts []string // skip the extension check for these hosts
	AllowedHosts      []string // consulted only by IsAllowed
}

// Default returns a Validator with the built-in tables.
func Default() *Validator {
	return &Validator{
		MaxLength:         DefaultMaxLength,
		DeniedHosts:       append([]string(nil), defaultDeniedHosts...),
		BadSubstrings:     append([]string(nil), defaultBadSubstrings...),
		ImageExtensions:   append([]string(nil), defaultImageExtensions...),
		TrustedImageHosts: append([]string(nil), defaultTrustedImageHosts...),
	}
}

var std = Default()

// IsAcceptable checks rawURL against the default tables.
func IsAcceptable(rawURL string) bool {
	return std.IsAcceptable(rawURL)
}

// IsAcceptableImage checks rawURL as an image source against the default tables.
func IsAcceptableImage(rawURL string) bool {
	return std.IsAcceptableImage(rawURL)
}

// IsAcceptable applies the rejection rules in order and accepts when none fire.
func (v *Validator) IsAcceptable(rawURL string) bool {
	_, ok := v.check(rawURL)
	return ok
}

// IsAcceptableImage is IsAcceptable plus the image extension requirement,
// which trusted image proxies bypass.
func (v *Validator) IsAcceptableImage(rawURL string) bool {
	u, ok := v.check(rawURL)
	if !ok {
		return false
	}
	if matchesHost(hostOf(u), v.TrustedImageHosts) {
		return true
	}
	if len(v.ImageExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, want := range v.ImageExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// IsAllowed is the allow-list check some call sites layer on top of
// IsAcceptable. An empty allow-list allows nothing.
func (v *Validator) IsAllowed(rawURL string) bool {
	u, ok := v.check(rawURL)
	if !ok {
		return false
	}
	return matchesHost(hostOf(u), v.AllowedHosts)
}

func (v *Validator) check(rawURL string) (*url.URL, bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return nil, false
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") {
		return nil, false
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return nil, false
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	scheme := strings.ToLower(u.Scheme)
	if v.RequireHTTPS {
		if scheme != "https" {
			return nil, false
		}
	} else if scheme != "http" && scheme != "https" {
		return nil, false
	}

	maxLen := v.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if utf8.RuneCountInString(s) > maxLen {
		return nil, false
	}

	host := hostOf(u)
	if host == "" {
		return nil, false
	}
	if matchesHost(host, v.DeniedHosts) || isPrivateAddr(host) {
		return nil, false
	}

	tail := strings.ToLower(u.EscapedPath())
	if u.RawQuery != "" {
		tail += "?" + strings.ToLower(u.RawQuery)
	}
	for _, bad := range v.BadSubstrings {
		if bad != "" && strings.Contains(tail, strings.ToLower(bad)) {
			return nil, false
		}
	}

	return u, true
}

// matchesHost reports whether host equals an entry or is a subdomain of one.
func matchesHost(host string, list []string) bool {
	for _, entry := range list {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// hostOf lowercases the host and drops the trailing dot of an absolute name.
func hostOf(u *url.URL) string {
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func isPrivateAddr(host string) bool {
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		var ok bool
		if addr, ok = parseLegacyIPv4(host); !ok {
			return false
		}
	}
	addr = addr.Unmap()
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseLegacyIPv4 reads the numeric host forms resolvers still accept:
// one to four parts, each decimal, octal (leading 0) or hex (0x), with the
// last part filling the remaining bytes. "2130706433", "0x7f000001" and
// "0177.1" are all 127.0.0.1.
func parseLegacyIPv4(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return netip.Addr{}, false
	}
	vals := make([]uint64, len(parts))
	for i, part := range parts {
		if part == "" {
			return netip.Addr{}, false
		}
		n, err := strconv.ParseUint(part, 0, 32)
		if err != nil {
			return netip.Addr{}, false
		}
		vals[i] = n
	}

	last := len(vals) - 1
	if vals[last] >= 1<<(8*(4-last)) {
		return netip.Addr{}, false
	}
	ip := vals[last]
	for i := 0; i < last; i++ {
		if vals[i] > 0xff {
			return netip.Addr{}, false
		}
		ip |= vals[i] << (8 * (3 - i))
	}
	return netip.AddrFrom4([4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}), true
}
