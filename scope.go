package sitegraph

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// LinkScope classifies a URL relative to a crawl's origin.
type LinkScope int

const (
	// ScopeRejected marks URLs that are unparsable, non-http(s), blacklisted,
	// or point at a non-document resource.
	ScopeRejected LinkScope = iota
	// ScopeInternal marks crawlable same-origin URLs.
	ScopeInternal
	// ScopeExternal marks URLs on another host.
	ScopeExternal
)

// String returns a lower-case name for the scope.
func (s LinkScope) String() string {
	switch s {
	case ScopeInternal:
		return "internal"
	case ScopeExternal:
		return "external"
	default:
		return "rejected"
	}
}

// excludedExtensions lists path extensions that never hold a markup document.
var excludedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".bmp": true, ".tif": true, ".tiff": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".csv": true,
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".rar": true,
	".7z": true, ".bz2": true, ".exe": true, ".dmg": true, ".iso": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".webm": true, ".wav": true, ".ogg": true, ".flv": true,
	".css": true, ".js": true, ".mjs": true, ".map": true, ".json": true,
	".xml": true, ".rss": true, ".atom": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
}

// Normalize returns the canonical form of raw resolved against base.
//
// The scheme and host are lower-cased, default ports and fragments are
// dropped, an empty path becomes "/", and trailing slashes are removed from
// every path except the root. The query string is kept verbatim. Base may be
// empty when raw is absolute. The bool result is false when the URL cannot
// be parsed or is not an absolute http(s) URL.
func Normalize(raw, base string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" && base == "" {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	u := ref
	if base != "" {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil || !b.IsAbs() {
			return "", false
		}
		u = b.ResolveReference(ref)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Opaque != "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false

	escaped := strings.TrimRight(u.EscapedPath(), "/")
	if escaped == "" {
		escaped = "/"
	}
	p, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	u.Path = p
	u.RawPath = escaped

	return u.String(), true
}

// Scope decides which URLs a crawl may fetch.
// A Scope is immutable after construction and safe for concurrent use.
type Scope struct {
	origin   string
	host     string
	literals []string
	patterns []*regexp.Regexp
}

// NewScope returns a Scope rooted at origin.
//
// Each blacklist entry is matched against the URL path plus query. Entries
// containing regular-expression metacharacters are compiled as regular
// expressions; all others match as literal substrings. An origin that
// matches the blacklist is invalid.
func NewScope(origin string, blacklist []string) (*Scope, error) {
	normalized, ok := Normalize(origin, "")
	if !ok {
		return nil, Errorf(EINVALID, "invalid origin URL %q", origin)
	}
	u, _ := url.Parse(normalized)

	s := &Scope{
		origin: normalized,
		host:   u.Host,
	}
	for _, pattern := range blacklist {
		if pattern == "" {
			continue
		}
		if !isRegexPattern(pattern) {
			s.literals = append(s.literals, pattern)
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid blacklist pattern %q: %v", pattern, err)
		}
		s.patterns = append(s.patterns, re)
	}
	if s.blacklisted(u) {
		return nil, Errorf(EINVALID, "origin %s matches the blacklist", normalized)
	}
	return s, nil
}

// Origin returns the normalized origin URL.
func (s *Scope) Origin() string {
	return s.origin
}

// Host returns the origin host, including a non-default port.
func (s *Scope) Host() string {
	return s.host
}

// Classify normalizes raw against base and reports where it falls.
// The normalized URL is returned for internal and external URLs.
func (s *Scope) Classify(raw, base string) (string, LinkScope) {
	normalized, ok := Normalize(raw, base)
	if !ok {
		return "", ScopeRejected
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", ScopeRejected
	}
	if u.Host != s.host {
		return normalized, ScopeExternal
	}
	if excludedExtensions[strings.ToLower(path.Ext(u.Path))] {
		return normalized, ScopeRejected
	}
	if s.blacklisted(u) {
		return normalized, ScopeRejected
	}
	return normalized, ScopeInternal
}

// Allow reports whether raw, resolved against base, may be crawled.
func (s *Scope) Allow(raw, base string) (string, bool) {
	normalized, scope := s.Classify(raw, base)
	if scope != ScopeInternal {
		return "", false
	}
	return normalized, true
}

// Blacklisted reports whether the URL matches a blacklist entry.
func (s *Scope) Blacklisted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return s.blacklisted(u)
}

func (s *Scope) blacklisted(u *url.URL) bool {
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	for _, lit := range s.literals {
		if strings.Contains(target, lit) {
			return true
		}
	}
	for _, re := range s.patterns {
		if re.MatchString(target) {
			return true
		}
	}
	return false
}

func isRegexPattern(p string) bool {
	return strings.ContainsAny(p, `*?[](){}|^$+\`)
}
