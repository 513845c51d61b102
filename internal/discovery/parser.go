package discovery

import (
	"net/url"
	"regexp"
	"strings"
)

// Link is one anchor extracted from a page, with enough surrounding text to
// judge what it points at.
type Link struct {
	URL     string
	Text    string
	Context string
}

// Sections are the page regions the content heuristics inspect.
type Sections struct {
	Meta    string
	Scripts string
	Tables  string
}

// Parser is the capability contract the discovery strategies need from a
// page. The algorithms never touch markup directly, so the concrete parsing
// technology can be swapped without touching them.
type Parser interface {
	ParseLinks(body, baseURL string) []Link
	FindKeywords(body string, keywords []string) int
	ExtractStructuredData(body string) []string
	Sections(body string) Sections
}

var (
	anchorRe  = regexp.MustCompile(`(?is)<a\s[^>]*?href=["']([^"'#][^"']*)["'][^>]*>(.*?)</a>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	metaRe    = regexp.MustCompile(`(?is)<meta\s[^>]*content=["']([^"']+)["'][^>]*>`)
	scriptRe  = regexp.MustCompile(`(?is)<script(?:\s[^>]*)?>(.*?)</script>`)
	tableRe   = regexp.MustCompile(`(?is)<t[dh](?:\s[^>]*)?>(.*?)</t[dh]>`)
	jsonLDRe  = regexp.MustCompile(`(?is)<script[^>]+application/ld\+json[^>]*>(.*?)</script>`)
	spacesRe  = regexp.MustCompile(`\s+`)
	contextSz = 120
)

// regexParser is the default Parser. Pages in the wild are rarely well-formed
// enough for a strict DOM pass, so forgiving patterns win here.
type regexParser struct{}

// NewParser returns the default regex-backed parser.
func NewParser() Parser { return &regexParser{} }

func (p *regexParser) ParseLinks(body, baseURL string) []Link {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	matches := anchorRe.FindAllStringSubmatchIndex(body, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		href := body[m[2]:m[3]]
		text := cleanText(body[m[4]:m[5]])

		resolved := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if !strings.HasPrefix(resolved, "http") {
			continue
		}

		start := m[0] - contextSz
		if start < 0 {
			start = 0
		}
		end := m[1] + contextSz
		if end > len(body) {
			end = len(body)
		}
		links = append(links, Link{
			URL:     resolved,
			Text:    text,
			Context: cleanText(body[start:end]),
		})
	}
	return links
}

func (p *regexParser) FindKeywords(body string, keywords []string) int {
	lower := strings.ToLower(body)
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

func (p *regexParser) ExtractStructuredData(body string) []string {
	matches := jsonLDRe.FindAllStringSubmatch(body, -1)
	blobs := make([]string, 0, len(matches))
	for _, m := range matches {
		if blob := strings.TrimSpace(m[1]); blob != "" {
			blobs = append(blobs, blob)
		}
	}
	return blobs
}

func (p *regexParser) Sections(body string) Sections {
	var s Sections

	var meta []string
	for _, m := range metaRe.FindAllStringSubmatch(body, -1) {
		meta = append(meta, m[1])
	}
	s.Meta = strings.Join(meta, " ")

	var scripts []string
	for _, m := range scriptRe.FindAllStringSubmatch(body, -1) {
		scripts = append(scripts, m[1])
	}
	s.Scripts = strings.Join(scripts, " ")

	var cells []string
	for _, m := range tableRe.FindAllStringSubmatch(body, -1) {
		cells = append(cells, cleanText(m[1]))
	}
	s.Tables = strings.Join(cells, " ")

	return s
}

func cleanText(fragment string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(tagRe.ReplaceAllString(fragment, " "), " "))
}
