// Package sanitize filters untrusted HTML down to a fixed whitelist of tags,
// attributes and inline style properties.
//
// Sanitizing happens in two stages. A tokenizer pass rewrites the attributes
// of every start tag through a pure filter (event handlers, unsafe URLs,
// foreign iframe sources and non allow-listed style declarations are
// removed), then a bluemonday policy compiled from the same whitelist drops
// every tag and attribute that is not listed and removes script bodies.
//
// A Sanitizer is immutable once built and safe for concurrent use.
package sanitize

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/n0madic/unachat/utils"
	"golang.org/x/net/html"
)

// linkRel is required on every anchor that keeps an href.
var linkRel = []string{"noopener", "noreferrer"}

// Sanitizer compiled from a Whitelist
type Sanitizer struct {
	attrs   map[string]map[string]bool
	styles  map[string]bool
	schemes map[string]bool
	hosts   map[string]bool
	policy  *bluemonday.Policy
}

var (
	std   = New(Default)
	names = New(Names)
)

// New compiles a whitelist
func New(wl Whitelist) *Sanitizer {
	s := &Sanitizer{
		attrs:   make(map[string]map[string]bool, len(wl.Tags)),
		styles:  toSet(wl.Styles),
		schemes: toSet(wl.Schemes),
		hosts:   toSet(wl.EmbedHosts),
	}
	for tag, attrs := range wl.Tags {
		s.attrs[tag] = toSet(attrs)
	}
	s.policy = newPolicy(wl)
	return s
}

func newPolicy(wl Whitelist) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowURLSchemes(wl.Schemes...)
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(false)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	p.SkipElementsContent(wl.StripBody...)
	for tag, attrs := range wl.Tags {
		p.AllowElements(tag)
		if len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(tag)
		}
	}
	if len(wl.Styles) > 0 {
		p.AllowStyles(wl.Styles...).Globally()
	}
	return p
}

// Sanitize text with the default whitelist
func Sanitize(text string) string {
	return std.Sanitize(text)
}

// SanitizeName cleans a nickname with the Names whitelist
func SanitizeName(text string) string {
	return names.Sanitize(text)
}

// Sanitize returns text reduced to the whitelist. It never fails: a panic in
// either stage degrades to the fully escaped input.
func (s *Sanitizer) Sanitize(text string) (clean string) {
	if text == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			clean = Escape(text)
		}
	}()
	return s.policy.Sanitize(s.rewrite(text))
}

// rewrite passes every start tag through filterAttr and copies all other
// tokens verbatim.
func (s *Sanitizer) rewrite(text string) string {
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	b.Grow(len(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			kept := tok.Attr[:0]
			for _, attr := range tok.Attr {
				val, ok := s.filterAttr(tok.Data, attr.Key, attr.Val)
				if !ok {
					continue
				}
				attr.Val = val
				kept = append(kept, attr)
			}
			if tok.Data == "a" {
				kept = secureRel(kept)
			}
			tok.Attr = kept
			b.WriteString(tok.String())
		default:
			b.Write(z.Raw())
		}
	}
}

// filterAttr decides whether an attribute survives on tag and returns its
// possibly rewritten value.
func (s *Sanitizer) filterAttr(tag, key, val string) (string, bool) {
	if strings.HasPrefix(key, "on") || !s.attrs[tag][key] {
		return "", false
	}
	switch key {
	case "style":
		val = s.filterStyle(val)
		return val, val != ""
	case "href", "src":
		u, ok := s.safeURL(val)
		if !ok {
			return "", false
		}
		if tag == "iframe" && !s.hosts[strings.ToLower(u.Hostname())] {
			return "", false
		}
	}
	return val, true
}

// secureRel adds noopener and noreferrer to the rel of an anchor with an href.
func secureRel(attrs []html.Attribute) []html.Attribute {
	href, rel := false, -1
	for i, attr := range attrs {
		switch attr.Key {
		case "href":
			href = true
		case "rel":
			rel = i
		}
	}
	if !href {
		return attrs
	}
	if rel < 0 {
		return append(attrs, html.Attribute{Key: "rel", Val: strings.Join(linkRel, " ")})
	}
	values := strings.Fields(strings.ToLower(attrs[rel].Val))
	for _, value := range linkRel {
		if !utils.StringInSlice(value, values) {
			values = append(values, value)
		}
	}
	attrs[rel].Val = strings.Join(values, " ")
	return attrs
}

// filterStyle keeps the well formed declarations whose property is allowed.
func (s *Sanitizer) filterStyle(style string) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		i := strings.IndexByte(decl, ':')
		if i < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:i]))
		value := strings.TrimSpace(decl[i+1:])
		if prop == "" || value == "" || !s.styles[prop] {
			continue
		}
		kept = append(kept, prop+": "+value)
	}
	return strings.Join(kept, "; ")
}

func (s *Sanitizer) safeURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, s.schemes[strings.ToLower(u.Scheme)]
}

// Escape text for HTML text and double-quoted attribute context
func Escape(text string) string {
	return html.EscapeString(text)
}

// Unescape HTML entities
func Unescape(text string) string {
	return html.UnescapeString(text)
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		set[strings.ToLower(v)] = true
	}
	return set
}
