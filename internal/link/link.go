package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"eventdetail/internal/model"
)

// ErrInvalidURI is returned when a raw link cannot be turned into a navigable
// absolute URI. Callers disable the affordance instead of failing.
var ErrInvalidURI = errors.New("invalid URI")

const upperhex = "0123456789ABCDEF"

// queryAllowed reports whether b may appear unescaped in a URL query
// component: ASCII alphanumerics plus !$&'()*+,-./:;=?@_~
func queryAllowed(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	switch b {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', '-', '.', '/', ':', ';', '=', '?', '@', '_', '~':
		return true
	}
	return false
}

// Encode percent-encodes every byte of raw outside the query-allowed set.
// Existing escapes are not preserved: '%' itself is encoded.
func Encode(raw string) string {
	n := 0
	for i := 0; i < len(raw); i++ {
		if !queryAllowed(raw[i]) {
			n++
		}
	}
	if n == 0 {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + 2*n)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if queryAllowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// Resolver turns raw link strings into URIs, optionally restricted to a set
// of schemes. The zero value accepts any scheme.
type Resolver struct {
	AllowedSchemes []string
}

// Resolve encodes raw and parses it as an absolute URI.
func Resolve(raw string) (*url.URL, error) {
	return Resolver{}.Resolve(raw)
}

func (r Resolver) Resolve(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURI)
	}

	encoded := Encode(raw)
	u, err := url.Parse(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidURI, encoded)
	}
	if !r.schemeAllowed(u.Scheme) {
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURI, u.Scheme)
	}
	return u, nil
}

func (r Resolver) schemeAllowed(scheme string) bool {
	if len(r.AllowedSchemes) == 0 {
		return true
	}
	for _, s := range r.AllowedSchemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// Kind identifies an outbound link of an event.
type Kind string

const (
	KindYoutube Kind = "youtube"
	KindWebsite Kind = "website"
)

// Affordance is one entry of the "Explore more" block. URI is empty and
// Enabled false when the raw link did not resolve.
type Affordance struct {
	Kind    Kind   `json:"kind"`
	Raw     string `json:"raw"`
	URI     string `json:"uri,omitempty"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Affordances resolves the event's outbound links in display order.
func (r Resolver) Affordances(ev model.Event) []Affordance {
	return []Affordance{
		r.affordance(KindYoutube, ev.YoutubeURL),
		r.affordance(KindWebsite, ev.Link),
	}
}

func (r Resolver) affordance(kind Kind, raw string) Affordance {
	a := Affordance{Kind: kind, Raw: raw}
	u, err := r.Resolve(raw)
	if err != nil {
		a.Reason = err.Error()
		return a
	}
	a.URI = u.String()
	a.Enabled = true
	return a
}
