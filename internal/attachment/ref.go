// Package attachment resolves attachment references carried by incoming
// requests into sendable files.
//
// A reference is either an external URL or an id pointing into the local
// attachment store. The id scheme is "base64://<id>"; anything else with a
// scheme separator is treated as a URL, and anything malformed degrades to
// a miss rather than an error.
package attachment

import "strings"

const idScheme = "base64://"

// Kind discriminates parsed references.
type Kind int

const (
	KindNone Kind = iota
	KindURL
	KindByID
)

// Reference is a decoded attachment reference.
type Reference struct {
	Kind Kind
	URL  string
	ID   string
}

// Parse decodes a raw reference string. Empty or malformed input yields
// KindNone; resolution then reports a miss without touching storage.
func Parse(raw string) Reference {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}
	}
	if strings.HasPrefix(raw, idScheme) {
		id := strings.TrimSpace(strings.TrimPrefix(raw, idScheme))
		if id == "" {
			return Reference{}
		}
		return Reference{Kind: KindByID, ID: id}
	}
	if strings.Contains(raw, "://") {
		return Reference{Kind: KindURL, URL: raw}
	}
	return Reference{}
}
