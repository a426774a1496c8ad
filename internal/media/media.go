// Package media stores uploaded listing images and documents and hands back
// the public URL that gets recorded on the listing.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Open when no object has the given id.
var ErrNotFound = errors.New("media: object not found")

// Store persists an uploaded file and returns its public URL.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Opener is implemented by stores whose objects are served by this service
// rather than by a CDN.
type Opener interface {
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// SafeName reduces a client supplied filename to its base name with a
// conservative character set.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}
