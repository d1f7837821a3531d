// Package media stores course images on an external media host.
package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a media host. Upload returns the public URL of the stored object.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// ThumbnailKey builds the object key of a course thumbnail:
//
//	courses/{courseID}/thumbnail-{uuid}{ext}
//
// The random part keeps a re-upload from overwriting an object a CDN may
// still be serving. ext comes from the client's filename and is lowercased.
func ThumbnailKey(courseID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("courses/%s/thumbnail-%s%s", courseID, uuid.NewString(), ext)
}
