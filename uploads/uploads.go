// Package uploads stores post images and hands back public URLs. Uploading
// blocks post creation: a post is only persisted once its image is safely
// stored.
package uploads

import (
	"context"
	"io"
)

// MaxImageBytes caps accepted image uploads.
const MaxImageBytes = 5 << 20

// Store saves an image and returns the URL it will be served from.
type Store interface {
	Save(ctx context.Context, r io.Reader, filename string) (string, error)
}
