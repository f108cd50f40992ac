// Package thumbs lists video thumbnail assets from object storage.
package thumbs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const thumbnailsPrefix = "video_thumbnails/"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// List is the GET /api/thumbnails response.
type List struct {
	ThumbnailURLs []string `json:"thumbnailUrls"`
	Count         int      `json:"count"`
}

// Lister lists thumbnail objects from one GCS bucket.
type Lister struct {
	bucket string
	client *storage.Client
}

// New creates a Lister using ambient credentials.
func New(ctx context.Context, bucket string) (*Lister, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Lister{bucket: bucket, client: client}, nil
}

// Close releases the underlying storage client.
func (l *Lister) Close() error {
	return l.client.Close()
}

// Thumbnails lists image objects under the thumbnails prefix and
// returns their public URLs. The prefix placeholder object itself and
// non-image files are skipped.
func (l *Lister) Thumbnails(ctx context.Context) (List, error) {
	it := l.client.Bucket(l.bucket).Objects(ctx, &storage.Query{Prefix: thumbnailsPrefix})

	urls := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return List{}, fmt.Errorf("failed to list thumbnails: %w", err)
		}
		if attrs.Name == thumbnailsPrefix || !isImage(attrs.Name) {
			continue
		}
		urls = append(urls, fmt.Sprintf("https://storage.googleapis.com/%s/%s", l.bucket, attrs.Name))
	}

	return List{ThumbnailURLs: urls, Count: len(urls)}, nil
}

func isImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
