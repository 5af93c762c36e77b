// Package archive stores exported report and invoice files in Google Cloud Storage.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invoicing/internal/logger"
)

const uploadTimeout = 2 * time.Minute

// GCSArchive uploads files into a bucket under a date-partitioned folder.
type GCSArchive struct {
	client *storage.Client
	bucket string
	folder string
	now    func() time.Time
	log    zerolog.Logger
}

// NewGCSArchive creates an archive for bucket. credentialsFile may be empty to use
// application default credentials.
func NewGCSArchive(ctx context.Context, bucket, folder, credentialsFile string) (*GCSArchive, error) {
	const op = "NewGCSArchive"

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create storage client: %w", op, err)
	}

	return &GCSArchive{
		client: client,
		bucket: bucket,
		folder: folder,
		now:    time.Now,
		log:    logger.WithComponent("gcs-archive"),
	}, nil
}

// Store uploads r as name and returns the gs:// URI of the object.
func (a *GCSArchive) Store(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	const op = "Store"

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := ObjectName(a.folder, name, a.now())
	w := a.client.Bucket(a.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%s: failed to write data to GCS: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to close GCS writer: %w", op, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, key)
	a.log.Info().Str("uri", uri).Str("content_type", contentType).Msg("Archived export")
	return uri, nil
}

// Close releases the storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// ObjectName builds the object key folder/YYYY/MM/DD/name. Empty folders are omitted.
func ObjectName(folder, name string, t time.Time) string {
	folder = strings.Trim(folder, "/")
	datePath := t.Format("2006/01/02")
	if folder == "" {
		return path.Join(datePath, name)
	}
	return path.Join(folder, datePath, name)
}
