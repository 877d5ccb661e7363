package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"stormplot/internal/logger"
)

// GCSClient handles Google Cloud Storage operations
type GCSClient struct {
	client *storage.Client
	bucket string
	prefix string
	log    *logger.Logger
}

// NewGCSClient creates a new GCS client. Every object path is placed below prefix.
func NewGCSClient(ctx context.Context, bucketName, prefix string) (*GCSClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: bucketName,
		prefix: strings.Trim(prefix, "/"),
		log:    logger.WithComponent("storage"),
	}, nil
}

// Close closes the GCS client
func (g *GCSClient) Close() error {
	return g.client.Close()
}

// objectPath places a client path below the configured prefix
func (g *GCSClient) objectPath(p string) string {
	return ObjectPath(g.prefix, p)
}

// CreateDir is a no-op, GCS has no directories
func (g *GCSClient) CreateDir(ctx context.Context, dirPath string) error {
	return nil
}

// StoreFile uploads a file with a content type derived from its extension
func (g *GCSClient) StoreFile(ctx context.Context, filePath string, fileData []byte) error {
	objectPath := g.objectPath(filePath)

	g.log.Debug("storing file to GCS", map[string]interface{}{
		"object": fmt.Sprintf("gs://%s/%s", g.bucket, objectPath),
		"bytes":  len(fileData),
	})

	writer := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)

	// Set content type based on file extension
	writer.ContentType = GetContentType(filePath)

	writer.CacheControl = "public, max-age=3600" // Cache for 1 hour

	writer.Metadata = map[string]string{
		"generated-at": time.Now().UTC().Format(time.RFC3339),
		"filename":     path.Base(filePath),
	}

	if _, err := writer.Write(fileData); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write file to GCS: %w", err)
	}

	// Close writer to finalize upload
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS file upload: %w", err)
	}

	return nil
}

// GetFile retrieves any file from GCS
func (g *GCSClient) GetFile(ctx context.Context, filePath string) ([]byte, error) {
	obj := g.client.Bucket(g.bucket).Object(g.objectPath(filePath))

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for file %s: %w", filePath, err)
	}
	defer reader.Close()

	fileData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return fileData, nil
}

// FileExists checks object attributes for existence
func (g *GCSClient) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(g.objectPath(filePath)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %s: %w", filePath, err)
	}
	return true, nil
}

// ListDir lists objects below dirPath. Non-recursive listings use the "/"
// delimiter and include synthetic directory prefixes.
func (g *GCSClient) ListDir(ctx context.Context, dirPath string, recursive bool) ([]string, error) {
	prefix := g.objectPath(dirPath)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	query := &storage.Query{Prefix: prefix}
	if !recursive {
		query.Delimiter = "/"
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)

	var paths []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		name := attrs.Name
		if name == "" {
			name = attrs.Prefix
		}
		rel := strings.TrimPrefix(name, g.prefix)
		paths = append(paths, strings.Trim(rel, "/"))
	}

	sort.Strings(paths)
	return paths, nil
}
