package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/labflow-backend/internal/platform/envutil"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type gcsArchive struct {
	log    *logger.Logger
	client *storage.Client
	cfg    Config
}

func NewGCS(ctx context.Context, log *logger.Logger, cfg Config) (Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var ARCHIVE_BUCKET")
	}
	var opts []option.ClientOption
	switch cfg.Backend {
	case BackendGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		if endpoint == "" {
			return nil, fmt.Errorf("ARCHIVE_BACKEND=%q requires STORAGE_EMULATOR_HOST to be set", BackendGCSEmulator)
		}
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		opts = append(opts, option.WithoutAuthentication())
	default:
		opts = append(clientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	l := log.With("archive", "GCS")
	l.Info("Object archive initialized", "backend", cfg.Backend, "bucket", cfg.Bucket, "emulator_host", cfg.EmulatorHost)
	return &gcsArchive{log: l, client: client, cfg: cfg}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (g *gcsArchive) Backend() Backend { return g.cfg.Backend }

func (g *gcsArchive) Put(ctx context.Context, key, contentType string, body []byte) error {
	key = joinKey(g.cfg.Prefix, key)
	w := g.client.Bucket(g.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	g.log.Debug("archived object", "key", key, "size", len(body))
	return nil
}

func (g *gcsArchive) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	key = joinKey(g.cfg.Prefix, key)
	attrs, err := g.client.Bucket(g.cfg.Bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs attrs %s: %w", key, err)
	}
	return &ObjectInfo{Key: key, ContentType: attrs.ContentType, Size: attrs.Size, Modified: attrs.Updated}, nil
}

func (g *gcsArchive) Get(ctx context.Context, key string) (*Object, error) {
	key = joinKey(g.cfg.Prefix, key)
	r, err := g.client.Bucket(g.cfg.Bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return &Object{
		ObjectInfo: ObjectInfo{Key: key, ContentType: r.Attrs.ContentType, Size: r.Attrs.Size, Modified: r.Attrs.LastModified},
		Body:       body,
	}, nil
}
