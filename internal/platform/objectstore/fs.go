package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// fsArchive keeps objects as plain files under a root directory.
type fsArchive struct {
	log    *logger.Logger
	root   string
	prefix string
}

func NewFS(log *logger.Logger, cfg Config) (Archive, error) {
	root := strings.TrimSpace(cfg.Dir)
	if root == "" {
		return nil, fmt.Errorf("missing env var ARCHIVE_DIR")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	l := log.With("archive", "FS")
	l.Info("Object archive initialized", "backend", BackendFS, "dir", root)
	return &fsArchive{log: l, root: root, prefix: cfg.Prefix}, nil
}

func (f *fsArchive) Backend() Backend { return BackendFS }

// path maps key under root, refusing anything that would escape it.
func (f *fsArchive) path(key string) (string, error) {
	key = joinKey(f.prefix, key)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(f.root, filepath.FromSlash(filepath.ToSlash(filepath.Clean(key)))), nil
}

func (f *fsArchive) Put(_ context.Context, key, _ string, body []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return err
	}
	f.log.Debug("archived object", "key", key, "size", len(body))
	return nil
}

func (f *fsArchive) Stat(_ context.Context, key string) (*ObjectInfo, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, ErrNotFound
	}
	return &ObjectInfo{
		Key:         key,
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		Size:        st.Size(),
		Modified:    st.ModTime().UTC(),
	}, nil
}

func (f *fsArchive) Get(ctx context.Context, key string) (*Object, error) {
	info, err := f.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	p, _ := f.path(key)
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &Object{ObjectInfo: *info, Body: body}, nil
}
