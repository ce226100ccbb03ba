package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
)

type localStore struct {
	dir    string
	logger *zap.Logger
}

func newLocalStore(cfg config.Upload, logger *zap.Logger) (Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger != nil {
		logger.Info("local blob store ready", zap.String("dir", cfg.Dir))
	}
	return &localStore{dir: cfg.Dir, logger: logger}, nil
}

func (s *localStore) Save(_ context.Context, filename string, r io.Reader) (entity.FileMeta, error) {
	data, meta, err := digest(filename, r)
	if err != nil {
		return entity.FileMeta{}, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, meta.Name), data, 0o644); err != nil {
		return entity.FileMeta{}, fmt.Errorf("write blob: %w", err)
	}
	return meta, nil
}
