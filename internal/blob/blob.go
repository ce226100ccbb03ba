// Package blob stores uploaded invoice documents and describes them as
// file metadata carried on the invoice record.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
)

// Store persists an uploaded document under a unique name.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (entity.FileMeta, error)
}

// Module provides the blob store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured blob store (local or s3).
func NewStore(cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Upload.Driver {
	case "local":
		return newLocalStore(cfg.Upload, logger)
	case "s3":
		return newS3Store(cfg.Upload, logger)
	default:
		return nil, fmt.Errorf("unsupported upload driver: %s", cfg.Upload.Driver)
	}
}

// digest drains r, returning the content together with its metadata. The
// stored name is prefixed with a uuid so repeated uploads never collide.
func digest(filename string, r io.Reader) ([]byte, entity.FileMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, entity.FileMeta{}, fmt.Errorf("read upload: %w", err)
	}
	sum := sha256.Sum256(data)
	meta := entity.FileMeta{
		Name:   fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(filename)),
		Size:   int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	}
	return data, meta, nil
}
