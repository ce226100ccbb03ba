// Package archive keeps a best-effort local JSON-lines copy of every created
// invoice. A failed append is the caller's warning, never its error.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
)

// Module provides the archive writer.
var Module = fx.Provide(New)

// Writer appends invoice entries to the configured JSON-lines file.
type Writer struct {
	mu      sync.Mutex
	path    string
	enabled bool
	logger  *zap.Logger
}

// New constructs a Writer; a disabled archive accepts appends and drops them.
func New(cfg config.Config, logger *zap.Logger) *Writer {
	return &Writer{
		path:    cfg.Archive.Path,
		enabled: cfg.Archive.Enabled,
		logger:  logger,
	}
}

type entry struct {
	InvoiceID  int64     `json:"invoice_id"`
	OrderID    int64     `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Number     string    `json:"invoice_number"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	FileName   string    `json:"file_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Append writes one invoice entry. Concurrent appends are serialized so
// lines never interleave.
func (w *Writer) Append(_ context.Context, inv *entity.Invoice) error {
	if !w.enabled || inv == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	e := entry{
		InvoiceID:  inv.ID,
		OrderID:    inv.OrderID,
		CustomerID: inv.CustomerID,
		Number:     inv.Number,
		Amount:     inv.Amount,
		Status:     string(inv.Status),
		FileName:   inv.File.Name,
		CreatedAt:  inv.CreatedAt,
		ArchivedAt: time.Now().UTC(),
	}
	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("append archive entry: %w", err)
	}
	return nil
}
