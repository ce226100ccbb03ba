package entity

import "github.com/lakedesk/lakedesk/pkg/errorbank"

// Kind identifies a record family and doubles as its table name.
type Kind string

const (
	KindOrder   Kind = "orders"
	KindInvoice Kind = "invoices"
)

// ParseKind validates a kind received from a transport boundary.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindOrder, KindInvoice:
		return Kind(raw), nil
	default:
		return "", errorbank.BadRequest("unknown record kind", errorbank.WithDetail("kind", raw))
	}
}

// Record is implemented by every entity a record store can hold.
type Record interface {
	RecordID() int64
	RecordKind() Kind
	// Validate checks create-time invariants and reports violations as
	// unprocessable-entity errors.
	Validate() error
	// Clone returns a deep copy so stores never alias caller memory.
	Clone() Record
}
