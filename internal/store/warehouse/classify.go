package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"

	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// sqlStater is the surface pgdriver server errors expose for SQLSTATE
// access via Field('C').
type sqlStater interface {
	Field(field byte) string
}

// classify maps a driver error onto the shared taxonomy. Reachability, auth
// and provisioning failures become unavailable errors so the platform client
// can downgrade the session; constraint and data errors stay validation
// errors the caller must see.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errorbank.NotFound("record not found")
	}

	if code, ok := sqlStateOf(err); ok {
		switch {
		case code == pgerrcode.UniqueViolation:
			return errorbank.Conflict("record already exists", errorbank.WithCause(err))
		case pgerrcode.IsIntegrityConstraintViolation(code):
			return errorbank.Unprocessable("constraint violated", errorbank.WithCause(err))
		case pgerrcode.IsDataException(code):
			return errorbank.Unprocessable("invalid record data", errorbank.WithCause(err))
		case pgerrcode.IsConnectionException(code),
			pgerrcode.IsInvalidAuthorizationSpecification(code),
			pgerrcode.IsOperatorIntervention(code),
			pgerrcode.IsInsufficientResources(code),
			code == pgerrcode.InvalidCatalogName,
			code == pgerrcode.UndefinedTable:
			return unavailable(op, err)
		default:
			return errorbank.Internal(op+" failed", errorbank.WithCause(err))
		}
	}

	if num, ok := mysqlNumberOf(err); ok {
		switch num {
		case 1062: // duplicate entry
			return errorbank.Conflict("record already exists", errorbank.WithCause(err))
		case 1452: // foreign key constraint fails
			return errorbank.Unprocessable("constraint violated", errorbank.WithCause(err))
		case 1040, // too many connections
			1044, // access denied for database
			1045, // access denied for user
			1049, // unknown database
			1146: // table does not exist
			return unavailable(op, err)
		default:
			return errorbank.Internal(op+" failed", errorbank.WithCause(err))
		}
	}

	if isReachability(err) {
		return unavailable(op, err)
	}
	return errorbank.Internal(op+" failed", errorbank.WithCause(err))
}

func unavailable(op string, err error) error {
	return errorbank.Unavailable("warehouse unavailable",
		errorbank.WithDetail("op", op),
		errorbank.WithCause(err))
}

func sqlStateOf(err error) (string, bool) {
	var st sqlStater
	if errors.As(err, &st) {
		if code := st.Field('C'); code != "" {
			return code, true
		}
	}
	return "", false
}

func mysqlNumberOf(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number, true
	}
	return 0, false
}

// isReachability covers transport-level failures that carry no SQLSTATE.
// A caller-cancelled context is deliberately not one of them.
func isReachability(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
