package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"

	"github.com/lakedesk/lakedesk/internal/config"
)

// Open creates a bun handle for the configured driver and DSN without
// touching the network; liveness is established by Ping.
func Open(cfg config.Warehouse) (*bun.DB, error) {
	dial, err := selectDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := openSQLDB(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	applyPoolSettings(sqldb, cfg)

	return bun.NewDB(sqldb, dial), nil
}

// DSNFromPlatform derives a postgres-wire DSN from workspace credentials: the
// token authenticates as the password of the "token" user and the cluster id
// selects the database.
func DSNFromPlatform(p config.Platform, token string) (string, error) {
	if p.WorkspaceHost == "" {
		return "", errors.New("workspace host is not configured")
	}
	if p.ClusterID == "" {
		return "", errors.New("cluster id is not configured")
	}
	if token == "" {
		return "", errors.New("no access token available")
	}

	host := p.WorkspaceHost
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid workspace host: %s", p.WorkspaceHost)
		}
		host = u.Host
	}
	if !strings.Contains(host, ":") {
		host += ":5432"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword("token", token),
		Host:     host,
		Path:     "/" + p.ClusterID,
		RawQuery: "sslmode=require",
	}
	return dsn.String(), nil
}

// Ping verifies the connection within the timeout.
func Ping(ctx context.Context, db *bun.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.DB.PingContext(pingCtx)
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "sqlite":
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported warehouse driver: %s", driver)
	}
}

func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	switch driver {
	case "postgres":
		connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
		return sql.OpenDB(connector), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	case "sqlite":
		return sql.Open(sqliteshim.ShimName, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func applyPoolSettings(db *sql.DB, cfg config.Warehouse) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}
