package warehouse

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"dwhload/internal/common"
	"dwhload/pkg/errors"
)

const defaultRedshiftPort = 5439

// DataSource returns the driver name and DSN for the configured dialect
func DataSource(cfg Config) (driver string, dsn string, err error) {
	switch strings.ToLower(cfg.Dialect) {
	case "redshift":
		dsn, err = redshiftDSN(cfg)
		return "pgx", dsn, err
	case "snowflake":
		dsn, err = snowflakeDSN(cfg)
		return "snowflake", dsn, err
	case "sqlite":
		dsn, err = sqliteDSN(cfg)
		return "sqlite3", dsn, err
	default:
		return "", "", errors.New(errors.ErrCodeUnknownDialect, fmt.Sprintf("Unknown warehouse dialect %q", cfg.Dialect)).
			WithContext("dialect", cfg.Dialect)
	}
}

func redshiftDSN(cfg Config) (string, error) {
	if cfg.Host == "" {
		return "", errors.ConfigError("Cluster host is required", "cluster.host")
	}
	if cfg.Database == "" {
		return "", errors.ConfigError("Cluster database name is required", "cluster.db_name")
	}
	if cfg.User == "" {
		return "", errors.ConfigError("Cluster user is required", "cluster.db_user")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultRedshiftPort
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	// Redshift does not implement the extended protocol's describe step
	q.Set("default_query_exec_mode", "simple_protocol")
	if cfg.Timeout > 0 {
		q.Set("statement_timeout", strconv.FormatInt(cfg.Timeout.Milliseconds(), 10))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func snowflakeDSN(cfg Config) (string, error) {
	if cfg.Account == "" {
		return "", errors.ConfigError("Snowflake account is required", "snowflake.account")
	}
	if cfg.User == "" {
		return "", errors.ConfigError("Snowflake user is required", "cluster.db_user")
	}

	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to build the Snowflake DSN")
	}
	return dsn, nil
}

func sqliteDSN(cfg Config) (string, error) {
	if cfg.SQLitePath == "" || cfg.SQLitePath == ":memory:" {
		return ":memory:", nil
	}
	path, err := common.CleanPath(common.StripScheme(cfg.SQLitePath))
	if err != nil {
		return "", errors.ConfigError(err.Error(), "warehouse.sqlite_path")
	}
	return path, nil
}
