// Package warehouse runs catalog statements against the configured engine
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"dwhload/internal/logger"
	"dwhload/pkg/errors"
)

// DefaultTimeout bounds one statement. Copy statements over a full bucket
// take minutes.
const DefaultTimeout = 30 * time.Minute

// Service provides warehouse database operations
type Service struct {
	db        *sqlx.DB
	config    Config
	connected bool
	log       *logger.Logger
}

// Config holds warehouse connection configuration
type Config struct {
	Dialect string

	// redshift
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// snowflake
	Account   string
	Warehouse string
	Role      string
	Schema    string

	SQLitePath string

	Timeout time.Duration
}

// NewService creates a new warehouse service
func NewService(config Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{config: config, log: log}
}

// NewServiceWithDB wraps an already open connection
func NewServiceWithDB(db *sqlx.DB, config Config, log *logger.Logger) *Service {
	s := NewService(config, log)
	s.db = db
	s.connected = true
	return s
}

// Connect opens the connection and pings the engine
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	driver, dsn, err := DataSource(s.config)
	if err != nil {
		return err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return errors.ConnectionError("Failed to open warehouse connection", err).
			WithContext("dialect", s.config.Dialect)
	}
	// Statements run one after another. A single connection also keeps an
	// in-memory SQLite database alive between statements.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()

		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "authentication") || strings.Contains(msg, "password") {
			return errors.Wrap(err, errors.ErrCodeAuthenticationFailed, "Authentication failed").
				WithContext("user", s.config.User).
				WithSuggestions(
					"Verify cluster.db_user and cluster.db_password",
					"If db_password is 'keyring', check the stored keyring entry",
				)
		}
		if pingCtx.Err() != nil {
			return errors.Wrap(err, errors.ErrCodeConnectionTimeout, "Timed out connecting to the warehouse").
				WithContext("host", s.endpoint())
		}
		return errors.ConnectionError("Failed to connect to the warehouse", err).
			WithContext("host", s.endpoint())
	}

	s.log.Debug("connected to warehouse", "dialect", s.config.Dialect, "host", s.endpoint())
	s.db = db
	s.connected = true
	return nil
}

func (s *Service) endpoint() string {
	switch strings.ToLower(s.config.Dialect) {
	case "snowflake":
		return s.config.Account
	case "sqlite":
		return s.config.SQLitePath
	default:
		return s.config.Host
	}
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	s.connected = false
	return nil
}

// DB returns the underlying connection, nil before Connect
func (s *Service) DB() *sqlx.DB {
	return s.db
}

func (s *Service) notConnected() error {
	return errors.New(errors.ErrCodeNotConnected, "Not connected to the warehouse").
		WithSuggestions("Call Connect() before executing statements")
}

// ExecuteStatement runs every command of one catalog statement in a single
// transaction and returns the total rows affected. A failing command rolls
// the statement back, except on Redshift where truncate commits the open
// transaction: a failed copy there leaves its staging table empty.
func (s *Service) ExecuteStatement(ctx context.Context, name, sqlText string) (int64, error) {
	if !s.connected {
		return 0, s.notConnected()
	}

	ctx, cancel := s.statementContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction").
			WithContext("statement", name)
	}

	commands := splitStatements(sqlText)
	var affected int64
	for i, cmd := range commands {
		res, err := tx.ExecContext(ctx, cmd)
		if err != nil {
			_ = tx.Rollback()
			if ctx.Err() == context.DeadlineExceeded {
				err = fmt.Errorf("%w: %v", ctx.Err(), err)
			}
			return affected, errors.SQLError(name, cmd, err).
				WithContext("command_index", i+1).
				WithContext("total_commands", len(commands))
		}
		// Some drivers cannot report rows for DDL or COPY
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return affected, errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction").
			WithContext("statement", name)
	}
	return affected, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CountRows returns the number of rows in table
func (s *Service) CountRows(ctx context.Context, table string) (int64, error) {
	if !s.connected {
		return 0, s.notConnected()
	}
	if !identifier.MatchString(table) {
		return 0, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("Invalid table name %q", table))
	}

	ctx, cancel := s.statementContext(ctx)
	defer cancel()

	var n int64
	query := fmt.Sprintf("select count(*) from %s", table)
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		return 0, errors.SQLError(table+"_count", query, err)
	}
	return n, nil
}

// TableExists reports whether table is present in the current schema
func (s *Service) TableExists(ctx context.Context, table string) (bool, error) {
	if !s.connected {
		return false, s.notConnected()
	}

	ctx, cancel := s.statementContext(ctx)
	defer cancel()

	var query string
	if strings.EqualFold(s.config.Dialect, "sqlite") {
		query = "select count(*) from sqlite_master where type = 'table' and name = ?"
	} else {
		query = "select count(*) from information_schema.tables where lower(table_name) = lower(?)"
	}

	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), table); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.SQLError(table+"_exists", query, err)
	}
	return n > 0, nil
}

func (s *Service) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// splitStatements splits on semicolons outside quoted text and drops empty
// commands. A doubled quote inside a literal closes and reopens it, which
// leaves the split points unchanged.
func splitStatements(sqlText string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, char := range sqlText {
		if !inString {
			if char == '\'' || char == '"' {
				inString = true
				stringChar = char
			} else if char == ';' {
				flush()
				continue
			}
		} else if char == stringChar {
			inString = false
		}
		current.WriteRune(char)
	}
	flush()

	return statements
}
