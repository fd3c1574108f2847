// Package staging fills the staging tables from local JSON files for engines
// that cannot bulk copy from object storage.
package staging

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"dwhload/internal/common"
	"dwhload/pkg/errors"
)

// Loader inserts local JSON records into staging tables
type Loader struct {
	db *sqlx.DB
}

// NewLoader creates a loader writing through db
func NewLoader(db *sqlx.DB) *Loader {
	return &Loader{db: db}
}

// Load dispatches on the staging table name
func (l *Loader) Load(ctx context.Context, table, dir string) (int64, error) {
	switch table {
	case "staging_events":
		return l.LoadEvents(ctx, dir)
	case "staging_songs":
		return l.LoadSongs(ctx, dir)
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("%s is not a staging table", table))
	}
}

// LoadEvents loads every *.json file below dir into staging_events. Each
// line of a file is one event object.
func (l *Loader) LoadEvents(ctx context.Context, dir string) (int64, error) {
	return l.load(ctx, dir, insertEvent, func(path string, data []byte) ([]interface{}, error) {
		var rows []interface{}
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			raw := bytes.TrimSpace(sc.Bytes())
			if len(raw) == 0 {
				continue
			}
			var e event
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, corrupted(path, err).WithContext("line", line)
			}
			rows = append(rows, e.row())
		}
		if err := sc.Err(); err != nil {
			return nil, corrupted(path, err)
		}
		return rows, nil
	})
}

// LoadSongs loads every *.json file below dir into staging_songs. A file
// holds one or more song objects, either concatenated or in an array.
func (l *Loader) LoadSongs(ctx context.Context, dir string) (int64, error) {
	return l.load(ctx, dir, insertSong, func(path string, data []byte) ([]interface{}, error) {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var songs []song
			if err := json.Unmarshal(trimmed, &songs); err != nil {
				return nil, corrupted(path, err)
			}
			rows := make([]interface{}, len(songs))
			for i := range songs {
				rows[i] = songs[i]
			}
			return rows, nil
		}

		var rows []interface{}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		for {
			var s song
			err := dec.Decode(&s)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, corrupted(path, err)
			}
			rows = append(rows, s)
		}
		return rows, nil
	})
}

type decodeFunc func(path string, data []byte) ([]interface{}, error)

func (l *Loader) load(ctx context.Context, dir, insert string, decode decodeFunc) (int64, error) {
	files, err := jsonFiles(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return total, errors.Wrap(err, errors.ErrCodeCanceled, "Staging load canceled")
		}

		data, err := os.ReadFile(path) // #nosec G304 - files come from the configured source directory
		if err != nil {
			return total, errors.Wrap(err, errors.ErrCodeSourceUnreadable, "Failed to read source file").
				WithContext("file", path)
		}
		rows, err := decode(path, data)
		if err != nil {
			return total, err
		}
		if err := l.insertFile(ctx, path, insert, rows); err != nil {
			return total, err
		}
		total += int64(len(rows))
	}
	return total, nil
}

// insertFile writes one file's rows in a single transaction
func (l *Loader) insertFile(ctx context.Context, path, insert string, rows []interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareNamedContext(ctx, insert)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStagingFailed, "Failed to prepare staging insert").
			WithContext("file", path)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return errors.Wrap(err, errors.ErrCodeStagingFailed, "Failed to insert staging row").
				WithContext("file", path).
				WithContext("record", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit staging rows").
			WithContext("file", path)
	}
	return nil
}

func jsonFiles(dir string) ([]string, error) {
	root, err := common.CleanPath(common.StripScheme(dir))
	if err != nil {
		return nil, errors.SourceError(err.Error(), dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SourceError("Source directory does not exist", dir, nil)
		}
		return nil, errors.SourceError("Failed to access source directory", dir, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.SourceError("Failed to walk source directory", dir, err)
	}
	return files, nil
}

func corrupted(path string, err error) *errors.AppError {
	return errors.Wrap(err, errors.ErrCodeSourceCorrupted, "Malformed JSON in source file").
		WithContext("file", path)
}
