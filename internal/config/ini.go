package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"dwhload/internal/common"
	"dwhload/pkg/errors"
	"dwhload/pkg/models"
)

// readINI reads a dwh.cfg file into a nested map keyed by lower-cased
// section and key names. Values may be wrapped in single quotes.
func readINI(path string) (map[string]interface{}, error) {
	f, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("Config file %s not found", path))
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("Failed to parse %s", path))
	}

	out := make(map[string]interface{})
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		values := make(map[string]interface{})
		for _, key := range section.Keys() {
			values[strings.ToLower(key.Name())] = unquote(key.String())
		}
		out[strings.ToLower(section.Name())] = values
	}
	return out, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// SaveINI writes cfg in the dwh.cfg layout
func SaveINI(cfg *models.Config, path string) error {
	f := ini.Empty()

	sections := []struct {
		name string
		keys [][2]string
	}{
		{"WAREHOUSE", [][2]string{
			{"DIALECT", cfg.Warehouse.Dialect},
			{"STATEMENT_TIMEOUT", cfg.Warehouse.StatementTimeout},
			{"SQLITE_PATH", cfg.Warehouse.SQLitePath},
		}},
		{"CLUSTER", [][2]string{
			{"HOST", cfg.Cluster.Host},
			{"DB_NAME", cfg.Cluster.DBName},
			{"DB_USER", cfg.Cluster.DBUser},
			{"DB_PASSWORD", cfg.Cluster.DBPassword},
			{"DB_PORT", portString(cfg.Cluster.DBPort)},
		}},
		{"IAM_ROLE", [][2]string{{"ARN", quoteNonEmpty(cfg.IAMRole.ARN)}}},
		{"S3", [][2]string{
			{"LOG_DATA", quoteNonEmpty(cfg.S3.LogData)},
			{"LOG_JSONPATH", quoteNonEmpty(cfg.S3.LogJSONPath)},
			{"SONG_DATA", quoteNonEmpty(cfg.S3.SongData)},
			{"REGION", cfg.S3.Region},
		}},
		{"LOGGING", [][2]string{
			{"LEVEL", cfg.Logging.Level},
			{"MODE", cfg.Logging.Mode},
		}},
	}

	for _, s := range sections {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return err
		}
		for _, kv := range s.keys {
			if kv[1] == "" {
				continue
			}
			if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, common.FilePermissionSecure)
}

func quoteNonEmpty(s string) string {
	if s == "" {
		return ""
	}
	return "'" + s + "'"
}

func portString(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}
