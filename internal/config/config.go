package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"dwhload/internal/common"
	"dwhload/pkg/errors"
	"dwhload/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. DWH_IAM_ROLE_ARN
const EnvPrefix = "DWH"

// GetConfigPath returns the per-user configuration directory
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dwhload")
}

// FindConfigFile resolves the configuration file. An explicit path wins,
// then DWH_CONFIG, then dwhload.yaml or dwh.cfg in the working directory,
// then ~/.dwhload/config.yaml. It returns "" when none exists.
func FindConfigFile(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if explicit != "" {
		cleaned, err := common.CleanPath(explicit)
		if err != nil {
			return "", errors.ConfigError(fmt.Sprintf("Invalid config file path: %v", err), "config")
		}
		if _, err := os.Stat(cleaned); err != nil {
			return "", errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("Config file %s not found", cleaned)).
				WithSuggestions("Run 'dwhload config init' to create one")
		}
		return cleaned, nil
	}

	candidates := []string{
		"dwhload.yaml",
		"dwh.cfg",
		filepath.Join(GetConfigPath(), "config.yaml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"warehouse.dialect":           "redshift",
		"warehouse.statement_timeout": "30m",
		"warehouse.sqlite_path":       "dwhload.db",
		"cluster.host":                "",
		"cluster.db_name":             "",
		"cluster.db_user":             "",
		"cluster.db_password":         "",
		"cluster.db_port":             5439,
		"cluster.sslmode":             "require",
		"iam_role.arn":                "",
		"s3.log_data":                 "",
		"s3.log_jsonpath":             "",
		"s3.song_data":                "",
		"s3.region":                   "us-west-2",
		"s3.anonymous":                false,
		"snowflake.account":           "",
		"snowflake.warehouse":         "",
		"snowflake.role":              "",
		"snowflake.schema":            "",
		"metrics.pushgateway_url":     "",
		"metrics.job":                 "dwhload",
		"logging.level":               "info",
		"logging.mode":                "development",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads path (YAML or INI dwh.cfg) into v, applies DWH_* environment
// overrides and defaults, and resolves a keyring password. An empty path
// loads from the environment and defaults only.
func Load(v *viper.Viper, path string) (*models.Config, error) {
	cfg, err := LoadUnresolved(v, path)
	if err != nil {
		return nil, err
	}
	if err := ResolvePassword(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnresolved is Load without the keyring lookup
func LoadUnresolved(v *viper.Viper, path string) (*models.Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if isINI(path) {
			values, err := readINI(path)
			if err != nil {
				return nil, err
			}
			if err := v.MergeConfigMap(values); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to merge INI configuration")
			}
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, fmt.Sprintf("Failed to read %s", path))
			}
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to decode configuration")
	}
	return &cfg, nil
}

func isINI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cfg", ".ini":
		return true
	default:
		return false
	}
}

// Save writes cfg as YAML to path
func Save(cfg *models.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Redacted returns a copy of cfg safe to print
func Redacted(cfg *models.Config) *models.Config {
	out := *cfg
	if out.Cluster.DBPassword != "" {
		out.Cluster.DBPassword = "********"
	}
	return &out
}

// Default returns the configuration written by 'config init'
func Default(dialect string) *models.Config {
	cfg := &models.Config{
		Warehouse: models.Warehouse{Dialect: dialect, StatementTimeout: "30m"},
		Metrics:   models.Metrics{Job: "dwhload"},
		Logging:   models.Logging{Level: "info", Mode: "development"},
	}
	switch dialect {
	case "sqlite":
		cfg.Warehouse.SQLitePath = "dwhload.db"
		cfg.S3 = models.S3{LogData: "data/log_data", SongData: "data/song_data"}
	default:
		cfg.Cluster = models.Cluster{DBName: "dev", DBUser: "awsuser", DBPassword: "keyring", DBPort: 5439, SSLMode: "require"}
		cfg.S3 = models.S3{
			LogData:     "s3://udacity-dend/log_data",
			LogJSONPath: "s3://udacity-dend/log_json_path.json",
			SongData:    "s3://udacity-dend/song_data",
			Region:      "us-west-2",
		}
	}
	return cfg
}
