package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/arn"

	"dwhload/internal/catalog"
	"dwhload/pkg/errors"
	"dwhload/pkg/models"
)

// Validate checks the values a run depends on. Missing copy sources are
// reported by the catalog when it is built.
func Validate(cfg *models.Config) error {
	d, ok := catalog.LookupDialect(cfg.Warehouse.Dialect)
	if !ok {
		return errors.New(errors.ErrCodeUnknownDialect, fmt.Sprintf("Unknown warehouse dialect %q", cfg.Warehouse.Dialect)).
			WithContext("field", "warehouse.dialect").
			WithSuggestions(fmt.Sprintf("Use one of: %s", strings.Join(catalog.DialectNames(), ", ")))
	}

	if _, err := StatementTimeout(cfg); err != nil {
		return err
	}

	if port := cfg.Cluster.DBPort; port < 0 || port > 65535 {
		return errors.ConfigError(fmt.Sprintf("Port %d is out of range", port), "cluster.db_port")
	}

	if d.BulkCopy() {
		if err := validateRoleARN(cfg.IAMRole.ARN); err != nil {
			return err
		}
	}

	switch d.Name() {
	case catalog.Redshift:
		if cfg.Cluster.Host == "" {
			return errors.ConfigError("Cluster host is required", "cluster.host")
		}
	case catalog.Snowflake:
		if cfg.Snowflake.Account == "" {
			return errors.ConfigError("Snowflake account is required", "snowflake.account")
		}
	}
	return nil
}

func validateRoleARN(value string) error {
	if value == "" {
		return errors.ConfigError("The storage-access role ARN is not configured", "iam_role.arn")
	}
	parsed, err := arn.Parse(value)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("Invalid role ARN: %v", err), "iam_role.arn")
	}
	if parsed.Service != "iam" || !strings.HasPrefix(parsed.Resource, "role/") {
		return errors.ConfigError(fmt.Sprintf("%s is not an IAM role ARN", value), "iam_role.arn")
	}
	return nil
}

// StatementTimeout parses warehouse.statement_timeout; empty means the
// warehouse default.
func StatementTimeout(cfg *models.Config) (time.Duration, error) {
	if cfg.Warehouse.StatementTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Warehouse.StatementTimeout)
	if err != nil || d < 0 {
		return 0, errors.ConfigError(fmt.Sprintf("Invalid duration %q", cfg.Warehouse.StatementTimeout), "warehouse.statement_timeout")
	}
	return d, nil
}
