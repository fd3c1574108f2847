package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core)), logs
}

func TestRedactsSensitiveKeys(t *testing.T) {
	log, logs := observed()

	log.Info("connecting", "db_password", "hunter2", "role_arn", "arn:aws:iam::1:role/x", "host", "cluster.example")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, redacted, fields["db_password"])
	assert.Equal(t, redacted, fields["role_arn"])
	assert.Equal(t, "cluster.example", fields["host"])
}

func TestWithCarriesFields(t *testing.T) {
	log, logs := observed()

	log.With("run_id", "abc", "secret_key", "s").Warn("slow statement", "statement", "user_table_insert")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", fields["run_id"])
	assert.Equal(t, redacted, fields["secret_key"])
	assert.Equal(t, "user_table_insert", fields["statement"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestRedactSQL(t *testing.T) {
	redshift := "copy staging_events\nfrom 's3://b/log_data/'\niam_role 'arn:aws:iam::123456789012:role/dwhRole'\njson 'auto';"
	assert.Equal(t, "copy staging_events\nfrom 's3://b/log_data/'\niam_role '[REDACTED]'\njson 'auto';", RedactSQL(redshift))

	snowflake := "credentials = (aws_role = 'arn:aws:iam::123456789012:role/dwhRole')"
	assert.Equal(t, "credentials = (aws_role = '[REDACTED]')", RedactSQL(snowflake))

	assert.Equal(t, "select 1;", RedactSQL("select 1;"))
}

func TestOddKeyValues(t *testing.T) {
	log, logs := observed()
	log.Debug("dangling", "only_key")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, missingValue, logs.All()[0].ContextMap()["only_key"])
}

func TestTrailingFieldKept(t *testing.T) {
	log, logs := observed()
	log.Info("typed", "host", "cluster.example", zap.Int("port", 5439))
	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "cluster.example", ctx["host"])
	assert.EqualValues(t, 5439, ctx["port"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("development", "loud")
	assert.Error(t, err)

	l, err := New("production", "debug")
	require.NoError(t, err)
	assert.NotNil(t, l.SugaredLogger)
}

func TestArnMatchIsExact(t *testing.T) {
	log, logs := observed()
	log.Info("done", "warnings", 2, "arn", "arn:aws:iam::1:role/x")

	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 2, fields["warnings"])
	assert.Equal(t, redacted, fields["arn"])
}
