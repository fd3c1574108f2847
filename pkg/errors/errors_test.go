package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[DWH1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check network", "Verify credentials"),
			expected: "[DWH1001] ERROR: Connection failed\nSuggestions:\n  1. Check network\n  2. Verify credentials",
		},
		{
			name: "context is not rendered",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("host", "example.com").
				WithContext("port", 5439),
			expected: "[DWH1001] ERROR: Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("connection refused")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to connect to Redshift")

	assert.Equal(t, baseErr, appErr.Cause)
	assert.True(t, stderrors.Is(appErr, baseErr))
	assert.Equal(t, ErrCodeConnectionFailed, GetErrorCode(appErr))
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestWrapInheritsContext(t *testing.T) {
	inner := New(ErrCodeSQLExecution, "inner").WithContext("statement", "user_table_insert")
	outer := Wrap(inner, ErrCodeInternal, "outer")

	assert.Equal(t, "user_table_insert", outer.Context["statement"])
	assert.True(t, stderrors.Is(outer, &AppError{Code: ErrCodeSQLExecution}))
}

func TestSQLErrorKeepsEngineMessage(t *testing.T) {
	engineErr := fmt.Errorf(`ERROR: relation "staging_events" does not exist (SQLSTATE 42P01)`)

	err := SQLError("songplay_table_insert", "insert into songplays select 1", engineErr)

	assert.Equal(t, ErrCodeSQLObjectNotFound, err.Code)
	assert.Contains(t, err.Error(), engineErr.Error())
	assert.Contains(t, err.Error(), "songplay_table_insert")

	stmt, ok := GetContext(err, "statement")
	require.True(t, ok)
	assert.Equal(t, "songplay_table_insert", stmt)
}

func TestSQLErrorClassification(t *testing.T) {
	tests := []struct {
		cause string
		code  ErrorCode
	}{
		{"permission denied for relation songs", ErrCodeSQLPermission},
		{"Not authorized to get credentials of role", ErrCodeSQLPermission},
		{"context deadline exceeded", ErrCodeSQLTimeout},
		{"no such table: users", ErrCodeSQLObjectNotFound},
		{"syntax error at or near \"selct\"", ErrCodeSQLExecution},
	}

	for _, tt := range tests {
		t.Run(tt.cause, func(t *testing.T) {
			err := SQLError("stmt", "q", fmt.Errorf("%s", tt.cause))
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestSourceError(t *testing.T) {
	missing := SourceError("prefix is empty", "s3://bucket/log_data/", nil)
	assert.Equal(t, ErrCodeSourceNotFound, missing.Code)

	denied := SourceError("cannot list prefix", "s3://bucket/log_data/", fmt.Errorf("AccessDenied"))
	assert.Equal(t, ErrCodeSourceAccess, denied.Code)
	assert.Equal(t, "s3://bucket/log_data/", denied.Context["uri"])
}

func TestGetErrorCodeForPlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("plain")))
	_, ok := GetContext(fmt.Errorf("plain"), "statement")
	assert.False(t, ok)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdef", 2))
}
