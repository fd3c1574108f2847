package ui

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwhload/pkg/errors"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevColor := Out, supportsColor
	Out, supportsColor = &buf, false
	t.Cleanup(func() { Out, supportsColor = prevOut, prevColor })
	return &buf
}

func TestColorFunc(t *testing.T) {
	captureOutput(t)
	assert.Equal(t, "plain", ColorError("plain"))

	SetColor(true)
	assert.NotEqual(t, "plain", ColorError("plain"))
	assert.Contains(t, ColorError("plain"), "plain")
	assert.True(t, ColorEnabled())
}

func TestShowErrorPrintsEngineErrorVerbatim(t *testing.T) {
	buf := captureOutput(t)

	engine := fmt.Errorf(`ERROR: Load into table 'staging_events' failed. Check 'stl_load_errors' system table for details.`)
	err := errors.SQLError("staging_events_copy", "copy staging_events ...", engine).WithContext("phase", "copy")
	ShowError(err)

	out := buf.String()
	assert.Contains(t, out, "[DWH4001] Statement staging_events_copy failed")
	assert.Contains(t, out, "statement: staging_events_copy")
	assert.Contains(t, out, "phase: copy")
	assert.Contains(t, out, "cause: "+engine.Error())
}

func TestShowErrorNestedCause(t *testing.T) {
	buf := captureOutput(t)

	root := fmt.Errorf("open /data/log_data: permission denied")
	inner := errors.Wrap(root, errors.ErrCodeSourceAccess, "Failed to access source directory")
	ShowError(errors.Wrap(inner, errors.ErrCodeSourceAccess, "Staging load for staging_events_copy failed"))

	assert.Contains(t, buf.String(), "cause: "+root.Error())
}

func TestShowErrorPlain(t *testing.T) {
	buf := captureOutput(t)
	ShowError(fmt.Errorf("dial tcp: connection refused"))

	assert.Contains(t, buf.String(), "ERROR: dial tcp: connection refused")
	assert.Contains(t, buf.String(), "TIP:")
}

func TestMessages(t *testing.T) {
	buf := captureOutput(t)

	ShowHeader("dwhload run")
	ShowSuccess("done")
	ShowWarning("careful")
	ShowInfo("note")

	out := buf.String()
	assert.Contains(t, out, "dwhload run")
	assert.Contains(t, out, "SUCCESS: done")
	assert.Contains(t, out, "WARNING: careful")
	assert.Contains(t, out, "INFO: note")
}

func TestTable(t *testing.T) {
	buf := captureOutput(t)

	table := NewTable()
	table.AddHeader("Key", "Value")
	table.AddRow("dialect", "redshift")
	table.Render()

	assert.Contains(t, buf.String(), "dialect  redshift")
	assert.Contains(t, buf.String(), "---")
}

func TestGetSuggestion(t *testing.T) {
	assert.Contains(t, getSuggestion(`relation "users" does not exist`), "create")
	assert.Empty(t, getSuggestion("something else"))
}

func TestConfirm(t *testing.T) {
	prev := askOne
	t.Cleanup(func() { askOne = prev })

	askOne = func(p survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
		c, ok := p.(*survey.Confirm)
		require.True(t, ok)
		assert.Equal(t, "Drop all tables?", c.Message)
		*(response.(*bool)) = true
		return nil
	}
	ok, err := Confirm("Drop all tables?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	askOne = func(survey.Prompt, interface{}, ...survey.AskOpt) error { return fmt.Errorf("no tty") }
	_, err = Confirm("Drop all tables?", false)
	assert.Error(t, err)
}
