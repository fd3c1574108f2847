package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"dwhload/pkg/errors"
)

var (
	// Out receives everything the package prints
	Out io.Writer = os.Stdout

	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	ColorSuccess = colorFunc(ansi.Green)
	ColorError   = colorFunc(ansi.Red)
	ColorWarning = colorFunc(ansi.Yellow)
	ColorInfo    = colorFunc(ansi.Cyan)
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ColorEnabled reports whether output is colored
func ColorEnabled() bool {
	return supportsColor
}

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	supportsColor = enabled
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	padding := (width - len(title) - 2) / 2
	if padding < 0 {
		padding = 0
	}
	right := width - 2 - padding - len(title)
	if right < 0 {
		right = 0
	}

	fmt.Fprintln(Out, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(Out, "|%s%s%s|\n", strings.Repeat(" ", padding), ColorBold(title), strings.Repeat(" ", right))
	fmt.Fprintln(Out, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays an error. Application errors print their code, the
// failing statement and the engine error unchanged.
func ShowError(err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		fmt.Fprintf(Out, "\n%s %s\n", ColorError("ERROR:"), err.Error())
		if suggestion := getSuggestion(err.Error()); suggestion != "" {
			fmt.Fprintf(Out, "\n  %s %s\n", ColorInfo("TIP:"), suggestion)
		}
		return
	}

	fmt.Fprintf(Out, "\n%s [%s] %s\n", ColorError("ERROR:"), appErr.Code, appErr.Message)
	for _, key := range []string{"statement", "phase", "field", "uri", "file"} {
		if v, ok := appErr.Context[key]; ok {
			fmt.Fprintf(Out, "  %s %v\n", ColorDim(key+":"), v)
		}
	}
	if appErr.Cause != nil {
		fmt.Fprintf(Out, "  %s %v\n", ColorDim("cause:"), rootCause(appErr))
	}
	for _, s := range appErr.Suggestions {
		fmt.Fprintf(Out, "  %s %s\n", ColorInfo("TIP:"), s)
	}
}

// rootCause returns the first error below the application error chain
func rootCause(err *errors.AppError) error {
	cause := err.Cause
	for {
		next, ok := cause.(*errors.AppError)
		if !ok || next.Cause == nil {
			return cause
		}
		cause = next.Cause
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(Out, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(Out, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(Out, "%s %s\n", ColorInfo("INFO:"), message)
}

// Table creates a formatted table
type Table struct {
	writer *tabwriter.Writer
}

// NewTable creates a new table
func NewTable() *Table {
	return &Table{writer: tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)}
}

// AddHeader adds a header row to the table
func (t *Table) AddHeader(columns ...string) {
	headers := make([]string, len(columns))
	separators := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = ColorBold(col)
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(t.writer, strings.Join(headers, "\t"))
	fmt.Fprintln(t.writer, strings.Join(separators, "\t"))
}

// AddRow adds a data row to the table
func (t *Table) AddRow(values ...string) {
	fmt.Fprintln(t.writer, strings.Join(values, "\t"))
}

// Render displays the table
func (t *Table) Render() {
	t.writer.Flush()
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "authentication failed"):
		return "Check cluster.db_user and cluster.db_password"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "Verify the cluster endpoint and that it accepts connections from this host"
	case strings.Contains(lower, "not authorized"):
		return "Ensure the IAM role is attached to the cluster and can read the bucket"
	case strings.Contains(lower, "does not exist"):
		return "Run the create phase first: dwhload create"
	default:
		return ""
	}
}

// askOne is replaced in tests
var askOne = survey.AskOne

// Confirm shows a yes/no prompt
func Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := askOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}
