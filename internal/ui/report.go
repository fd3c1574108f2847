package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"dwhload/internal/catalog"
	"dwhload/internal/pipeline"
	"dwhload/internal/storage"
)

// Renderer builds the tables the CLI prints
type Renderer struct {
	useColor bool
}

// NewRenderer creates a renderer
func NewRenderer(useColor bool) *Renderer {
	return &Renderer{useColor: useColor}
}

func (r *Renderer) newTable(buf *strings.Builder, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// Statements lists catalog statements in execution order
func (r *Renderer) Statements(statements []catalog.Statement) string {
	var buf strings.Builder
	table := r.newTable(&buf, "#", "Phase", "Statement", "Table")
	for i, s := range statements {
		table.Append([]string{fmt.Sprintf("%d", i+1), string(s.Phase), s.Name, s.Table})
	}
	table.Render()
	return buf.String()
}

// Report summarizes the statements of a run and the table row counts
func (r *Renderer) Report(rep *pipeline.Report) string {
	var buf strings.Builder

	table := r.newTable(&buf, "Phase", "Statement", "Status", "Rows", "Duration")
	for _, s := range rep.Statements {
		rows := ""
		if s.Status == pipeline.StatusOK && s.Rows > 0 {
			rows = fmt.Sprintf("%d", s.Rows)
		}
		table.Append([]string{string(s.Phase), s.Name, r.status(s.Status), rows, formatDuration(s.Duration)})
	}
	table.Render()

	if len(rep.TableRows) > 0 {
		buf.WriteString("\n")
		buf.WriteString(r.TableRows(rep.TableRows))
	}
	return buf.String()
}

// TableRows lists row counts in schema order
func (r *Renderer) TableRows(counts map[string]int64) string {
	var buf strings.Builder
	table := r.newTable(&buf, "Table", "Kind", "Rows")

	listed := make(map[string]bool, len(counts))
	for _, t := range catalog.Tables() {
		n, ok := counts[t.Name]
		if !ok {
			continue
		}
		listed[t.Name] = true
		table.Append([]string{t.Name, string(t.Kind), fmt.Sprintf("%d", n)})
	}
	var extra []string
	for name := range counts {
		if !listed[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		table.Append([]string{name, "", fmt.Sprintf("%d", counts[name])})
	}

	table.Render()
	return buf.String()
}

// Sources lists the outcome of a source preflight
func (r *Renderer) Sources(statuses []storage.SourceStatus) string {
	var buf strings.Builder
	table := r.newTable(&buf, "Source", "URI", "Status", "Sample")
	for _, s := range statuses {
		status := "found"
		switch {
		case s.Err != nil:
			status = r.paint(color.FgRed, "error: "+s.Err.Error())
		case !s.Exists:
			status = r.paint(color.FgYellow, "missing")
		default:
			status = r.paint(color.FgGreen, status)
		}
		table.Append([]string{s.Name, s.URI, status, s.Sample})
	}
	table.Render()
	return buf.String()
}

func (r *Renderer) status(s string) string {
	switch s {
	case pipeline.StatusOK:
		return r.paint(color.FgGreen, "ok")
	case pipeline.StatusFailed:
		return r.paint(color.FgRed, "FAILED")
	case pipeline.StatusDryRun:
		return r.paint(color.FgCyan, "dry run")
	default:
		return s
	}
}

func (r *Renderer) paint(attr color.Attribute, s string) string {
	if !r.useColor {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
