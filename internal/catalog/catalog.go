// Package catalog holds the SQL statements that reset, load and transform the
// song-play warehouse, grouped in four phases that run in a fixed order:
// drop, create, copy, insert.
package catalog

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"dwhload/pkg/errors"
)

// Statement is one complete SQL text of the catalog. SQL may hold more than
// one command separated by semicolons (copy truncates before it loads).
type Statement struct {
	Name  string
	Phase Phase
	Table string
	SQL   string
	// Source is the location the statement's table is loaded from. It is
	// only set in the copy phase.
	Source string
}

// Options carries the values the copy statements are built from
type Options struct {
	RoleARN     string
	LogData     string
	LogJSONPath string
	SongData    string
	Region      string
}

// Catalog is the rendered statement registry for one dialect
type Catalog struct {
	dialect Dialect
	phases  map[Phase][]Statement
}

// New renders the catalog for dialect. Dialects that bulk copy from object
// storage need the role ARN and s3:// source URIs.
func New(dialect string, opts Options) (*Catalog, error) {
	d, ok := LookupDialect(dialect)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownDialect, fmt.Sprintf("Unknown warehouse dialect %q", dialect)).
			WithContext("dialect", dialect).
			WithSuggestions(fmt.Sprintf("Set warehouse.dialect to one of: %s", strings.Join(DialectNames(), ", ")))
	}
	if d.BulkCopy() {
		if err := validateCopyOptions(opts); err != nil {
			return nil, err
		}
	}

	c := &Catalog{dialect: d, phases: make(map[Phase][]Statement, len(Phases))}

	for _, t := range schema {
		c.add(Statement{Name: t.prefix + "_table_drop", Phase: PhaseDrop, Table: t.Name, SQL: d.DropTable(t)})
		c.add(Statement{Name: t.prefix + "_table_create", Phase: PhaseCreate, Table: t.Name, SQL: d.CreateTable(t)})
	}

	c.add(Statement{
		Name:   "staging_events_copy",
		Phase:  PhaseCopy,
		Table:  stagingEvents.Name,
		Source: opts.LogData,
		SQL: d.Copy(stagingEvents, CopySource{
			URI:      opts.LogData,
			JSONPath: opts.LogJSONPath,
			RoleARN:  opts.RoleARN,
			Region:   opts.Region,
		}),
	})
	c.add(Statement{
		Name:   "staging_songs_copy",
		Phase:  PhaseCopy,
		Table:  stagingSongs.Name,
		Source: opts.SongData,
		SQL: d.Copy(stagingSongs, CopySource{
			URI:     opts.SongData,
			RoleARN: opts.RoleARN,
			Region:  opts.Region,
		}),
	})

	for _, it := range insertTemplates {
		sql, err := render(d, it)
		if err != nil {
			return nil, err
		}
		c.add(Statement{Name: it.name, Phase: PhaseInsert, Table: it.table, SQL: sql})
	}

	return c, nil
}

func (c *Catalog) add(s Statement) {
	c.phases[s.Phase] = append(c.phases[s.Phase], s)
}

func render(d Dialect, it insertTemplate) (string, error) {
	tmpl, err := template.New(it.name).Funcs(d.funcs()).Parse(it.text)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("Failed to parse %s", it.name))
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, nil); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("Failed to render %s", it.name))
	}
	return b.String(), nil
}

func validateCopyOptions(opts Options) error {
	if strings.TrimSpace(opts.RoleARN) == "" {
		return errors.ConfigError("The storage-access role ARN is not configured", "iam_role.arn")
	}
	sources := []struct {
		field string
		uri   string
	}{
		{"s3.log_data", opts.LogData},
		{"s3.song_data", opts.SongData},
	}
	if opts.LogJSONPath != "" {
		sources = append(sources, struct {
			field string
			uri   string
		}{"s3.log_jsonpath", opts.LogJSONPath})
	}
	for _, src := range sources {
		if !strings.HasPrefix(src.uri, "s3://") {
			return errors.ConfigError(fmt.Sprintf("Source %q is not an s3:// URI", src.uri), src.field)
		}
	}
	return nil
}

// Dialect returns the dialect the catalog was rendered for
func (c *Catalog) Dialect() Dialect {
	return c.dialect
}

// Phase returns the statements of one phase in execution order
func (c *Catalog) Phase(p Phase) []Statement {
	out := make([]Statement, len(c.phases[p]))
	copy(out, c.phases[p])
	return out
}

// All returns every statement, phases in execution order
func (c *Catalog) All() []Statement {
	var out []Statement
	for _, p := range Phases {
		out = append(out, c.phases[p]...)
	}
	return out
}

// Lookup returns the statement with the given name
func (c *Catalog) Lookup(name string) (Statement, bool) {
	return lo.Find(c.All(), func(s Statement) bool { return s.Name == name })
}

// DropTableQueries returns the drop phase SQL texts
func (c *Catalog) DropTableQueries() []string { return c.queries(PhaseDrop) }

// CreateTableQueries returns the create phase SQL texts
func (c *Catalog) CreateTableQueries() []string { return c.queries(PhaseCreate) }

// CopyTableQueries returns the copy phase SQL texts
func (c *Catalog) CopyTableQueries() []string { return c.queries(PhaseCopy) }

// InsertTableQueries returns the insert phase SQL texts
func (c *Catalog) InsertTableQueries() []string { return c.queries(PhaseInsert) }

func (c *Catalog) queries(p Phase) []string {
	return lo.Map(c.phases[p], func(s Statement, _ int) string { return s.SQL })
}
