package catalog

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Dialect renders the schema and the engine-specific fragments of the
// transform statements
type Dialect interface {
	// Name is the configuration name of the dialect
	Name() string
	// DriverName is the database/sql driver the dialect executes on
	DriverName() string
	// BulkCopy reports whether the engine loads staging tables from object
	// storage itself. Without it the copy phase only empties staging and
	// the caller loads local files.
	BulkCopy() bool

	CreateTable(t Table) string
	DropTable(t Table) string
	Copy(t Table, src CopySource) string

	funcs() template.FuncMap
}

// CopySource describes where a staging table is loaded from
type CopySource struct {
	URI      string
	JSONPath string // "" means the engine maps keys to columns by name
	RoleARN  string
	Region   string
}

const (
	Redshift  = "redshift"
	Snowflake = "snowflake"
	SQLite    = "sqlite"
)

var dialects = map[string]Dialect{
	Redshift:  redshiftDialect{},
	Snowflake: snowflakeDialect{},
	SQLite:    sqliteDialect{},
}

// LookupDialect returns the dialect registered under name
func LookupDialect(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// DialectNames returns the registered dialect names, sorted
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quoteLiteral renders s as a single-quoted SQL string literal
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func dropTable(t Table) string {
	return fmt.Sprintf("drop table if exists %s;", t.Name)
}

// createTable renders the shared shape of a create statement; column and
// trailer rendering is dialect specific.
func createTable(t Table, column func(Column) string, trailer []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "create table if not exists %s\n(\n", t.Name)
	for i, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(column(c))
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	for _, line := range trailer {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString(";")
	return b.String()
}

// redshiftDialect is the original target: distribution and sort keys,
// column encodings and COPY with an IAM role.
type redshiftDialect struct{}

func (redshiftDialect) Name() string       { return Redshift }
func (redshiftDialect) DriverName() string { return "pgx" }
func (redshiftDialect) BulkCopy() bool     { return true }

func (redshiftDialect) DropTable(t Table) string { return dropTable(t) }

func (redshiftDialect) CreateTable(t Table) string {
	var trailer []string
	if t.DistStyle != "" {
		trailer = append(trailer, "diststyle "+t.DistStyle)
	}
	if t.DistKey != "" {
		trailer = append(trailer, fmt.Sprintf("distkey (%s)", t.DistKey))
	}
	if t.SortKey != "" {
		trailer = append(trailer, fmt.Sprintf("sortkey (%s)", t.SortKey))
	}
	return createTable(t, func(c Column) string {
		parts := []string{c.Name, c.Type}
		if c.Identity {
			parts = append(parts, "identity(1, 1)")
		}
		if c.NotNull {
			parts = append(parts, "not null")
		}
		if c.Encode != "" {
			parts = append(parts, "encode "+c.Encode)
		}
		if c.PrimaryKey {
			parts = append(parts, "primary key")
		}
		return strings.Join(parts, " ")
	}, trailer)
}

func (redshiftDialect) Copy(t Table, src CopySource) string {
	format := "'auto'"
	if src.JSONPath != "" {
		format = quoteLiteral(src.JSONPath)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "truncate table %s;\n\n", t.Name)
	fmt.Fprintf(&b, "copy %s\nfrom %s\niam_role %s\njson %s", t.Name, quoteLiteral(src.URI), quoteLiteral(src.RoleARN), format)
	if src.Region != "" {
		fmt.Fprintf(&b, "\nregion %s", quoteLiteral(src.Region))
	}
	b.WriteString(";")
	return b.String()
}

func (redshiftDialect) funcs() template.FuncMap {
	return template.FuncMap{
		"epoch": func(expr string) string {
			return fmt.Sprintf("timestamp 'epoch' + %s / 1000 * interval '1 second'", expr)
		},
		"int": func(expr string) string { return expr + "::int" },
		"datepart": func(part, expr string) string {
			return fmt.Sprintf("extract(%s from %s)", part, expr)
		},
	}
}

// snowflakeDialect loads with COPY INTO straight from the S3 location,
// matching JSON keys to staging columns by name.
type snowflakeDialect struct{}

func (snowflakeDialect) Name() string       { return Snowflake }
func (snowflakeDialect) DriverName() string { return "snowflake" }
func (snowflakeDialect) BulkCopy() bool     { return true }

func (snowflakeDialect) DropTable(t Table) string { return dropTable(t) }

func (snowflakeDialect) CreateTable(t Table) string {
	return createTable(t, func(c Column) string {
		parts := []string{c.Name, c.Type}
		if c.Identity {
			parts = append(parts, "identity(1, 1)")
		}
		if c.NotNull {
			parts = append(parts, "not null")
		}
		if c.PrimaryKey {
			parts = append(parts, "primary key")
		}
		return strings.Join(parts, " ")
	}, nil)
}

func (snowflakeDialect) Copy(t Table, src CopySource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "truncate table if exists %s;\n\n", t.Name)
	fmt.Fprintf(&b, "copy into %s\nfrom %s\ncredentials = (aws_role = %s)\n", t.Name, quoteLiteral(src.URI), quoteLiteral(src.RoleARN))
	b.WriteString("file_format = (type = 'JSON' strip_outer_array = true)\n")
	b.WriteString("match_by_column_name = case_insensitive;")
	return b.String()
}

var snowflakeDateParts = map[string]string{"weekday": "dayofweek"}

func (snowflakeDialect) funcs() template.FuncMap {
	return template.FuncMap{
		"epoch": func(expr string) string {
			return fmt.Sprintf("to_timestamp_ntz(floor(%s / 1000))", expr)
		},
		"int": func(expr string) string { return expr + "::int" },
		"datepart": func(part, expr string) string {
			if mapped, ok := snowflakeDateParts[part]; ok {
				part = mapped
			}
			return fmt.Sprintf("extract(%s from %s)", part, expr)
		},
	}
}

// sqliteDialect runs the whole catalog on a local database file. It has no
// bulk copy, so its copy statements only empty the staging tables.
type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite3" }
func (sqliteDialect) BulkCopy() bool     { return false }

func (sqliteDialect) DropTable(t Table) string { return dropTable(t) }

func (sqliteDialect) CreateTable(t Table) string {
	return createTable(t, func(c Column) string {
		if c.Identity {
			return c.Name + " integer primary key autoincrement"
		}
		parts := []string{c.Name, c.Type}
		if c.NotNull {
			parts = append(parts, "not null")
		}
		if c.PrimaryKey {
			parts = append(parts, "primary key")
		}
		return strings.Join(parts, " ")
	}, nil)
}

func (sqliteDialect) Copy(t Table, _ CopySource) string {
	return fmt.Sprintf("delete from %s;", t.Name)
}

// strftime formats for each date part. %W counts weeks from the first
// Monday, which differs from ISO weeks in the first days of January.
var sqliteDateParts = map[string]string{
	"hour":    "%H",
	"day":     "%d",
	"week":    "%W",
	"month":   "%m",
	"year":    "%Y",
	"weekday": "%w",
}

func (sqliteDialect) funcs() template.FuncMap {
	return template.FuncMap{
		"epoch": func(expr string) string {
			return fmt.Sprintf("datetime(%s / 1000, 'unixepoch')", expr)
		},
		"int": func(expr string) string { return fmt.Sprintf("cast(%s as integer)", expr) },
		"datepart": func(part, expr string) string {
			return fmt.Sprintf("cast(strftime('%s', %s) as integer)", sqliteDateParts[part], expr)
		},
	}
}
