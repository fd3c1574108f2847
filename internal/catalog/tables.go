package catalog

// Kind classifies a table in the star schema
type Kind string

const (
	KindStaging   Kind = "staging"
	KindFact      Kind = "fact"
	KindDimension Kind = "dimension"
)

// Column describes one column. Types are written in a form every supported
// engine accepts; Encode is a compression hint only redshift renders.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	Identity   bool
	Encode     string
}

// Table describes one table and its physical layout hints
type Table struct {
	Name      string
	Kind      Kind
	Columns   []Column
	DistStyle string
	DistKey   string
	SortKey   string

	// prefix names the statements for this table, e.g. "songplay" for
	// songplay_table_create.
	prefix string
}

// PrimaryKey returns the primary key column name, or "" for staging tables
func (t Table) PrimaryKey() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

var stagingEvents = Table{
	Name:      "staging_events",
	Kind:      KindStaging,
	DistStyle: "auto",
	prefix:    "staging_events",
	Columns: []Column{
		{Name: "artist", Type: "varchar(200)"},
		{Name: "auth", Type: "varchar(50)"},
		{Name: "firstName", Type: "varchar(50)"},
		{Name: "gender", Type: "varchar(50)"},
		{Name: "itemInSession", Type: "int"},
		{Name: "lastName", Type: "varchar(50)"},
		{Name: "length", Type: "float"},
		{Name: "level", Type: "varchar(50)"},
		{Name: "location", Type: "varchar(200)"},
		{Name: "method", Type: "varchar(50)"},
		{Name: "page", Type: "varchar(50)"},
		{Name: "registration", Type: "float"},
		{Name: "sessionId", Type: "int"},
		{Name: "song", Type: "varchar(200)"},
		{Name: "status", Type: "varchar(50)"},
		{Name: "ts", Type: "bigint"},
		{Name: "userAgent", Type: "varchar(256)"},
		{Name: "userId", Type: "varchar(50)"},
	},
}

var stagingSongs = Table{
	Name:      "staging_songs",
	Kind:      KindStaging,
	DistStyle: "auto",
	prefix:    "staging_songs",
	Columns: []Column{
		{Name: "num_songs", Type: "int"},
		{Name: "artist_id", Type: "varchar(50)"},
		{Name: "artist_latitude", Type: "float"},
		{Name: "artist_longitude", Type: "float"},
		{Name: "artist_location", Type: "varchar(200)"},
		{Name: "artist_name", Type: "varchar(200)"},
		{Name: "song_id", Type: "varchar(50)"},
		{Name: "title", Type: "varchar(200)"},
		{Name: "duration", Type: "float"},
		{Name: "year", Type: "int"},
	},
}

var songplays = Table{
	Name:    "songplays",
	Kind:    KindFact,
	DistKey: "songplay_id",
	SortKey: "start_time",
	prefix:  "songplay",
	Columns: []Column{
		{Name: "songplay_id", Type: "int", Identity: true, PrimaryKey: true, Encode: "az64"},
		{Name: "start_time", Type: "timestamp", NotNull: true, Encode: "az64"},
		{Name: "user_id", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "level", Type: "varchar(50)", Encode: "zstd"},
		{Name: "song_id", Type: "varchar(50)", NotNull: true, Encode: "zstd"},
		{Name: "artist_id", Type: "varchar(50)", NotNull: true, Encode: "zstd"},
		{Name: "session_id", Type: "int", Encode: "az64"},
		{Name: "location", Type: "varchar(200)", Encode: "zstd"},
		{Name: "user_agent", Type: "varchar(256)", Encode: "zstd"},
	},
}

var users = Table{
	Name:    "users",
	Kind:    KindDimension,
	DistKey: "user_id",
	prefix:  "user",
	Columns: []Column{
		{Name: "user_id", Type: "int", NotNull: true, PrimaryKey: true, Encode: "az64"},
		{Name: "first_name", Type: "varchar(50)", Encode: "zstd"},
		{Name: "last_name", Type: "varchar(50)", Encode: "zstd"},
		{Name: "gender", Type: "char(1)", Encode: "zstd"},
		{Name: "level", Type: "varchar(10)", Encode: "zstd"},
	},
}

var songs = Table{
	Name:    "songs",
	Kind:    KindDimension,
	DistKey: "song_id",
	SortKey: "year",
	prefix:  "song",
	Columns: []Column{
		{Name: "song_id", Type: "varchar(50)", NotNull: true, PrimaryKey: true, Encode: "zstd"},
		{Name: "title", Type: "varchar(200)", Encode: "zstd"},
		{Name: "artist_id", Type: "varchar(50)", NotNull: true, Encode: "zstd"},
		{Name: "year", Type: "int", Encode: "az64"},
		{Name: "duration", Type: "float", Encode: "zstd"},
	},
}

var artists = Table{
	Name:    "artists",
	Kind:    KindDimension,
	DistKey: "artist_id",
	SortKey: "artist_id",
	prefix:  "artist",
	Columns: []Column{
		{Name: "artist_id", Type: "varchar(50)", NotNull: true, PrimaryKey: true, Encode: "zstd"},
		{Name: "artist_name", Type: "varchar(200)", Encode: "zstd"},
		{Name: "artist_location", Type: "varchar(200)", Encode: "zstd"},
		{Name: "artist_latitude", Type: "float", Encode: "zstd"},
		{Name: "artist_longitude", Type: "float", Encode: "zstd"},
	},
}

var times = Table{
	Name:    "times",
	Kind:    KindDimension,
	DistKey: "start_time",
	SortKey: "start_time",
	prefix:  "time",
	Columns: []Column{
		{Name: "start_time", Type: "timestamp", NotNull: true, PrimaryKey: true, Encode: "az64"},
		{Name: "hour", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "day", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "week", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "month", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "year", Type: "int", NotNull: true, Encode: "az64"},
		{Name: "weekday", Type: "int", NotNull: true, Encode: "az64"},
	},
}

var schema = []Table{stagingEvents, stagingSongs, songplays, users, songs, artists, times}

// Tables returns the seven tables in drop/create order
func Tables() []Table {
	out := make([]Table, len(schema))
	copy(out, schema)
	return out
}

// LookupTable returns the table with the given name
func LookupTable(name string) (Table, bool) {
	for _, t := range schema {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
