package catalog_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwhload/internal/catalog"
	"dwhload/internal/testutil"
)

func sqliteCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.SQLite, catalog.Options{})
	require.NoError(t, err)
	return c
}

func resetSchema(t *testing.T, db *sqlx.DB, c *catalog.Catalog) {
	t.Helper()
	testutil.Exec(t, db, c.DropTableQueries()...)
	testutil.Exec(t, db, c.CreateTableQueries()...)
}

func count(t *testing.T, db *sqlx.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query))
	return n
}

func tableDefinitions(t *testing.T, db *sqlx.DB) map[string]string {
	t.Helper()
	rows := []struct {
		Name string `db:"name"`
		SQL  string `db:"sql"`
	}{}
	require.NoError(t, db.Select(&rows, "select name, sql from sqlite_master where type = 'table' and name not like 'sqlite_%'"))
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.SQL
	}
	return out
}

func TestDropThenCreateLeavesSevenEmptyTables(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)

	resetSchema(t, db, c)

	defs := tableDefinitions(t, db)
	require.Len(t, defs, 7)
	for _, table := range catalog.Tables() {
		require.Contains(t, defs, table.Name)
		assert.Equal(t, 0, count(t, db, "select count(*) from "+table.Name), table.Name)
	}
}

func TestDropCreateIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)

	resetSchema(t, db, c)
	testutil.InsertSongs(t, db, testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", SongID: "SOA", Title: "Song A"})
	first := tableDefinitions(t, db)

	resetSchema(t, db, c)
	second := tableDefinitions(t, db)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, count(t, db, "select count(*) from staging_songs"))
}

func TestCreateIsSafeWithoutDrop(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)

	testutil.Exec(t, db, c.CreateTableQueries()...)
	testutil.Exec(t, db, c.CreateTableQueries()...)
	assert.Len(t, tableDefinitions(t, db), 7)
}

func TestJoinProducesOneSongplay(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	testutil.InsertSongs(t, db, testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", SongID: "SOA", Title: "Song A", Duration: 218.1, Year: 2004})
	testutil.InsertEvents(t, db, testutil.NextSong("39", 1541106106796, "Song A", "Artist X"))

	testutil.Exec(t, db, c.InsertTableQueries()...)

	plays := []struct {
		SongID   string    `db:"song_id"`
		ArtistID string    `db:"artist_id"`
		UserID   int       `db:"user_id"`
		Start    time.Time `db:"start_time"`
	}{}
	require.NoError(t, db.Select(&plays, "select song_id, artist_id, user_id, start_time from songplays"))
	require.Len(t, plays, 1)
	assert.Equal(t, "SOA", plays[0].SongID)
	assert.Equal(t, "ARX", plays[0].ArtistID)
	assert.Equal(t, 39, plays[0].UserID)
	assert.Equal(t, time.Date(2018, 11, 1, 21, 1, 46, 0, time.UTC), plays[0].Start.UTC())

	assert.Equal(t, 1, count(t, db, "select count(*) from songs"))
	assert.Equal(t, 1, count(t, db, "select count(*) from artists"))
	assert.Equal(t, 1, count(t, db, "select count(*) from users"))

	var hour int
	require.NoError(t, db.Get(&hour, "select hour from times"))
	assert.Equal(t, 21, hour)
}

func TestSongplaysNeverHoldNulls(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	testutil.InsertSongs(t, db,
		testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", SongID: "SOA", Title: "Song A"},
		testutil.Song{ArtistID: "ARY", ArtistName: "Artist Y", SongID: "SOB", Title: "Song B"},
	)

	valid := testutil.NextSong("7", 1000, "Song A", "Artist X")
	loggedOut := testutil.NextSong("", 2000, "Song A", "Artist X")
	noTimestamp := testutil.NextSong("8", 0, "Song B", "Artist Y")
	noTimestamp.TS = nil
	home := testutil.NextSong("9", 3000, "Song B", "Artist Y")
	home.Page = "Home"
	unknownSong := testutil.NextSong("10", 4000, "Song Z", "Artist X")
	testutil.InsertEvents(t, db, valid, loggedOut, noTimestamp, home, unknownSong)

	testutil.Exec(t, db, c.InsertTableQueries()...)

	assert.Equal(t, 1, count(t, db, "select count(*) from songplays"))
	assert.Equal(t, 0, count(t, db, `select count(*) from songplays
		where start_time is null or user_id is null or song_id is null or artist_id is null`))
}

func TestUsersAreLastWriteWins(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	older := testutil.NextSong("15", 1000, "Song A", "Artist X")
	older.FirstName, older.LastName, older.Level = "Lily", "Koch", "free"
	newer := testutil.NextSong("15", 2000, "Song A", "Artist X")
	newer.FirstName, newer.LastName, newer.Level = "Lily", "Burns", "paid"
	testutil.InsertEvents(t, db, newer, older)

	testutil.Exec(t, db, c.InsertTableQueries()...)

	rows := []struct {
		UserID   int    `db:"user_id"`
		LastName string `db:"last_name"`
		Level    string `db:"level"`
	}{}
	require.NoError(t, db.Select(&rows, "select user_id, last_name, level from users"))
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].UserID)
	assert.Equal(t, "Burns", rows[0].LastName)
	assert.Equal(t, "paid", rows[0].Level)
}

func TestRerunKeepsExistingUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	first := testutil.NextSong("15", 1000, "Song A", "Artist X")
	testutil.InsertEvents(t, db, first)
	testutil.Exec(t, db, c.InsertTableQueries()...)

	testutil.Exec(t, db, "delete from staging_events")
	upgraded := testutil.NextSong("15", 2000, "Song A", "Artist X")
	upgraded.Level = "paid"
	testutil.InsertEvents(t, db, upgraded)
	testutil.Exec(t, db, c.InsertTableQueries()...)

	var level string
	require.NoError(t, db.Get(&level, "select level from users where user_id = 15"))
	assert.Equal(t, "free", level)
	assert.Equal(t, 1, count(t, db, "select count(*) from users"))
}

func TestEpochTimestampDerivation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	testutil.InsertSongs(t, db, testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", SongID: "SOA", Title: "Song A"})
	testutil.InsertEvents(t, db, testutil.NextSong("1", 0, "Song A", "Artist X"))

	testutil.Exec(t, db, c.InsertTableQueries()...)

	var start time.Time
	require.NoError(t, db.Get(&start, "select start_time from songplays"))
	assert.True(t, start.Equal(time.Unix(0, 0)), "got %s", start)

	row := struct {
		Hour    int `db:"hour"`
		Day     int `db:"day"`
		Month   int `db:"month"`
		Year    int `db:"year"`
		Weekday int `db:"weekday"`
	}{}
	require.NoError(t, db.Get(&row, "select hour, day, month, year, weekday from times"))
	assert.Equal(t, 1970, row.Year)
	assert.Equal(t, 1, row.Month)
	assert.Equal(t, 1, row.Day)
	assert.Equal(t, 0, row.Hour)
	assert.Equal(t, 4, row.Weekday)
}

func TestDimensionsKeepOneRowPerKey(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	testutil.InsertSongs(t, db,
		testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", ArtistLocation: "", SongID: "SOA", Title: "Song A"},
		testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", ArtistLocation: "Memphis, TN", SongID: "SOB", Title: "Song B"},
	)
	testutil.InsertEvents(t, db,
		testutil.NextSong("3", 1000, "Song A", "Artist X"),
		testutil.NextSong("3", 1000, "Song B", "Artist X"),
	)

	testutil.Exec(t, db, c.InsertTableQueries()...)
	testutil.Exec(t, db, c.InsertTableQueries()...)

	assert.Equal(t, 1, count(t, db, "select count(*) from artists"))
	assert.Equal(t, 2, count(t, db, "select count(*) from songs"))
	assert.Equal(t, 1, count(t, db, "select count(*) from users"))
	assert.Equal(t, 1, count(t, db, "select count(*) from times"))

	var location string
	require.NoError(t, db.Get(&location, "select artist_location from artists"))
	assert.Equal(t, "Memphis, TN", location)

	// facts append on every run
	assert.Equal(t, 4, count(t, db, "select count(*) from songplays"))
}

func TestCopyPhaseEmptiesStaging(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	c := sqliteCatalog(t)
	resetSchema(t, db, c)

	testutil.InsertSongs(t, db, testutil.Song{ArtistID: "ARX", ArtistName: "Artist X", SongID: "SOA", Title: "Song A"})
	testutil.InsertEvents(t, db, testutil.NextSong("1", 0, "Song A", "Artist X"))

	testutil.Exec(t, db, c.CopyTableQueries()...)

	assert.Equal(t, 0, count(t, db, "select count(*) from staging_songs"))
	assert.Equal(t, 0, count(t, db, "select count(*) from staging_events"))
}
