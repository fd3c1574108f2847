package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB opens a private in-memory SQLite database. The pool is pinned
// to one connection because every new connection to ":memory:" would see
// an empty database.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs each statement and fails the test on the first error
func Exec(t *testing.T, db *sqlx.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to execute %q: %v", stmt, err)
		}
	}
}

// Event is a staging_events fixture row
type Event struct {
	Artist    *string `db:"artist"`
	FirstName string  `db:"firstName"`
	LastName  string  `db:"lastName"`
	Gender    string  `db:"gender"`
	Level     string  `db:"level"`
	Location  string  `db:"location"`
	Page      string  `db:"page"`
	SessionID int     `db:"sessionId"`
	Song      *string `db:"song"`
	TS        *int64  `db:"ts"`
	UserAgent string  `db:"userAgent"`
	UserID    string  `db:"userId"`
}

// Song is a staging_songs fixture row
type Song struct {
	ArtistID       string   `db:"artist_id"`
	ArtistName     string   `db:"artist_name"`
	ArtistLocation string   `db:"artist_location"`
	ArtistLat      *float64 `db:"artist_latitude"`
	ArtistLon      *float64 `db:"artist_longitude"`
	SongID         string   `db:"song_id"`
	Title          string   `db:"title"`
	Duration       float64  `db:"duration"`
	Year           int      `db:"year"`
}

// InsertEvents writes fixture rows into staging_events
func InsertEvents(t *testing.T, db *sqlx.DB, events ...Event) {
	t.Helper()
	for _, e := range events {
		_, err := db.NamedExec(`insert into staging_events
			(artist, firstName, lastName, gender, level, location, page, sessionId, song, ts, userAgent, userId)
			values (:artist, :firstName, :lastName, :gender, :level, :location, :page, :sessionId, :song, :ts, :userAgent, :userId)`, e)
		if err != nil {
			t.Fatalf("Failed to insert staging event: %v", err)
		}
	}
}

// InsertSongs writes fixture rows into staging_songs
func InsertSongs(t *testing.T, db *sqlx.DB, songs ...Song) {
	t.Helper()
	for _, s := range songs {
		_, err := db.NamedExec(`insert into staging_songs
			(num_songs, artist_id, artist_name, artist_location, artist_latitude, artist_longitude, song_id, title, duration, year)
			values (1, :artist_id, :artist_name, :artist_location, :artist_latitude, :artist_longitude, :song_id, :title, :duration, :year)`, s)
		if err != nil {
			t.Fatalf("Failed to insert staging song: %v", err)
		}
	}
}

// Str returns a pointer to s
func Str(s string) *string { return &s }

// Int64 returns a pointer to v
func Int64(v int64) *int64 { return &v }

// NextSong builds a NextSong event for user at ts playing song by artist
func NextSong(userID string, ts int64, song, artist string) Event {
	return Event{
		Artist:    Str(artist),
		FirstName: "First" + userID,
		LastName:  "Last" + userID,
		Gender:    "F",
		Level:     "free",
		Location:  "Atlanta-Sandy Springs-Roswell, GA",
		Page:      "NextSong",
		SessionID: 1,
		Song:      Str(song),
		TS:        Int64(ts),
		UserAgent: "Mozilla/5.0",
		UserID:    userID,
	}
}
