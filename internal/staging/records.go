package staging

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// text accepts a JSON string, number or null. The event logs carry userId
// as a string and status as a number while both columns are varchar.
type text struct {
	Value string
	Valid bool
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = text{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text{Value: s, Valid: true}
		return nil
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return err
		}
		*t = text{Value: string(b), Valid: true}
		return nil
	}
}

func (t text) ptr() *string {
	if !t.Valid {
		return nil
	}
	return &t.Value
}

// event is one line of the activity log
type event struct {
	Artist        *string  `json:"artist"`
	Auth          *string  `json:"auth"`
	FirstName     *string  `json:"firstName"`
	Gender        *string  `json:"gender"`
	ItemInSession *int64   `json:"itemInSession"`
	LastName      *string  `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         *string  `json:"level"`
	Location      *string  `json:"location"`
	Method        *string  `json:"method"`
	Page          *string  `json:"page"`
	Registration  *float64 `json:"registration"`
	SessionID     *int64   `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        text     `json:"status"`
	TS            *int64   `json:"ts"`
	UserAgent     *string  `json:"userAgent"`
	UserID        text     `json:"userId"`
}

type eventRow struct {
	Artist        *string  `db:"artist"`
	Auth          *string  `db:"auth"`
	FirstName     *string  `db:"firstName"`
	Gender        *string  `db:"gender"`
	ItemInSession *int64   `db:"itemInSession"`
	LastName      *string  `db:"lastName"`
	Length        *float64 `db:"length"`
	Level         *string  `db:"level"`
	Location      *string  `db:"location"`
	Method        *string  `db:"method"`
	Page          *string  `db:"page"`
	Registration  *float64 `db:"registration"`
	SessionID     *int64   `db:"sessionId"`
	Song          *string  `db:"song"`
	Status        *string  `db:"status"`
	TS            *int64   `db:"ts"`
	UserAgent     *string  `db:"userAgent"`
	UserID        *string  `db:"userId"`
}

func (e event) row() eventRow {
	return eventRow{
		Artist:        e.Artist,
		Auth:          e.Auth,
		FirstName:     e.FirstName,
		Gender:        e.Gender,
		ItemInSession: e.ItemInSession,
		LastName:      e.LastName,
		Length:        e.Length,
		Level:         e.Level,
		Location:      e.Location,
		Method:        e.Method,
		Page:          e.Page,
		Registration:  e.Registration,
		SessionID:     e.SessionID,
		Song:          e.Song,
		Status:        e.Status.ptr(),
		TS:            e.TS,
		UserAgent:     e.UserAgent,
		UserID:        e.UserID.ptr(),
	}
}

const insertEvent = `insert into staging_events (
	artist, auth, firstName, gender, itemInSession, lastName, length, level, location,
	method, page, registration, sessionId, song, status, ts, userAgent, userId
) values (
	:artist, :auth, :firstName, :gender, :itemInSession, :lastName, :length, :level, :location,
	:method, :page, :registration, :sessionId, :song, :status, :ts, :userAgent, :userId
)`

// song is one record of the song catalog
type song struct {
	NumSongs        *int64   `json:"num_songs" db:"num_songs"`
	ArtistID        *string  `json:"artist_id" db:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude" db:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude" db:"artist_longitude"`
	ArtistLocation  *string  `json:"artist_location" db:"artist_location"`
	ArtistName      *string  `json:"artist_name" db:"artist_name"`
	SongID          *string  `json:"song_id" db:"song_id"`
	Title           *string  `json:"title" db:"title"`
	Duration        *float64 `json:"duration" db:"duration"`
	Year            *int64   `json:"year" db:"year"`
}

const insertSong = `insert into staging_songs (
	num_songs, artist_id, artist_latitude, artist_longitude, artist_location,
	artist_name, song_id, title, duration, year
) values (
	:num_songs, :artist_id, :artist_latitude, :artist_longitude, :artist_location,
	:artist_name, :song_id, :title, :duration, :year
)`
