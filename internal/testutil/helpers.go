package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"dwhload/internal/common"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// WriteFile writes content to a file below dir, creating parent directories
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	h.t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), common.FilePermissionNormal); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

// SourceTree writes a log_data and a song_data directory laid out like the
// public dataset and returns their paths
func (h *TestHelper) SourceTree() (logDir, songDir string) {
	h.t.Helper()
	root := h.t.TempDir()

	h.WriteFile(root, "log_data/2018/11/2018-11-01-events.json",
		`{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla\/5.0","userId":"39"}
{"artist":"Artist X","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":1,"lastName":"Frye","length":218.1,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"Song A","status":200,"ts":1541106106796,"userAgent":"Mozilla\/5.0","userId":"39"}
`)
	h.WriteFile(root, "log_data/2018/11/2018-11-02-events.json",
		`{"artist":"Artist Y","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":2,"lastName":"Summers","length":239.3,"level":"paid","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Song B","status":200,"ts":1541106496796,"userAgent":"Mozilla\/5.0","userId":"8"}
`)
	h.WriteFile(root, "song_data/A/A/A/TRAAAAA.json",
		`{"num_songs": 1, "artist_id": "ARX", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Artist X", "song_id": "SOA", "title": "Song A", "duration": 218.1, "year": 0}`)
	h.WriteFile(root, "song_data/A/A/B/TRAAAAB.json",
		`{"num_songs": 1, "artist_id": "ARY", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "Artist Y", "song_id": "SOB", "title": "Song B", "duration": 239.3, "year": 1995}`)
	h.WriteFile(root, "song_data/README.txt", "not a json file")

	return filepath.Join(root, "log_data"), filepath.Join(root, "song_data")
}
