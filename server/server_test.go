package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/gomidi"
	"github.com/wanmine/musicgraph/server"
)

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const pianoA = `{"octave": 1, "semitone": 9, "position": 0, "length": 4, "instrument": "Piano"}`

func TestAddAndRemoveNotes(t *testing.T) {
	assert := assert.New(t)
	g := musicgraph.DefaultGraph()
	s := server.New(g, server.Options{})

	rec := do(t, s, "POST", "/graph/notes", pianoA)
	assert.Equal(http.StatusCreated, rec.Code)
	assert.Equal(1, g.Len())

	rec = do(t, s, "POST", "/graph/notes", `{"octave": 1, "semitone": 9, "position": 2, "length": 1, "instrument": "piano"}`)
	assert.Equal(http.StatusConflict, rec.Code)
	assert.Contains(rec.Body.String(), "overlaps")

	rec = do(t, s, "POST", "/graph/notes", `{"octave": 5, "semitone": 0, "position": 0, "length": 1, "instrument": "Piano"}`)
	assert.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, "POST", "/graph/notes", `{"octave": 0, "semitone": 12, "position": 0, "length": 1, "instrument": "Piano"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = do(t, s, "DELETE", "/graph/notes/at?position=0&octave=1&semitone=9&instrument=Piano", "")
	assert.Equal(http.StatusNoContent, rec.Code)
	assert.Equal(0, g.Len())
	assert.False(g.HasNotesAfter(-1))

	rec = do(t, s, "DELETE", "/graph/notes/at?position=0&octave=1&semitone=9&instrument=Piano", "")
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = do(t, s, "DELETE", "/graph/notes/at?position=0&octave=1", "")
	assert.Equal(http.StatusBadRequest, rec.Code)

	do(t, s, "POST", "/graph/notes", pianoA)
	rec = do(t, s, "DELETE", "/graph/notes", pianoA)
	assert.Equal(http.StatusNoContent, rec.Code)
	rec = do(t, s, "DELETE", "/graph/notes", pianoA)
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestQueries(t *testing.T) {
	g, err := musicgraph.NewBuilder().
		NoteLength(1, 9, 0, 4).
		NoteWith(0, 0, 2, 1, musicgraph.Drum).
		Build()
	require.NoError(t, err)
	s := server.New(g, server.Options{})

	var notes []musicgraph.Note
	rec := do(t, s, "GET", "/graph/notes?position=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.Len(t, notes, 1)

	rec = do(t, s, "GET", "/graph/notes?start=2&instrument=drum", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.Equal(t, []musicgraph.Note{musicgraph.MustNote(0, 0, 2, 1, musicgraph.Drum)}, notes)

	rec = do(t, s, "GET", "/graph/notes?start=3", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, s, "GET", "/graph/notes?position=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// filters combine
	rec = do(t, s, "GET", "/graph/notes?position=2&start=0", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.Equal(t, []musicgraph.Note{musicgraph.MustNote(1, 9, 0, 4, musicgraph.Piano)}, notes)
	rec = do(t, s, "GET", "/graph/notes?position=3&start=2", "")
	assert.Equal(t, "[]\n", rec.Body.String())

	var d struct {
		TotalDuration     float64 `json:"totalDuration"`
		GridSpaceDuration float64 `json:"gridSpaceDuration"`
		Samples           int     `json:"samples"`
	}
	rec = do(t, s, "GET", "/graph/duration", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 0.5, d.TotalDuration)
	assert.Equal(t, 0.125, d.GridSpaceDuration)
	assert.Equal(t, 22050, d.Samples)
}

func TestTempoAndGridLength(t *testing.T) {
	assert := assert.New(t)
	g := musicgraph.DefaultGraph()
	g.AddNote(musicgraph.MustNote(0, 0, 0, 8, musicgraph.Piano))
	g.AddNote(musicgraph.MustNote(0, 1, 8, 8, musicgraph.Piano))
	s := server.New(g, server.Options{})

	assert.Equal(http.StatusOK, do(t, s, "PUT", "/graph/tempo", `{"tempo": 90}`).Code)
	assert.Equal(90, g.Tempo())
	assert.Equal(http.StatusBadRequest, do(t, s, "PUT", "/graph/tempo", `{"tempo": 400}`).Code)
	assert.Equal(http.StatusBadRequest, do(t, s, "PUT", "/graph/tempo", `{}`).Code)
	assert.Equal(90, g.Tempo())

	assert.Equal(http.StatusOK, do(t, s, "PUT", "/graph/gridlength", `{"gridLength": 12}`).Code)
	assert.Equal(12, g.GridLength())
	assert.Equal(1, g.Len())
	assert.Equal(http.StatusBadRequest, do(t, s, "PUT", "/graph/gridlength", `{"gridLength": 0}`).Code)

	assert.Equal(http.StatusNoContent, do(t, s, "POST", "/graph/clear", "").Code)
	assert.Equal(0, g.Len())
}

func TestPutAndGetGraph(t *testing.T) {
	g := musicgraph.DefaultGraph()
	s := server.New(g, server.Options{})
	yml := "tempo: 100\ngridlength: 8\nnotes:\n  - {octave: 0, semitone: 4, position: 0, length: 2, instrument: Synth}\n"
	rec := do(t, s, "PUT", "/graph", yml)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, g.Tempo())
	assert.Equal(t, 1, g.Len())

	rec = do(t, s, "GET", "/graph", "")
	h, err := musicgraph.ReadGraph(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, g.Hash(), h.Hash())

	rec = do(t, s, "PUT", "/graph", "tempo: 1000\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 100, g.Tempo())
}

func TestRender(t *testing.T) {
	g, err := musicgraph.NewBuilderWith(3, 120, 4).NoteLength(1, 9, 0, 4).Build()
	require.NoError(t, err)
	s := server.New(g, server.Options{})

	rec := do(t, s, "GET", "/graph/render.wav", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	d := wav.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Len(t, buf.Data, 22050)

	rec = do(t, s, "GET", "/graph/render.mid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	h, skipped, err := gomidi.Read(rec.Body, 3)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, g.Hash(), h.Hash())
}

func TestCORS(t *testing.T) {
	s := server.New(musicgraph.DefaultGraph(), server.Options{AllowedOrigins: []string{"http://example.com"}})
	req := httptest.NewRequest("OPTIONS", "/graph/notes", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/graph", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.yml")
	g := musicgraph.DefaultGraph()
	s := server.New(g, server.Options{AutosavePath: path, AutosaveDelay: 10 * time.Millisecond})
	do(t, s, "POST", "/graph/notes", pianoA)
	do(t, s, "PUT", "/graph/tempo", `{"tempo": 150}`)
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		saved, err := musicgraph.ReadGraph(b)
		return err == nil && saved.Hash() == g.Hash()
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveWithoutPath(t *testing.T) {
	s := server.New(musicgraph.DefaultGraph(), server.Options{})
	assert.Error(t, s.Save())
}
