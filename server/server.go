// Package server exposes a live graph over HTTP for editing and rendering.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/wanmine/musicgraph"
	"github.com/wanmine/musicgraph/gomidi"
	"github.com/wanmine/musicgraph/synth"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type (
	Options struct {
		Mixer synth.Mixer
		// AllowedOrigins lists the origins allowed by CORS; empty allows all.
		AllowedOrigins []string
		// AutosavePath is where the graph is saved after edits, as .yml if
		// the extension says so and as .json otherwise. Empty disables
		// autosaving.
		AutosavePath  string
		AutosaveDelay time.Duration
		Logger        *slog.Logger
	}

	// Server serves one graph. All handlers go through the graph's own
	// locking, so the graph may be shared with other goroutines.
	Server struct {
		graph    *musicgraph.Graph
		opts     Options
		handler  http.Handler
		autosave func(func())
		saveMu   sync.Mutex
	}

	durationResponse struct {
		TotalDuration     float64 `json:"totalDuration"`
		GridSpaceDuration float64 `json:"gridSpaceDuration"`
		Samples           int     `json:"samples"`
	}
)

const DefaultAutosaveDelay = 500 * time.Millisecond

func New(g *musicgraph.Graph, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = DefaultAutosaveDelay
	}
	s := &Server{graph: g, opts: opts}
	if opts.AutosavePath != "" {
		s.autosave = debounce.New(opts.AutosaveDelay)
	}
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleRoot).Methods("GET")
	router.HandleFunc("/graph", s.handleGetGraph).Methods("GET")
	router.HandleFunc("/graph", s.handlePutGraph).Methods("PUT")
	router.HandleFunc("/graph/notes", s.handleGetNotes).Methods("GET")
	router.HandleFunc("/graph/notes", s.handleAddNote).Methods("POST")
	router.HandleFunc("/graph/notes", s.handleRemoveNote).Methods("DELETE")
	router.HandleFunc("/graph/notes/at", s.handleRemoveNoteAt).Methods("DELETE")
	router.HandleFunc("/graph/clear", s.handleClear).Methods("POST")
	router.HandleFunc("/graph/tempo", s.handleSetTempo).Methods("PUT")
	router.HandleFunc("/graph/gridlength", s.handleSetGridLength).Methods("PUT")
	router.HandleFunc("/graph/duration", s.handleDuration).Methods("GET")
	router.HandleFunc("/graph/render.wav", s.handleRenderWav).Methods("GET")
	router.HandleFunc("/graph/render.mid", s.handleRenderMidi).Methods("GET")
	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(router)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// changed schedules an autosave.
func (s *Server) changed() {
	if s.autosave == nil {
		return
	}
	s.autosave(func() {
		if err := s.Save(); err != nil {
			s.opts.Logger.Error("autosave failed", "path", s.opts.AutosavePath, "err", err)
		}
	})
}

// Save writes the graph to AutosavePath right away.
func (s *Server) Save() error {
	if s.opts.AutosavePath == "" {
		return errors.New("no autosave path set")
	}
	var b []byte
	var err error
	switch strings.ToLower(filepath.Ext(s.opts.AutosavePath)) {
	case ".yml", ".yaml":
		b, err = yaml.Marshal(s.graph)
	default:
		b, err = json.MarshalIndent(s.graph, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("could not marshal graph: %w", err)
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	dir, name := filepath.Split(s.opts.AutosavePath)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("could not write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("could not write file: %w", err)
	}
	if err := os.Rename(f.Name(), s.opts.AutosavePath); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("could not rename file: %w", err)
	}
	s.opts.Logger.Debug("saved graph", "path", s.opts.AutosavePath, "notes", s.graph.Len())
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "musicgraph server: %d notes, %d BPM, %d grid spaces\n", s.graph.Len(), s.graph.Tempo(), s.graph.GridLength())
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.graph)
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not read body: %v", err), http.StatusBadRequest)
		return
	}
	g, err := musicgraph.ReadGraph(b)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.graph.Replace(g)
	s.changed()
	writeJSON(w, http.StatusOK, s.graph)
}

func queryInt(r *http.Request, key string) (int, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s %q", key, v)
	}
	return i, true, nil
}

func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	var keep []func(musicgraph.Note) bool
	if pos, ok, err := queryInt(r, "position"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if ok {
		keep = append(keep, func(n musicgraph.Note) bool { return n.Contains(pos) })
	}
	if start, ok, err := queryInt(r, "start"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if ok {
		keep = append(keep, func(n musicgraph.Note) bool { return n.Position() == start })
	}
	if name := r.URL.Query().Get("instrument"); name != "" {
		instr, err := musicgraph.ParseInstrument(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keep = append(keep, func(n musicgraph.Note) bool { return n.Instrument() == instr })
	}
	// every given filter must match
	notes := slices.DeleteFunc(s.graph.Notes(), func(n musicgraph.Note) bool {
		for _, k := range keep {
			if !k(n) {
				return true
			}
		}
		return false
	})
	if notes == nil {
		notes = []musicgraph.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func decodeNote(r *http.Request) (musicgraph.Note, error) {
	var n musicgraph.Note
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		return n, fmt.Errorf("invalid note: %w", err)
	}
	return n, nil
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	n, err := decodeNote(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.graph.AddNote(n) {
		err := s.graph.CheckNote(n)
		if err == nil {
			err = musicgraph.ErrOverlap
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(err, musicgraph.ErrOverlap) {
			status = http.StatusConflict
		}
		http.Error(w, fmt.Sprintf("note %v rejected: %v", n, err), status)
		return
	}
	s.changed()
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	n, err := decodeNote(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.graph.RemoveNote(n) {
		http.Error(w, fmt.Sprintf("note %v not found", n), http.StatusNotFound)
		return
	}
	s.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveNoteAt(w http.ResponseWriter, r *http.Request) {
	var args [3]int
	for i, key := range []string{"position", "octave", "semitone"} {
		v, ok, err := queryInt(r, key)
		if err == nil && !ok {
			err = fmt.Errorf("missing %s", key)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		args[i] = v
	}
	instr, err := musicgraph.ParseInstrument(r.URL.Query().Get("instrument"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.graph.RemoveNoteAt(args[0], args[1], args[2], instr) {
		http.Error(w, "no note starts there", http.StatusNotFound)
		return
	}
	s.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.graph.Clear()
	s.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setInt(w http.ResponseWriter, r *http.Request, key string, set func(int) error) {
	body := map[string]int{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
		return
	}
	v, ok := body[key]
	if !ok {
		http.Error(w, fmt.Sprintf("missing %s", key), http.StatusBadRequest)
		return
	}
	if err := set(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, s.graph)
}

func (s *Server) handleSetTempo(w http.ResponseWriter, r *http.Request) {
	s.setInt(w, r, "tempo", s.graph.SetTempo)
}

func (s *Server) handleSetGridLength(w http.ResponseWriter, r *http.Request) {
	s.setInt(w, r, "gridLength", s.graph.SetGridLength)
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	g := s.graph.Copy()
	d := g.TotalDuration()
	writeJSON(w, http.StatusOK, durationResponse{
		TotalDuration:     d,
		GridSpaceDuration: g.GridSpaceDuration(),
		Samples:           musicgraph.NumSamples(d),
	})
}

func (s *Server) handleRenderWav(w http.ResponseWriter, r *http.Request) {
	buf, err := s.opts.Mixer.Render(r.Context(), s.graph)
	if err != nil {
		s.opts.Logger.Error("render failed", "err", err)
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(musicgraph.WavHeaderSize+2*len(buf)))
	if err := buf.WriteWav(w); err != nil {
		s.opts.Logger.Warn("could not send render", "err", err)
	}
}

func (s *Server) handleRenderMidi(w http.ResponseWriter, r *http.Request) {
	var b bytes.Buffer
	if err := gomidi.Write(&b, s.graph); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Write(b.Bytes())
}
