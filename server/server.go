// Package server exposes an editor model as a small JSON API, so that a
// browser front end can do the drawing and leave the rhythm to vexedit.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/editor"
	"github.com/vexedit/vexedit/lily"
	"github.com/vexedit/vexedit/logger"
	"golang.org/x/exp/slices"
)

type (
	// Server serializes all requests on one editor model. What the model
	// plays is collected while the lock is held and played afterwards, one
	// job at a time, by a player goroutine, so that slow audio never holds
	// up the other requests.
	Server struct {
		mu       sync.Mutex
		model    *editor.Model
		engraver *lily.Engraver
		handler  http.Handler
		log      *logrus.Logger
		filename string

		player vexedit.AudioScheduler
		cues   cueSheet
		jobs   chan playJob
	}

	cue struct {
		time  vexedit.TimeSignature
		notes []vexedit.NoteEvent
	}

	// cueSheet stands in for the scheduler of the model and only records
	// what it is asked to play.
	cueSheet []cue

	// playJob is played by the player goroutine. done, if not nil, receives
	// the result.
	playJob struct {
		cues []cue
		done chan<- error
	}

	// MeasureView is a measure as the front end needs it: the saved part,
	// plus the provisional notes, the ties of the corrected sequence and
	// whether the measure is full.
	MeasureView struct {
		vexedit.Measure
		Provisional []vexedit.NoteEvent `json:"provisional,omitempty"`
		Ties        []vexedit.Tie       `json:"ties"`
		Beams       []vexedit.Beam      `json:"beams"`
		Capacity    vexedit.Capacity    `json:"capacity"`
	}

	ScoreView struct {
		Current  int            `json:"current"`
		Duration string         `json:"duration"`
		Changed  bool           `json:"changed"`
		Measures []MeasureView  `json:"measures"`
		Alerts   []editor.Alert `json:"alerts,omitempty"`
	}

	// NoteRequest is the body of POST /measures/{m}/notes. Duration is
	// optional and changes the current duration when given.
	NoteRequest struct {
		Pitch    string `json:"pitch"`
		Duration string `json:"duration,omitempty"`
		Rest     bool   `json:"rest,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

var (
	errNothingToDo = errors.New("nothing to undo or redo")
	errNoFile      = errors.New("the server has no file to save to")
)

// previewQueue is how many previews may wait for the player before new
// ones are dropped.
const previewQueue = 8

// New returns a server for model. Cross-origin requests are allowed from
// origins; "*" allows any.
func New(model *editor.Model, origins []string) (*Server, error) {
	engraver, err := lily.New()
	if err != nil {
		return nil, err
	}
	s := &Server{model: model, engraver: engraver, log: logger.GetProjectLogger()}
	if player := model.Scheduler(); player != nil {
		s.player = player
		s.jobs = make(chan playJob, previewQueue)
		model.SetScheduler(&s.cues)
		go s.playLoop()
	}
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/measures", s.handleScore).Methods(http.MethodGet)
	router.HandleFunc("/measures", s.handleAddMeasure).Methods(http.MethodPost)
	router.HandleFunc("/measures/{m:[0-9]+}", s.handleMeasure).Methods(http.MethodGet)
	router.HandleFunc("/measures/{m:[0-9]+}/notes", s.handleHover).Methods(http.MethodPost)
	router.HandleFunc("/measures/{m:[0-9]+}/notes", s.handleDiscard).Methods(http.MethodDelete)
	router.HandleFunc("/measures/{m:[0-9]+}/commit", s.handleCommit).Methods(http.MethodPost)
	router.HandleFunc("/measures/{m:[0-9]+}/notes/last", s.handleRemoveLast).Methods(http.MethodDelete)
	router.HandleFunc("/measures/{m:[0-9]+}/capacity", s.handleCapacity).Methods(http.MethodGet)
	router.HandleFunc("/measures/{m:[0-9]+}/lily", s.handleMeasureLily).Methods(http.MethodGet)
	router.HandleFunc("/lily", s.handleLily).Methods(http.MethodGet)
	router.HandleFunc("/undo", s.handleUndo).Methods(http.MethodPost)
	router.HandleFunc("/redo", s.handleRedo).Methods(http.MethodPost)
	router.HandleFunc("/play", s.handlePlay).Methods(http.MethodPost)
	router.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
	router.Use(s.logRequests)
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(router)
	return s, nil
}

// SaveTo sets the measure file written by POST /save.
func (s *Server) SaveTo(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filename = filename
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.log.WithField("addr", addr).Info("serving")
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeScore(w, http.StatusOK)
}

func (s *Server) handleAddMeasure(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.model.AddMeasure(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeScore(w, http.StatusCreated)
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeMeasure(w, r)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.measureIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Duration != "" {
		if err := s.model.SetDuration(req.Duration); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Rest {
		err = s.model.HoverRest(i)
	} else {
		var p vexedit.Pitch
		if p, err = vexedit.ParsePitch(req.Pitch); err == nil {
			err = s.model.Hover(i, p)
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeMeasure(w, r)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selectMeasure(w, r) {
		return
	}
	s.model.RemovePendingNotes()
	s.writeMeasure(w, r)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	cues := s.withModel(func() {
		if !s.selectMeasure(w, r) {
			return
		}
		if err := s.model.Click(); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeScore(w, http.StatusOK)
	})
	s.preview(cues)
}

func (s *Server) handleRemoveLast(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selectMeasure(w, r) {
		return
	}
	if err := s.model.Backspace(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeMeasure(w, r)
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.measureIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, _, err := s.model.Measure(i)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.CapacityStatus())
}

func (s *Server) handleMeasureLily(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.measureIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, clef, err := s.model.Measure(i)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeLily(w, fmt.Sprintf("Measure %d", i+1), []lily.Line{{Voice: v, Clef: clef}})
}

func (s *Server) handleLily(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]lily.Line, s.model.Len())
	for i := range lines {
		v, clef, _ := s.model.Measure(i)
		lines[i] = lily.Line{Voice: v, Clef: clef}
	}
	s.writeLily(w, r.URL.Query().Get("title"), lines)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.model.Undo() {
		s.writeError(w, errNothingToDo)
		return
	}
	s.writeScore(w, http.StatusOK)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.model.Redo() {
		s.writeError(w, errNothingToDo)
		return
	}
	s.writeScore(w, http.StatusOK)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var err error
	cues := s.withModel(func() {
		err = s.model.Play()
	})
	if err == nil {
		err = s.play(cues)
		if err != nil {
			s.mu.Lock()
			s.model.Alerts().AddNamed("PlaybackError", fmt.Sprintf("Playback failed: %v", err), editor.Error)
			s.mu.Unlock()
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filename == "" {
		s.writeError(w, errNoFile)
		return
	}
	data, err := vexedit.WriteMeasures(s.model.Measures())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := os.WriteFile(s.filename, data, 0644); err != nil {
		s.writeError(w, fmt.Errorf("could not write file %v: %w", s.filename, err))
		return
	}
	s.model.SetChangedSinceSave(false)
	s.log.WithField("file", s.filename).Info("saved")
	s.writeScore(w, http.StatusOK)
}

// withModel runs f holding the lock and returns what the model asked to
// play meanwhile.
func (s *Server) withModel(f func()) []cue {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
	ret := s.cues
	s.cues = nil
	return ret
}

// preview hands the cues to the player without waiting for them. When the
// player is too far behind, the preview is dropped.
func (s *Server) preview(cues []cue) {
	if len(cues) == 0 || s.jobs == nil {
		return
	}
	select {
	case s.jobs <- playJob{cues: cues}:
	default:
		s.log.Debug("player busy, preview dropped")
	}
}

// play hands the cues to the player and waits until they have been played.
func (s *Server) play(cues []cue) error {
	if s.jobs == nil {
		return editor.ErrNoScheduler
	}
	done := make(chan error, 1)
	s.jobs <- playJob{cues: cues, done: done}
	return <-done
}

func (s *Server) playLoop() {
	for job := range s.jobs {
		var err error
		for _, c := range job.cues {
			if err = s.player.Schedule(c.time, c.notes); err != nil {
				break
			}
		}
		switch {
		case job.done != nil:
			job.done <- err
		case err != nil:
			s.log.WithError(err).Warn("preview failed")
		}
	}
}

func (c *cueSheet) Schedule(ts vexedit.TimeSignature, notes []vexedit.NoteEvent) error {
	*c = append(*c, cue{time: ts, notes: slices.Clone(notes)})
	return nil
}

func (s *Server) measureIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(mux.Vars(r)["m"])
	if err != nil || i < 0 || i >= s.model.Len() {
		return 0, fmt.Errorf("%w: %s", editor.ErrNoSuchMeasure, mux.Vars(r)["m"])
	}
	return i, nil
}

func (s *Server) selectMeasure(w http.ResponseWriter, r *http.Request) bool {
	i, err := s.measureIndex(r)
	if err == nil {
		err = s.model.Select(i)
	}
	if err != nil {
		s.writeError(w, err)
		return false
	}
	return true
}

func (s *Server) view(i int) (MeasureView, error) {
	v, clef, err := s.model.Measure(i)
	if err != nil {
		return MeasureView{}, err
	}
	view := MeasureView{
		Measure:     vexedit.MeasureOf(v, clef),
		Provisional: v.Provisional(),
		Ties:        v.Ties(),
		Capacity:    v.CapacityStatus(),
	}
	// the beams are those of the committed notes; the provisional ones are
	// not split yet
	v.DiscardProvisional()
	if _, err := v.Commit(); err != nil {
		return MeasureView{}, fmt.Errorf("measure %d: %w", i+1, err)
	}
	view.Beams = v.Beams()
	return view, nil
}

func (s *Server) writeMeasure(w http.ResponseWriter, r *http.Request) {
	i, err := s.measureIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.view(i)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeScore(w http.ResponseWriter, status int) {
	score := ScoreView{
		Current:  s.model.Current(),
		Duration: s.model.Duration().Code(),
		Changed:  s.model.ChangedSinceSave(),
		Measures: make([]MeasureView, s.model.Len()),
		Alerts:   s.model.Alerts().List(),
	}
	for i := range score.Measures {
		view, err := s.view(i)
		if err != nil {
			s.writeError(w, err)
			return
		}
		score.Measures[i] = view
	}
	writeJSON(w, status, score)
}

func (s *Server) writeLily(w http.ResponseWriter, title string, lines []lily.Line) {
	text, err := s.engraver.Score(title, lines)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-lilypond; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, editor.ErrNoSuchMeasure):
		return http.StatusNotFound
	case errors.Is(err, vexedit.ErrInvalidPitch),
		errors.Is(err, vexedit.ErrInvalidDuration),
		errors.Is(err, vexedit.ErrNoKeys):
		return http.StatusBadRequest
	case errors.Is(err, vexedit.ErrUnrepresentable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNothingToDo), errors.Is(err, errNoFile):
		return http.StatusConflict
	case errors.Is(err, editor.ErrNoScheduler):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
