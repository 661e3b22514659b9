package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/config"
	"github.com/vexedit/vexedit/logger"
	"k8s.io/utils/clock"
)

// Model implements the mutable state of the score editor: a system of
// measures, one voice each, edited by hovering a pitch over a measure and
// clicking it into place.
//
// Model is not safe for concurrent use. It is owned by one goroutine (a UI
// loop, or the HTTP server holding a lock).
type (
	modelData struct {
		Measures []*vexedit.Voice
		Clefs    []vexedit.Clef
		Current  int
		Duration vexedit.Duration
		// Hovered is the pitch of the provisional note, so that it can be
		// placed again when the duration changes.
		Hovered          *vexedit.Pitch
		ChangedSinceSave bool
	}

	Model struct {
		d            modelData
		undoStack    []modelData
		redoStack    []modelData
		prevUndoKind string
		alerts       []Alert

		cfg       config.Config
		scheduler vexedit.AudioScheduler
		clock     clock.Clock
		log       *logrus.Logger
	}
)

var (
	ErrNoSuchMeasure = errors.New("no such measure")
	ErrNoScheduler   = errors.New("no audio scheduler")
)

// NewModel returns a model with one empty measure using the defaults of
// cfg. scheduler may be nil, in which case nothing is previewed.
func NewModel(cfg config.Config, scheduler vexedit.AudioScheduler, clk clock.Clock) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	m := &Model{cfg: cfg, scheduler: scheduler, clock: clk, log: logger.GetProjectLogger()}
	m.d.Duration = cfg.Duration
	if _, err := m.addMeasure(cfg.Time, cfg.Clef); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *modelData) Copy() modelData {
	ret := *d
	ret.Measures = make([]*vexedit.Voice, len(d.Measures))
	for i, v := range d.Measures {
		ret.Measures[i] = v.Copy()
	}
	ret.Clefs = append([]vexedit.Clef(nil), d.Clefs...)
	if d.Hovered != nil {
		p := *d.Hovered
		ret.Hovered = &p
	}
	return ret
}

// Len returns the number of measures.
func (m *Model) Len() int {
	return len(m.d.Measures)
}

// Current returns the index of the measure being edited.
func (m *Model) Current() int {
	return m.d.Current
}

func (m *Model) Duration() vexedit.Duration {
	return m.d.Duration
}

func (m *Model) ChangedSinceSave() bool {
	return m.d.ChangedSinceSave
}

func (m *Model) SetChangedSinceSave(value bool) {
	m.d.ChangedSinceSave = value
}

func (m *Model) Scheduler() vexedit.AudioScheduler {
	return m.scheduler
}

// SetScheduler replaces the scheduler used for previews and Play. nil turns
// audio off.
func (m *Model) SetScheduler(s vexedit.AudioScheduler) {
	m.scheduler = s
}

// Measure returns a copy of the voice of measure i and its clef.
func (m *Model) Measure(i int) (*vexedit.Voice, vexedit.Clef, error) {
	if i < 0 || i >= len(m.d.Measures) {
		return nil, vexedit.Treble, fmt.Errorf("%w: %d", ErrNoSuchMeasure, i)
	}
	return m.d.Measures[i].Copy(), m.d.Clefs[i], nil
}

// Select makes measure i the current one, discarding the provisional notes of
// the previous current measure.
func (m *Model) Select(i int) error {
	if i < 0 || i >= len(m.d.Measures) {
		return fmt.Errorf("%w: %d", ErrNoSuchMeasure, i)
	}
	if i != m.d.Current {
		m.RemovePendingNotes()
		m.d.Current = i
	}
	return nil
}

// Hover places a provisional note of the current duration on measure i.
// Moving to another measure first discards the provisional notes of the
// measure left behind. Hovering the same note again does nothing.
func (m *Model) Hover(i int, p vexedit.Pitch) error {
	if err := m.Select(i); err != nil {
		return err
	}
	note, err := vexedit.NewNote(m.d.Clefs[i], m.d.Duration, p)
	if err != nil {
		return err
	}
	pitch := p
	m.d.Hovered = &pitch
	v := m.d.Measures[i]
	if v.IsDuplicateOfPending(note) {
		return nil
	}
	v.Append(note)
	if v.CapacityStatus().OverFull {
		m.Alerts().AddNamed("MeasureFull", fmt.Sprintf("Measure %d is full", i+1), Warning)
	}
	return nil
}

// HoverRest places a provisional rest of the current duration on measure i.
func (m *Model) HoverRest(i int) error {
	if err := m.Select(i); err != nil {
		return err
	}
	rest, err := vexedit.NewRest(m.d.Clefs[i], m.d.Duration)
	if err != nil {
		return err
	}
	m.d.Hovered = nil
	if v := m.d.Measures[i]; !v.IsDuplicateOfPending(rest) {
		v.Append(rest)
	}
	return nil
}

// Click commits the provisional note of the current measure. The committed
// note is previewed through the scheduler. When the last measure becomes
// full, a new empty measure is added after it and becomes the current one.
func (m *Model) Click() error {
	i := m.d.Current
	v := m.d.Measures[i]
	if v.Len() == v.CommittedCount() {
		return nil
	}
	snapshot := m.d.Copy()
	snapshot.Measures[i].DiscardProvisional()
	if _, err := snapshot.Measures[i].Commit(); err != nil {
		return fmt.Errorf("measure %d: %w", i+1, err)
	}
	snapshot.Hovered = nil
	committed, err := v.Commit()
	if err != nil {
		m.Alerts().Add(fmt.Sprintf("Cannot place the note: %v", err), Error)
		return err
	}
	m.pushUndo("Click", snapshot)
	m.d.ChangedSinceSave = true
	m.d.Hovered = nil
	m.log.WithFields(logrus.Fields{"measure": i + 1, "notes": len(committed.Notes), "ties": len(committed.Ties)}).Debug("commit")
	if last, ok := v.LastNote(); ok {
		m.preview(committed.Notes, last.Root())
	}
	capacity := v.CapacityStatus()
	if (capacity.Exact || capacity.OverFull) && i == len(m.d.Measures)-1 {
		j, err := m.addMeasure(v.Time(), m.d.Clefs[i])
		if err != nil {
			return err
		}
		m.d.Measures[j].SetBeamGroups(v.BeamGroupFractions())
		m.d.Current = j
	}
	return nil
}

// Backspace removes the most recently committed note of the current measure,
// along with any provisional notes.
func (m *Model) Backspace() error {
	v := m.d.Measures[m.d.Current]
	if v.CommittedCount() == 0 {
		m.RemovePendingNotes()
		return nil
	}
	m.saveUndo("Backspace")
	v.RemoveLast()
	if _, err := v.Commit(); err != nil {
		return err
	}
	m.d.ChangedSinceSave = true
	return nil
}

// RemovePendingNotes discards the provisional notes of the current measure.
func (m *Model) RemovePendingNotes() {
	v := m.d.Measures[m.d.Current]
	v.DiscardProvisional()
	if v.CommittedCount() == v.Len() && v.Pending() {
		if _, err := v.Commit(); err != nil {
			m.log.WithError(err).WithField("measure", m.d.Current+1).Error("could not commit the remaining notes")
		}
	}
	m.d.Hovered = nil
}

// SetDuration changes the duration of the notes to be entered. A provisional
// note already placed is replaced by one with the new duration.
func (m *Model) SetDuration(code string) error {
	d, err := vexedit.ParseDuration(code)
	if err != nil {
		return err
	}
	m.d.Duration = d
	if m.d.Hovered != nil && m.d.Measures[m.d.Current].Len() > m.d.Measures[m.d.Current].CommittedCount() {
		return m.Hover(m.d.Current, *m.d.Hovered)
	}
	return nil
}

// SetClef changes the clef of measure i. The notes keep their pitches.
// Changing the clef of the same measure again is undone in one step.
func (m *Model) SetClef(i int, clef vexedit.Clef) error {
	if i < 0 || i >= len(m.d.Measures) {
		return fmt.Errorf("%w: %d", ErrNoSuchMeasure, i)
	}
	m.saveUndoOnce(fmt.Sprintf("SetClef%d", i))
	m.d.Clefs[i] = clef
	m.d.ChangedSinceSave = true
	return nil
}

// AddMeasure appends an empty measure with the time signature and clef of
// the last one and returns its index.
func (m *Model) AddMeasure() (int, error) {
	m.saveUndo("AddMeasure")
	last := len(m.d.Measures) - 1
	return m.addMeasure(m.d.Measures[last].Time(), m.d.Clefs[last])
}

func (m *Model) addMeasure(ts vexedit.TimeSignature, clef vexedit.Clef) (int, error) {
	v, err := vexedit.NewVoice(ts, m.cfg.Stem)
	if err != nil {
		return 0, err
	}
	v.SetBeamGroups(m.cfg.BeamGroups)
	m.d.Measures = append(m.d.Measures, v)
	m.d.Clefs = append(m.d.Clefs, clef)
	return len(m.d.Measures) - 1, nil
}

// Play schedules the committed notes of every measure, in order.
func (m *Model) Play() error {
	if m.scheduler == nil {
		return ErrNoScheduler
	}
	for i, v := range m.d.Measures {
		notes := v.Tickables()[:v.CommittedCount()]
		if err := m.scheduler.Schedule(v.Time(), notes); err != nil {
			m.Alerts().AddNamed("PlaybackError", fmt.Sprintf("Playback failed: %v", err), Error)
			return fmt.Errorf("measure %d: %w", i+1, err)
		}
	}
	return nil
}

// preview plays the fragments of the note root, i.e. the note just entered.
// They are not a measure, so they go out with the zero time signature.
func (m *Model) preview(notes []vexedit.NoteEvent, root uuid.UUID) {
	if m.scheduler == nil {
		return
	}
	var fragments []vexedit.NoteEvent
	for _, n := range notes {
		if n.Root() == root {
			fragments = append(fragments, n)
		}
	}
	if err := m.scheduler.Schedule(vexedit.TimeSignature{}, fragments); err != nil {
		m.log.WithError(err).Warn("preview failed")
	}
}

// Measures returns the score as measure descriptions, ready to be saved.
func (m *Model) Measures() []vexedit.Measure {
	ret := make([]vexedit.Measure, len(m.d.Measures))
	for i, v := range m.d.Measures {
		ret[i] = vexedit.MeasureOf(v, m.d.Clefs[i])
	}
	return ret
}

// LoadMeasures replaces the score and clears the alerts. The undo history is
// kept, so loading can be undone.
func (m *Model) LoadMeasures(measures []vexedit.Measure) error {
	if len(measures) == 0 {
		return errors.New("a score needs at least one measure")
	}
	d := modelData{Duration: m.d.Duration}
	for i := range measures {
		v, err := measures[i].Voice()
		if err != nil {
			return fmt.Errorf("measure %d: %w", i+1, err)
		}
		d.Measures = append(d.Measures, v)
		d.Clefs = append(d.Clefs, measures[i].Clef)
	}
	m.saveUndo("LoadMeasures")
	m.d = d
	m.Alerts().Clear()
	return nil
}
