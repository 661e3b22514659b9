package editor_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/config"
	"github.com/vexedit/vexedit/editor"
	testingclock "k8s.io/utils/clock/testing"
)

type scheduled struct {
	time  vexedit.TimeSignature
	notes []vexedit.NoteEvent
}

type recordingScheduler struct {
	calls []scheduled
	err   error
}

func (r *recordingScheduler) Schedule(ts vexedit.TimeSignature, notes []vexedit.NoteEvent) error {
	r.calls = append(r.calls, scheduled{ts, notes})
	return r.err
}

func newModel(t testing.TB, cfg config.Config) (*editor.Model, *recordingScheduler, *testingclock.FakeClock) {
	t.Helper()
	s := &recordingScheduler{}
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	m, err := editor.NewModel(cfg, s, clk)
	require.NoError(t, err)
	return m, s, clk
}

func enter(t *testing.T, m *editor.Model, measure int, code, key string) {
	t.Helper()
	require.NoError(t, m.SetDuration(code))
	require.NoError(t, m.Hover(measure, vexedit.MustParsePitch(key)))
	require.NoError(t, m.Click())
}

func voice(t *testing.T, m *editor.Model, i int) *vexedit.Voice {
	t.Helper()
	v, _, err := m.Measure(i)
	require.NoError(t, err)
	return v
}

func TestNewModel(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Current())
	assert.Equal(t, "4", m.Duration().Code())
	assert.False(t, m.CanUndo())

	bad := config.Default()
	bad.BPM = 0
	_, err := editor.NewModel(bad, nil, nil)
	assert.Error(t, err)
}

func TestHoverAndClick(t *testing.T) {
	m, s, _ := newModel(t, config.Default())
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("c/4")))
	v := voice(t, m, 0)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, 0, v.CommittedCount())
	assert.Empty(t, s.calls, "hovering does not preview")

	require.NoError(t, m.Click())
	v = voice(t, m, 0)
	assert.Equal(t, 1, v.CommittedCount())
	assert.True(t, m.ChangedSinceSave())
	require.Len(t, s.calls, 1)
	assert.Len(t, s.calls[0].notes, 1)
	assert.Equal(t, vexedit.TimeSignature{}, s.calls[0].time, "a preview is not a whole measure")
}

func TestClickWithoutProvisionalNoteDoesNothing(t *testing.T) {
	m, s, _ := newModel(t, config.Default())
	require.NoError(t, m.Click())
	assert.Equal(t, 0, voice(t, m, 0).Len())
	assert.False(t, m.CanUndo())
	assert.Empty(t, s.calls)
}

func TestHoverSameNoteTwice(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	p := vexedit.MustParsePitch("e/4")
	require.NoError(t, m.Hover(0, p))
	first := voice(t, m, 0).Provisional()[0].ID
	require.NoError(t, m.Hover(0, p))
	prov := voice(t, m, 0).Provisional()
	require.Len(t, prov, 1)
	assert.Equal(t, first, prov[0].ID)
}

func TestHoverUnknownMeasure(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	assert.ErrorIs(t, m.Hover(3, vexedit.MustParsePitch("c/4")), editor.ErrNoSuchMeasure)
	assert.ErrorIs(t, m.HoverRest(-1), editor.ErrNoSuchMeasure)
}

func TestFullMeasureAddsNextMeasure(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	for _, k := range []string{"c/4", "d/4", "e/4"} {
		enter(t, m, 0, "4", k)
	}
	assert.Equal(t, 1, m.Len())
	enter(t, m, 0, "4", "f/4")
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Current())
	assert.Equal(t, vexedit.CommonTime, voice(t, m, 1).Time())
}

func TestMovingToAnotherMeasureDiscardsPendingNotes(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	_, err := m.AddMeasure()
	require.NoError(t, err)
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("c/4")))
	require.NoError(t, m.Hover(1, vexedit.MustParsePitch("c/4")))
	assert.Equal(t, 0, voice(t, m, 0).Len())
	assert.Equal(t, 1, voice(t, m, 1).Len())
	assert.Equal(t, 1, m.Current())
}

func TestOverfullMeasureRaisesAlert(t *testing.T) {
	m, _, clk := newModel(t, config.Default())
	enter(t, m, 0, "2", "c/4")
	enter(t, m, 0, "2", "d/4")
	require.Equal(t, 2, m.Len())
	assert.Equal(t, editor.None, m.Alerts().Highest())

	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("e/4")))
	v := voice(t, m, 0)
	assert.True(t, v.CapacityStatus().OverFull)
	assert.Equal(t, vexedit.StyleOverflow, v.Provisional()[0].Style)
	assert.Equal(t, editor.Warning, m.Alerts().Highest())
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("f/4")))
	assert.Len(t, m.Alerts().List(), 1, "the same alert is not repeated")

	clk.Step(10 * time.Second)
	assert.Equal(t, editor.None, m.Alerts().Highest())
}

func TestSetDurationReplacesPendingNote(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("g/4")))
	require.NoError(t, m.SetDuration("h"))
	prov := voice(t, m, 0).Provisional()
	require.Len(t, prov, 1)
	assert.Equal(t, "2", prov[0].Duration.Code())
	assert.Equal(t, "g/4", prov[0].Keys[0].String())

	assert.ErrorIs(t, m.SetDuration("5"), vexedit.ErrInvalidDuration)
	assert.Equal(t, "2", m.Duration().Code())
}

func TestPreviewPlaysAllFragmentsOfTheEnteredNote(t *testing.T) {
	m, s, _ := newModel(t, config.Default())
	enter(t, m, 0, "8", "c/4")
	enter(t, m, 0, "4d", "e/4")
	require.Len(t, s.calls, 2)
	last := s.calls[1].notes
	require.Len(t, last, 2)
	assert.Equal(t, last[0].Origin.ParentID, last[1].Origin.ParentID)
	assert.Len(t, voice(t, m, 0).Ties(), 1)
}

func TestPreviewErrorsAreNotFatal(t *testing.T) {
	m, s, _ := newModel(t, config.Default())
	s.err = errors.New("device busy")
	enter(t, m, 0, "4", "c/4")
	assert.Equal(t, 1, voice(t, m, 0).CommittedCount())
}

func TestUnrepresentableNoteIsRejected(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	enter(t, m, 0, "16t", "c/4")
	require.NoError(t, m.SetDuration("4"))
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("d/4")))
	assert.ErrorIs(t, m.Click(), vexedit.ErrUnrepresentable)
	assert.Equal(t, editor.Error, m.Alerts().Highest())
	v := voice(t, m, 0)
	assert.Equal(t, 1, v.CommittedCount())
	assert.Equal(t, 2, v.Len())
}

func TestBackspaceUndoRedo(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	enter(t, m, 0, "4", "c/4")
	enter(t, m, 0, "4", "d/4")
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("e/4")))

	require.NoError(t, m.Backspace())
	v := voice(t, m, 0)
	assert.Equal(t, 1, v.Len())
	assert.False(t, v.Pending())

	require.True(t, m.Undo())
	assert.Equal(t, 2, voice(t, m, 0).CommittedCount())
	require.True(t, m.Redo())
	assert.Equal(t, 1, voice(t, m, 0).CommittedCount())
	assert.False(t, m.Redo())

	for m.Undo() {
	}
	assert.Equal(t, 0, voice(t, m, 0).Len())
}

func TestBackspaceOnEmptyMeasure(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("c/4")))
	require.NoError(t, m.Backspace())
	assert.Equal(t, 0, voice(t, m, 0).Len())
	assert.False(t, m.CanUndo())
}

func TestUndoDepthIsBounded(t *testing.T) {
	cfg := config.Default()
	cfg.UndoDepth = 2
	m, _, _ := newModel(t, cfg)
	for _, k := range []string{"c/4", "d/4", "e/4"} {
		enter(t, m, 0, "8", k)
	}
	undos := 0
	for m.Undo() {
		undos++
	}
	assert.Equal(t, 2, undos)
	assert.Equal(t, 1, voice(t, m, 0).CommittedCount())
}

func TestPlay(t *testing.T) {
	m, s, _ := newModel(t, config.Default())
	for _, k := range []string{"c/4", "d/4", "e/4", "f/4", "g/4"} {
		enter(t, m, m.Current(), "4", k)
	}
	require.NoError(t, m.Hover(1, vexedit.MustParsePitch("a/4")))
	s.calls = nil
	require.NoError(t, m.Play())
	require.Len(t, s.calls, 2)
	assert.Equal(t, vexedit.CommonTime, s.calls[0].time)
	assert.Len(t, s.calls[0].notes, 4)
	assert.Len(t, s.calls[1].notes, 1, "provisional notes are not played")

	s.err = errors.New("unplugged")
	assert.Error(t, m.Play())

	silent, err := editor.NewModel(config.Default(), nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, silent.Play(), editor.ErrNoScheduler)
}

func TestKeyEvent(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	handled, err := m.KeyEvent(editor.KeyEvent{Name: "h"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "2", m.Duration().Code())

	_, err = m.KeyEvent(editor.KeyEvent{Name: "."})
	require.NoError(t, err)
	assert.Equal(t, "2d", m.Duration().Code())

	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("c/4")))
	_, err = m.KeyEvent(editor.KeyEvent{Name: "Enter"})
	require.NoError(t, err)
	assert.Equal(t, 3, voice(t, m, 0).CommittedCount(), "a dotted half is split into three tied quarters")

	_, err = m.KeyEvent(editor.KeyEvent{Name: "z", Ctrl: true})
	require.NoError(t, err)
	assert.Equal(t, 0, voice(t, m, 0).CommittedCount())

	handled, err = m.KeyEvent(editor.KeyEvent{Name: "F12"})
	assert.NoError(t, err)
	assert.False(t, handled)

	assert.Equal(t, "Ctrl+Z", editor.KeyHint("Undo"))
	assert.Error(t, m.Do("Dance"))
}

func TestRestKey(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	_, err := m.KeyEvent(editor.KeyEvent{Name: "R"})
	require.NoError(t, err)
	require.NoError(t, m.Click())
	notes := voice(t, m, 0).Tickables()
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Rest)
}

func TestMeasuresRoundTrip(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	enter(t, m, 0, "8", "c/4")
	enter(t, m, 0, "2", "e/4")
	require.NoError(t, m.SetClef(0, vexedit.Bass))
	saved := m.Measures()
	require.Len(t, saved, 1)
	assert.Equal(t, vexedit.Bass, saved[0].Clef)

	other, _, _ := newModel(t, config.Default())
	require.NoError(t, other.LoadMeasures(saved))
	v := voice(t, other, 0)
	assert.Equal(t, voice(t, m, 0).Len(), v.Len())
	assert.Len(t, v.Ties(), 2)
	_, clef, err := other.Measure(0)
	require.NoError(t, err)
	assert.Equal(t, vexedit.Bass, clef)

	assert.Error(t, other.LoadMeasures(nil))
}

func TestSetClefRepeatsAreUndoneTogether(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	require.NoError(t, m.SetClef(0, vexedit.Bass))
	require.NoError(t, m.SetClef(0, vexedit.Alto))
	_, clef, err := m.Measure(0)
	require.NoError(t, err)
	assert.Equal(t, vexedit.Alto, clef)

	require.True(t, m.Undo())
	_, clef, err = m.Measure(0)
	require.NoError(t, err)
	assert.Equal(t, vexedit.Treble, clef)
	assert.False(t, m.CanUndo())

	require.True(t, m.Redo())
	enter(t, m, 0, "4", "c/4")
	require.NoError(t, m.SetClef(0, vexedit.Bass))
	require.True(t, m.Undo())
	_, clef, err = m.Measure(0)
	require.NoError(t, err)
	assert.Equal(t, vexedit.Alto, clef, "a clef change after another change is undone on its own")
}

func TestLoadMeasuresClearsAlerts(t *testing.T) {
	m, _, _ := newModel(t, config.Default())
	enter(t, m, 0, "1", "c/4")
	require.NoError(t, m.Hover(0, vexedit.MustParsePitch("d/4")))
	require.Equal(t, editor.Warning, m.Alerts().Highest())

	require.NoError(t, m.LoadMeasures([]vexedit.Measure{{Time: vexedit.CommonTime}}))
	assert.Empty(t, m.Alerts().List())
	assert.Equal(t, 1, m.Len())
}

// FuzzModel performs random sequences of editing operations and checks that
// the model stays consistent.
func FuzzModel(f *testing.F) {
	f.Add([]byte{0, 2, 4, 6, 1, 3, 5, 7})
	actions := []string{"DurationWhole", "DurationHalf", "DurationQuarter", "DurationEighth", "DurationSixteenth",
		"ToggleDot", "ToggleTriplet", "Rest", "Click", "Backspace", "RemovePendingNotes", "AddMeasure", "Undo", "Redo"}
	keys := []string{"c/4", "e/4", "g/4", "b/3", "f#/5"}
	f.Fuzz(func(t *testing.T, data []byte) {
		m, _, _ := newModel(t, config.Default())
		reader := bytes.NewReader(data)
		for n, err := binary.ReadVarint(reader); err == nil; n, err = binary.ReadVarint(reader) {
			seed := int(uint64(n) % 1024)
			if seed%3 == 0 {
				m.Hover(seed%m.Len(), vexedit.MustParsePitch(keys[seed%len(keys)]))
			} else {
				m.Do(actions[seed%len(actions)])
			}
			if m.Current() < 0 || m.Current() >= m.Len() {
				t.Fatalf("current measure %d out of range [0,%d)", m.Current(), m.Len())
			}
			for i := 0; i < m.Len(); i++ {
				v, _, err := m.Measure(i)
				if err != nil {
					t.Fatal(err)
				}
				if v.CommittedCount() > v.Len() {
					t.Fatalf("measure %d: %d committed of %d", i, v.CommittedCount(), v.Len())
				}
				if v.Pending() {
					continue
				}
				if _, err := vexedit.ResolveTies(v.Ties(), v.Tickables()); err != nil {
					t.Fatalf("measure %d: %v", i, err)
				}
			}
		}
	})
}
