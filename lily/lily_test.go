package lily_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/lily"
)

func TestPitchText(t *testing.T) {
	tests := map[string]string{
		"c/4":   "c'",
		"f#/5":  "fis''",
		"bb/3":  "bes",
		"c/2":   "c,",
		"e##/4": "eisis'",
		"an/1":  "a,,",
	}
	for key, expected := range tests {
		text, err := lily.PitchText(vexedit.MustParsePitch(key))
		require.NoError(t, err)
		assert.Equal(t, expected, text, key)
	}
}

func TestDurationText(t *testing.T) {
	assert.Equal(t, "4.", lily.DurationText(vexedit.MustParseDuration("4d")))
	assert.Equal(t, "2..", lily.DurationText(vexedit.MustParseDuration("2dd")))
	assert.Equal(t, "8*2/3", lily.DurationText(vexedit.MustParseDuration("8t")))
}

func TestMaterialize(t *testing.T) {
	rest, err := vexedit.NewRest(vexedit.Treble, vexedit.MustParseDuration("8"))
	require.NoError(t, err)
	notes := []vexedit.NoteEvent{
		vexedit.MustNote(vexedit.Treble, "4", "c/4", "e/4"),
		rest,
		vexedit.MustNote(vexedit.Treble, "16", "g/5").WithStyle(vexedit.StyleOverflow),
	}
	elems, err := lily.NewRenderer().Materialize(notes, vexedit.Stave{Time: vexedit.CommonTime})
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, "<c' e'>4", elems[0].String())
	assert.Equal(t, "r8", elems[1].String())
	assert.Nil(t, elems[0].Color)
	require.NotNil(t, elems[2].Color)
	assert.True(t, strings.HasPrefix(elems[2].String(), `\tweak color #(rgb-color `))
	assert.True(t, strings.HasSuffix(elems[2].String(), "g''16"))
	for i, e := range elems {
		assert.Equal(t, notes[i].ID, e.Note.ID)
	}
}

func TestMaterializeRejectsNotesWithoutKeys(t *testing.T) {
	n := vexedit.MustNote(vexedit.Treble, "4", "c/4")
	n.Keys = nil
	_, err := lily.NewRenderer().Materialize([]vexedit.NoteEvent{n}, vexedit.Stave{})
	assert.ErrorIs(t, err, vexedit.ErrNoKeys)
}

func voiceOf(t *testing.T, ts vexedit.TimeSignature, notes ...vexedit.NoteEvent) *vexedit.Voice {
	t.Helper()
	v, err := vexedit.NewVoice(ts, vexedit.StemUp)
	require.NoError(t, err)
	for _, n := range notes {
		v.Append(n)
		_, err := v.Commit()
		require.NoError(t, err)
	}
	return v
}

func TestElementsMarkTiesAndBeams(t *testing.T) {
	v := voiceOf(t, vexedit.CommonTime,
		vexedit.MustNote(vexedit.Treble, "8", "c/4"),
		vexedit.MustNote(vexedit.Treble, "4d", "e/4"))
	elems, err := lily.NewRenderer().Elements(v, vexedit.Stave{Time: vexedit.CommonTime})
	require.NoError(t, err)
	var texts []string
	for _, e := range elems {
		texts = append(texts, e.String())
	}
	assert.Equal(t, []string{"c'8[", "e'8~]", "e'4"}, texts)
}

func TestElementsOfPendingVoice(t *testing.T) {
	v := voiceOf(t, vexedit.CommonTime, vexedit.MustNote(vexedit.Treble, "8", "c/4"))
	v.Append(vexedit.MustNote(vexedit.Treble, "2", "d/4"))
	elems, err := lily.NewRenderer().Elements(v, vexedit.Stave{})
	require.NoError(t, err)
	assert.Len(t, elems, 4, "the provisional half note is drawn split")
	assert.True(t, v.Pending(), "rendering does not commit the voice")
}

func TestScore(t *testing.T) {
	e, err := lily.New()
	require.NoError(t, err)
	waltz := vexedit.TimeSignature{NumBeats: 3, BeatValue: 4}
	lines := []lily.Line{
		{Voice: voiceOf(t, waltz, vexedit.MustNote(vexedit.Bass, "2d", "c/3")), Clef: vexedit.Bass},
		{Voice: voiceOf(t, waltz, vexedit.MustNote(vexedit.Bass, "2", "g/2")), Clef: vexedit.Bass},
	}
	out, err := e.Score("Waltz", lines)
	require.NoError(t, err)
	assert.Contains(t, out, `title = "Waltz"`)
	assert.Contains(t, out, `\stemUp`)
	assert.Equal(t, 1, strings.Count(out, `\clef bass`))
	assert.Equal(t, 1, strings.Count(out, `\time 3/4`))
	assert.Contains(t, out, "c4~ c4~ c4 | % 1\n")
	assert.Contains(t, out, "g,4~ g,4 | % 2: incomplete")
	assert.Contains(t, out, `\bar "|."`)
}

func TestScoreWithoutTitle(t *testing.T) {
	e, err := lily.New()
	require.NoError(t, err)
	out, err := e.Score("", nil)
	require.NoError(t, err)
	assert.Contains(t, out, `title = "Untitled"`)
}
