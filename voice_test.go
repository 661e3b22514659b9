package vexedit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vexedit/vexedit"
)

func quarter(key string) vexedit.NoteEvent {
	return vexedit.MustNote(vexedit.Treble, "4", key)
}

func newVoice(t *testing.T, ts vexedit.TimeSignature) *vexedit.Voice {
	t.Helper()
	v, err := vexedit.NewVoice(ts, vexedit.StemUp)
	require.NoError(t, err)
	return v
}

// click appends the note and commits it, like clicking it into the staff.
func click(t *testing.T, v *vexedit.Voice, n vexedit.NoteEvent) vexedit.Committed {
	t.Helper()
	v.Append(n)
	c, err := v.Commit()
	require.NoError(t, err)
	return c
}

func TestNewVoiceRejectsInvalidTimeSignature(t *testing.T) {
	_, err := vexedit.NewVoice(vexedit.TimeSignature{NumBeats: 4, BeatValue: 0}, vexedit.StemUp)
	assert.ErrorIs(t, err, vexedit.ErrInvalidTimeSignature)
	_, err = vexedit.NewVoice(vexedit.TimeSignature{NumBeats: 0, BeatValue: 4}, vexedit.StemUp)
	assert.ErrorIs(t, err, vexedit.ErrInvalidTimeSignature)
}

func TestNewVoiceIsEmptyAndPending(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	assert.True(t, v.Pending())
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0, v.CommittedCount())
	assert.Equal(t, vexedit.Capacity{}, v.CapacityStatus())
}

func TestThreeQuartersAreUnderfull(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	for _, k := range []string{"c/4", "d/4", "e/4"} {
		click(t, v, quarter(k))
	}
	assert.Equal(t, vexedit.Capacity{Exact: false, OverFull: false}, v.CapacityStatus())
}

func TestFourQuartersAreExactAndNotSplit(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	var c vexedit.Committed
	for _, k := range []string{"c/4", "d/4", "e/4", "f/4"} {
		c = click(t, v, quarter(k))
	}
	assert.Equal(t, vexedit.Capacity{Exact: true, OverFull: false}, v.CapacityStatus())
	require.Len(t, c.Notes, 4)
	assert.Empty(t, c.Ties)
	for _, n := range c.Notes {
		assert.False(t, n.Origin.Fragment)
		assert.Equal(t, vexedit.StyleNormal, n.Style)
	}
}

func TestFifthQuarterIsFlaggedButAppended(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	for _, k := range []string{"c/4", "d/4", "e/4", "f/4"} {
		click(t, v, quarter(k))
	}
	v.Append(quarter("g/4"))
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, vexedit.Capacity{Exact: false, OverFull: true}, v.CapacityStatus())
	notes := v.Tickables()
	assert.Equal(t, vexedit.StyleOverflow, notes[4].Style)
	for _, n := range notes[:4] {
		assert.Equal(t, vexedit.StyleNormal, n.Style)
	}
	c, err := v.Commit()
	require.NoError(t, err)
	assert.Len(t, c.Notes, 5)
	assert.Equal(t, 5, v.CommittedCount())
}

func TestRemoveLastOnEmptyVoiceIsNoop(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	_, err := v.Commit()
	require.NoError(t, err)
	v.RemoveLast()
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 0, v.CommittedCount())
	assert.False(t, v.Pending())
}

func TestRemoveLastDropsCommittedAndProvisional(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	first := quarter("c/4")
	click(t, v, first)
	click(t, v, quarter("d/4"))
	v.Append(quarter("e/4"))

	v.RemoveLast()
	assert.True(t, v.Pending())
	assert.Equal(t, 1, v.CommittedCount())
	require.Equal(t, 1, v.Len())
	assert.Equal(t, first.ID, v.Tickables()[0].ID)
}

func TestAppendReplacesProvisionalNotes(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, quarter("c/4"))
	v.Append(quarter("d/4"))
	v.Append(quarter("e/4"))
	assert.Equal(t, 2, v.Len())
	prov := v.Provisional()
	require.Len(t, prov, 1)
	assert.True(t, prov[0].SameAs(quarter("e/4")))
}

func TestIsDuplicateOfPending(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	assert.False(t, v.IsDuplicateOfPending(quarter("c/4")))

	v.Append(quarter("c/4"))
	assert.True(t, v.IsDuplicateOfPending(quarter("c/4")))
	assert.False(t, v.IsDuplicateOfPending(quarter("d/4")))
	assert.False(t, v.IsDuplicateOfPending(vexedit.MustNote(vexedit.Treble, "8", "c/4")))
	assert.False(t, v.IsDuplicateOfPending(vexedit.MustNote(vexedit.Bass, "4", "c/4")))

	_, err := v.Commit()
	require.NoError(t, err)
	assert.False(t, v.IsDuplicateOfPending(quarter("c/4")), "committed notes are not pending")
}

func TestCommitIsIdempotent(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, vexedit.MustNote(vexedit.Treble, "8", "c/4"))
	v.Append(vexedit.MustNote(vexedit.Treble, "2", "d/4"))
	first, err := v.Commit()
	require.NoError(t, err)
	assert.False(t, v.Pending())
	second, err := v.Commit()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMutationMakesVoicePendingAgain(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, quarter("c/4"))
	assert.False(t, v.Pending())
	v.Append(quarter("d/4"))
	assert.True(t, v.Pending())
	_, err := v.Commit()
	require.NoError(t, err)
	v.RemoveLast()
	assert.True(t, v.Pending())
}

func TestDottedQuarterOffTheBeatIsTied(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, vexedit.MustNote(vexedit.Treble, "8", "c/4"))
	dotted := vexedit.MustNote(vexedit.Treble, "4d", "e/4", "g/4")
	c := click(t, v, dotted)

	require.Len(t, c.Notes, 3)
	assert.Equal(t, "8", c.Notes[1].Duration.Code())
	assert.Equal(t, "4", c.Notes[2].Duration.Code())
	for _, n := range c.Notes[1:] {
		assert.True(t, n.Origin.Fragment)
		assert.Equal(t, dotted.ID, n.Origin.ParentID)
		assert.Equal(t, dotted.Keys, n.Keys)
	}
	require.Len(t, c.Ties, 1)
	assert.Equal(t, vexedit.Tie{FirstNote: 1, LastNote: 2, FirstIndices: []int{0, 1}, LastIndices: []int{0, 1}}, c.Ties[0])
	assert.Equal(t, vexedit.Capacity{}, v.CapacityStatus())
}

func TestTiesSurviveLaterCommits(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, vexedit.MustNote(vexedit.Treble, "8", "c/4"))
	click(t, v, vexedit.MustNote(vexedit.Treble, "4d", "e/4"))
	c := click(t, v, quarter("f/4"))
	require.Len(t, c.Notes, 4)
	assert.Len(t, c.Ties, 1)
}

func TestCommitErrorLeavesVoiceUntouched(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, vexedit.MustNote(vexedit.Treble, "16t", "c/4"))
	v.Append(quarter("d/4"))
	before := v.Tickables()
	_, err := v.Commit()
	assert.ErrorIs(t, err, vexedit.ErrUnrepresentable)
	assert.True(t, v.Pending())
	assert.Equal(t, before, v.Tickables())
	assert.Equal(t, 1, v.CommittedCount())
}

func TestTripletsFillTheMeasureExactly(t *testing.T) {
	v := newVoice(t, vexedit.TimeSignature{NumBeats: 2, BeatValue: 4})
	for _, k := range []string{"c/4", "d/4", "e/4"} {
		click(t, v, vexedit.MustNote(vexedit.Treble, "4t", k))
	}
	assert.Equal(t, vexedit.Capacity{Exact: true}, v.CapacityStatus())
}

func TestCopyIsIndependent(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	click(t, v, quarter("c/4"))
	cp := v.Copy()
	click(t, v, quarter("d/4"))
	assert.Equal(t, 1, cp.Len())
	assert.Equal(t, 2, v.Len())
}

func TestLastNote(t *testing.T) {
	v := newVoice(t, vexedit.CommonTime)
	_, ok := v.LastNote()
	assert.False(t, ok)
	n := quarter("a/4")
	click(t, v, n)
	v.Append(quarter("b/4"))
	last, ok := v.LastNote()
	require.True(t, ok)
	assert.Equal(t, n.ID, last.ID)
}
