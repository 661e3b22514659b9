package vexedit

import (
	"golang.org/x/exp/slices"
)

type (
	// Voice is the sequence of notes of one measure on one staff line.
	//
	// The first CommittedCount() tickables are committed: the user clicked
	// them into place. The rest are provisional, a preview of the note under
	// the cursor, and get replaced by every Append. Pending is true when the
	// voice has been mutated since the last Commit, i.e. when the tickables
	// have not been split at beat boundaries yet.
	//
	// A Voice is not safe for concurrent use; mutations and commits must be
	// serialized by the owner.
	Voice struct {
		time       TimeSignature
		tickables  []NoteEvent
		committed  int
		pending    bool
		stem       StemDirection
		beamGroups []Fraction
		ties       []Tie
	}

	// Committed is the result of Voice.Commit: the corrected sequence and the
	// ties between its fragments, as indices into Notes.
	Committed struct {
		Notes []NoteEvent `json:"notes"`
		Ties  []Tie       `json:"ties"`
	}
)

// NewVoice returns an empty, pending voice.
func NewVoice(ts TimeSignature, stem StemDirection) (*Voice, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return &Voice{
		time:       ts,
		pending:    true,
		stem:       stem,
		beamGroups: slices.Clone(DefaultBeamGroups),
	}, nil
}

// Append replaces the provisional notes with note. If the voice becomes
// overfull, the note is still appended, but styled as StyleOverflow so that
// the renderer can highlight it.
func (v *Voice) Append(note NoteEvent) {
	v.tickables = append(v.tickables[:v.committed], note.WithStyle(StyleNormal))
	if v.CapacityStatus().OverFull {
		v.tickables[len(v.tickables)-1] = note.WithStyle(StyleOverflow)
	}
	v.pending = true
}

// RemoveLast removes the most recent committed note, together with any
// provisional notes. Does nothing when there are no committed notes.
func (v *Voice) RemoveLast() {
	if v.committed == 0 {
		return
	}
	v.committed--
	v.tickables = v.tickables[:v.committed]
	v.pending = true
}

// DiscardProvisional removes the provisional notes, if any.
func (v *Voice) DiscardProvisional() {
	if len(v.tickables) > v.committed {
		v.tickables = v.tickables[:v.committed]
		v.pending = true
	}
}

// IsDuplicateOfPending reports whether one of the provisional notes already
// looks like note, in which case there is no need to append it again.
func (v *Voice) IsDuplicateOfPending(note NoteEvent) bool {
	for _, t := range v.tickables[v.committed:] {
		if t.SameAs(note) {
			return true
		}
	}
	return false
}

// CapacityStatus compares the summed length of all the tickables with the
// length of the measure. Both are rounded to 4 significant digits first.
func (v *Voice) CapacityStatus() Capacity {
	sum := 0.0
	for _, t := range v.tickables {
		sum += 1 / t.DoubleDuration()
	}
	sum = roundSignificant(sum, 4)
	capacity := roundSignificant(v.time.Capacity(), 4)
	return Capacity{Exact: sum == capacity, OverFull: sum > capacity}
}

// Commit splits the tickables at beat boundaries, if the voice is pending,
// and marks everything committed. Calling Commit again without mutating the
// voice returns the same result. On error the voice is left untouched.
func (v *Voice) Commit() (Committed, error) {
	if v.pending {
		notes, err := SplitBeats(v.time, v.tickables)
		if err != nil {
			return Committed{}, err
		}
		v.tickables = notes
		v.committed = len(notes)
		v.ties = Ties(notes)
		v.pending = false
	}
	return Committed{Notes: slices.Clone(v.tickables), Ties: slices.Clone(v.ties)}, nil
}

// Beams groups the current tickables into beams. Call it after Commit, it
// expects a corrected sequence.
func (v *Voice) Beams() []Beam {
	return BeamGroups(v.tickables, v.beamGroups, v.stem)
}

// Copy makes a deep copy of the voice.
func (v *Voice) Copy() *Voice {
	ret := *v
	ret.tickables = make([]NoteEvent, len(v.tickables))
	for i, t := range v.tickables {
		t.Keys = slices.Clone(t.Keys)
		ret.tickables[i] = t
	}
	ret.beamGroups = slices.Clone(v.beamGroups)
	ret.ties = slices.Clone(v.ties)
	return &ret
}

func (v *Voice) Time() TimeSignature {
	return v.time
}

func (v *Voice) Stem() StemDirection {
	return v.stem
}

func (v *Voice) Pending() bool {
	return v.pending
}

func (v *Voice) CommittedCount() int {
	return v.committed
}

func (v *Voice) Len() int {
	return len(v.tickables)
}

// Tickables returns a copy of all the notes, committed and provisional.
func (v *Voice) Tickables() []NoteEvent {
	return slices.Clone(v.tickables)
}

// Provisional returns a copy of the provisional notes.
func (v *Voice) Provisional() []NoteEvent {
	return slices.Clone(v.tickables[v.committed:])
}

// LastNote returns the most recent committed note.
func (v *Voice) LastNote() (NoteEvent, bool) {
	if v.committed == 0 {
		return NoteEvent{}, false
	}
	return v.tickables[v.committed-1], true
}

// Ties returns the ties found by the last Commit.
func (v *Voice) Ties() []Tie {
	return slices.Clone(v.ties)
}

func (v *Voice) BeamGroupFractions() []Fraction {
	return slices.Clone(v.beamGroups)
}

// SetBeamGroups changes the beam groups; nil restores DefaultBeamGroups.
func (v *Voice) SetBeamGroups(groups []Fraction) {
	if len(groups) == 0 {
		groups = DefaultBeamGroups
	}
	v.beamGroups = slices.Clone(groups)
}
