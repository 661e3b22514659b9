package playback

import (
	"time"

	"github.com/vexedit/vexedit"
)

type (
	// Event is a sounding note. Start and Length are in whole notes from the
	// start of the sequence. Tied fragments of a note are joined back into
	// one Event; rests produce none.
	Event struct {
		Start    float64
		Length   float64
		Keys     []vexedit.Pitch
		Velocity int
	}

	// Tempo converts whole notes to time. BPM counts quarter notes, the way
	// metronome marks usually do.
	Tempo struct {
		BPM int
	}
)

// Flatten turns a corrected sequence starting at start (in whole notes) into
// events. The ties of the sequence decide which fragments are joined.
func Flatten(notes []vexedit.NoteEvent, start float64, velocity int) []Event {
	tiedToPrevious := make(map[int]bool)
	for _, t := range vexedit.Ties(notes) {
		tiedToPrevious[t.LastNote] = true
	}
	var ret []Event
	pos := start
	for i, n := range notes {
		length := n.Duration.Whole()
		switch {
		case n.Rest:
		case tiedToPrevious[i] && len(ret) > 0:
			ret[len(ret)-1].Length += length
		default:
			ret = append(ret, Event{Start: pos, Length: length, Keys: n.Keys, Velocity: velocity})
		}
		pos += length
	}
	return ret
}

// Sequence flattens measures played one after another. Every measure takes
// the length of its time signature, whether it is full or not.
func Sequence(voices []*vexedit.Voice, velocity int) []Event {
	var ret []Event
	pos := 0.0
	for _, v := range voices {
		ret = append(ret, Flatten(v.Tickables()[:v.CommittedCount()], pos, velocity)...)
		pos += v.Time().Capacity()
	}
	return ret
}

// End returns the position where the last event stops sounding.
func End(events []Event) float64 {
	end := 0.0
	for _, e := range events {
		if e.Start+e.Length > end {
			end = e.Start + e.Length
		}
	}
	return end
}

// Whole returns the duration of one whole note.
func (t Tempo) Whole() time.Duration {
	bpm := t.BPM
	if bpm <= 0 {
		bpm = 120
	}
	return time.Duration(4 * 60 * float64(time.Second) / float64(bpm))
}

// At converts a position in whole notes to time.
func (t Tempo) At(wholes float64) time.Duration {
	return time.Duration(wholes * float64(t.Whole()))
}
