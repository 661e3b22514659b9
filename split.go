package vexedit

import (
	"fmt"
	"math"
)

// SplitBeats rewrites a measure so that no note crosses a beat boundary. It
// walks the notes with the running position currentBeatLocation (in beats)
// and beatNum, the last beat boundary reached. A note that ends past the next
// boundary is replaced by fragments with the same keys: first the part up to
// the boundary, then whole beats, then whatever is left. A note that ends
// exactly on the boundary is kept as is. Notes following the last beat of
// the measure are copied unchanged.
//
// The input is not modified. Fragments refer to the note they were cut from
// through their Origin, which is what Ties uses to connect them. The measure
// length is not checked here; see Voice.CapacityStatus.
func SplitBeats(ts TimeSignature, notes []NoteEvent) ([]NoteEvent, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	out := make([]NoteEvent, 0, len(notes))
	currentBeatLocation := 0.0
	beatNum := 0
	i := 0
	for ; i < len(notes) && beatNum < ts.NumBeats; i++ {
		note := notes[i]
		if err := note.Duration.Validate(); err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
		noteBeatDuration := note.Duration.Beats(ts.BeatValue)
		end := currentBeatLocation + noteBeatDuration
		if floorBeat(end) > beatNum {
			boundary := float64(beatNum + 1)
			secondSectionBeats := end - boundary
			firstSectionBeats := noteBeatDuration - secondSectionBeats
			if secondSectionBeats > beatEpsilon && firstSectionBeats > beatEpsilon {
				fragments, err := splitNote(note, ts.BeatValue, firstSectionBeats, secondSectionBeats)
				if err != nil {
					return nil, fmt.Errorf("note %d at beat %g: %w", i, currentBeatLocation, err)
				}
				out = append(out, fragments...)
			} else {
				out = append(out, note)
			}
			beatNum = floorBeat(end)
		} else {
			out = append(out, note)
		}
		currentBeatLocation = end
	}
	return append(out, notes[i:]...), nil
}

// splitNote cuts note into pieces of first, then min(1, remaining) beats
// until second beats have been consumed.
func splitNote(note NoteEvent, beatValue int, first, second float64) ([]NoteEvent, error) {
	pieces := []float64{first}
	for rest := second; rest > beatEpsilon; {
		p := math.Min(rest, 1)
		pieces = append(pieces, p)
		rest -= p
	}
	ret := make([]NoteEvent, len(pieces))
	for k, beats := range pieces {
		d, err := DurationForBeats(beatValue, beats)
		if err != nil {
			return nil, err
		}
		ret[k] = note.fragment(d, k)
	}
	return ret, nil
}

func floorBeat(x float64) int {
	return int(math.Floor(x + beatEpsilon))
}

// Ties finds the ties of a corrected sequence: every pair of adjacent
// fragments cut from the same note is tied, key by key. Rests are never
// tied.
func Ties(notes []NoteEvent) []Tie {
	var ret []Tie
	for i := 0; i+1 < len(notes); i++ {
		a, b := notes[i], notes[i+1]
		if a.Rest || b.Rest || !a.Origin.Fragment || !b.Origin.Fragment {
			continue
		}
		if a.Origin.ParentID != b.Origin.ParentID {
			continue
		}
		ret = append(ret, Tie{
			FirstNote:    i,
			LastNote:     i + 1,
			FirstIndices: keyIndices(len(a.Keys)),
			LastIndices:  keyIndices(len(b.Keys)),
		})
	}
	return ret
}

func keyIndices(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}
