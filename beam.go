package vexedit

// Beam connects the notes First..Last (inclusive) of a corrected sequence.
type Beam struct {
	First int           `json:"first"`
	Last  int           `json:"last"`
	Stem  StemDirection `json:"stem"`
}

// DefaultBeamGroups beams eighths in half-note groups.
var DefaultBeamGroups = []Fraction{{Numerator: 4, Denominator: 8}}

// BeamGroups computes the beams of a corrected sequence. The measure is cut
// into windows by cycling through groups from the start of the measure; a
// beam is a maximal run of at least two consecutive beamable notes (eighths
// or shorter, no rests) that all lie inside one window. Empty or
// non-positive groups fall back to DefaultBeamGroups.
func BeamGroups(notes []NoteEvent, groups []Fraction, stem StemDirection) []Beam {
	windows := make([]float64, 0, len(groups))
	for _, g := range groups {
		if g.Numerator > 0 && g.Denominator > 0 {
			windows = append(windows, g.Value())
		}
	}
	if len(windows) == 0 {
		windows = append(windows, DefaultBeamGroups[0].Value())
	}
	var beams []Beam
	runStart := -1
	closeRun := func(last int) {
		if runStart >= 0 && last > runStart {
			beams = append(beams, Beam{First: runStart, Last: last, Stem: stem})
		}
		runStart = -1
	}
	pos := 0.0
	g := 0
	windowEnd := windows[0]
	for i, n := range notes {
		length := n.Duration.Whole()
		for pos >= windowEnd-beatEpsilon {
			closeRun(i - 1)
			g++
			windowEnd += windows[g%len(windows)]
		}
		inside := pos+length <= windowEnd+beatEpsilon
		if n.Rest || !n.Duration.Beamable() || !inside {
			closeRun(i - 1)
		} else if runStart < 0 {
			runStart = i
		}
		pos += length
	}
	closeRun(len(notes) - 1)
	return beams
}
