package lily

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/vexedit/vexedit"
)

type (
	// Element is one note or rest of a voice, as LilyPond source. The tie
	// and beam marks are filled in after materialization, once the ties have
	// been resolved against the elements.
	Element struct {
		Note      vexedit.NoteEvent
		Text      string
		Color     *colorful.Color
		Tie       bool
		BeamStart bool
		BeamEnd   bool
	}

	// Renderer materializes notes into Elements. Notes styled as overflow
	// get the Overflow colour.
	Renderer struct {
		Overflow colorful.Color
	}
)

// DefaultOverflow is the warning red used for notes that do not fit their
// measure.
var DefaultOverflow = colorful.Hsv(0, 0.8, 0.85)

func NewRenderer() *Renderer {
	return &Renderer{Overflow: DefaultOverflow}
}

// Materialize implements vexedit.Renderer.
func (r *Renderer) Materialize(notes []vexedit.NoteEvent, stave vexedit.Stave) ([]*Element, error) {
	ret := make([]*Element, len(notes))
	for i, n := range notes {
		text, err := noteText(n)
		if err != nil {
			return nil, fmt.Errorf("stave %d, note %d: %w", stave.Index, i, err)
		}
		e := &Element{Note: n, Text: text}
		if n.Style == vexedit.StyleOverflow {
			c := r.Overflow
			e.Color = &c
		}
		ret[i] = e
	}
	return ret, nil
}

// String returns the element with its colour, tie and beam marks.
func (e *Element) String() string {
	var b strings.Builder
	if e.Color != nil {
		c := e.Color.Clamped()
		fmt.Fprintf(&b, `\tweak color #(rgb-color %.3f %.3f %.3f) `, c.R, c.G, c.B)
	}
	b.WriteString(e.Text)
	if e.Tie {
		b.WriteString("~")
	}
	if e.BeamStart {
		b.WriteString("[")
	}
	if e.BeamEnd {
		b.WriteString("]")
	}
	return b.String()
}

// Elements materializes the notes of a voice and marks its ties and beams on
// them. A pending voice is committed on a copy first; if that fails, the
// notes are drawn as entered, without ties or beams.
func (r *Renderer) Elements(v *vexedit.Voice, stave vexedit.Stave) ([]*Element, error) {
	if v.Pending() {
		c := v.Copy()
		if _, err := c.Commit(); err != nil {
			return r.Materialize(v.Tickables(), stave)
		}
		v = c
	}
	elems, err := r.Materialize(v.Tickables(), stave)
	if err != nil {
		return nil, err
	}
	ties, err := vexedit.ResolveTies(v.Ties(), elems)
	if err != nil {
		return nil, err
	}
	for _, t := range ties {
		t.First.Tie = true
	}
	for _, b := range v.Beams() {
		elems[b.First].BeamStart = true
		elems[b.Last].BeamEnd = true
	}
	return elems, nil
}

var accidentals = map[string]string{"": "", "n": "", "#": "is", "##": "isis", "b": "es", "bb": "eses"}

// PitchText writes the pitch in LilyPond's absolute mode, where c' is
// middle C.
func PitchText(p vexedit.Pitch) (string, error) {
	acc, ok := accidentals[p.Accidental]
	if !ok {
		return "", fmt.Errorf("%w: %v", vexedit.ErrInvalidPitch, p)
	}
	marks := ""
	switch o := p.Octave - 3; {
	case o > 0:
		marks = strings.Repeat("'", o)
	case o < 0:
		marks = strings.Repeat(",", -o)
	}
	return string(p.Step) + acc + marks, nil
}

// DurationText writes the duration; triplets use a 2/3 duration multiplier.
func DurationText(d vexedit.Duration) string {
	ret := fmt.Sprint(d.Value) + strings.Repeat(".", d.Dots)
	if d.Triplet {
		ret += "*2/3"
	}
	return ret
}

func noteText(n vexedit.NoteEvent) (string, error) {
	if err := n.Duration.Validate(); err != nil {
		return "", err
	}
	dur := DurationText(n.Duration)
	if n.Rest {
		return "r" + dur, nil
	}
	if len(n.Keys) == 0 {
		return "", vexedit.ErrNoKeys
	}
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		t, err := PitchText(k)
		if err != nil {
			return "", err
		}
		keys[i] = t
	}
	if len(keys) == 1 {
		return keys[0] + dur, nil
	}
	return "<" + strings.Join(keys, " ") + ">" + dur, nil
}
