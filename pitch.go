package vexedit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// Pitch is a single notehead key, written the VexFlow way: step letter,
	// optional accidental, slash, octave. "c/4" is middle C, "f#/5" the F
	// sharp above the treble staff.
	Pitch struct {
		Step       byte // 'a'..'g'
		Accidental string
		Octave     int
	}

	// Clef of the staff line a note is placed on.
	Clef int

	// StemDirection is shared by all the notes of a voice and forwarded to
	// beaming.
	StemDirection int
)

const (
	Treble Clef = iota
	Bass
	Alto
	Tenor
)

const (
	StemUp StemDirection = iota
	StemDown
)

var ErrInvalidPitch = errors.New("invalid pitch")

var clefNames = []string{"treble", "bass", "alto", "tenor"}
var stemNames = []string{"up", "down"}

var stepSemitones = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

var accidentalSemitones = map[string]int{"": 0, "n": 0, "#": 1, "##": 2, "b": -1, "bb": -2}

// ParsePitch parses a key such as "c/4", "eb/5" or "f##/3".
func ParsePitch(key string) (Pitch, error) {
	name, octave, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), "/")
	if !ok || len(name) == 0 {
		return Pitch{}, fmt.Errorf("%w: %q", ErrInvalidPitch, key)
	}
	p := Pitch{Step: name[0], Accidental: name[1:]}
	if _, ok := stepSemitones[p.Step]; !ok {
		return Pitch{}, fmt.Errorf("%w: unknown step in %q", ErrInvalidPitch, key)
	}
	if _, ok := accidentalSemitones[p.Accidental]; !ok {
		return Pitch{}, fmt.Errorf("%w: unknown accidental in %q", ErrInvalidPitch, key)
	}
	o, err := strconv.Atoi(octave)
	if err != nil || o < -1 || o > 9 {
		return Pitch{}, fmt.Errorf("%w: bad octave in %q", ErrInvalidPitch, key)
	}
	p.Octave = o
	return p, nil
}

// MustParsePitch panics if the key is malformed.
func MustParsePitch(key string) Pitch {
	p, err := ParsePitch(key)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pitch) String() string {
	return fmt.Sprintf("%c%s/%d", p.Step, p.Accidental, p.Octave)
}

// MIDI returns the MIDI key number, middle C (c/4) being 60.
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + stepSemitones[p.Step] + p.Alteration()
}

// Alteration returns the accidental in semitones.
func (p Pitch) Alteration() int {
	return accidentalSemitones[p.Accidental]
}

func (p Pitch) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pitch) UnmarshalText(text []byte) error {
	q, err := ParsePitch(string(text))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

func (c Clef) String() string {
	if c < 0 || int(c) >= len(clefNames) {
		return fmt.Sprintf("Clef(%d)", int(c))
	}
	return clefNames[c]
}

// ParseClef is the inverse of Clef.String.
func ParseClef(s string) (Clef, error) {
	for i, n := range clefNames {
		if strings.EqualFold(n, s) {
			return Clef(i), nil
		}
	}
	return Treble, fmt.Errorf("unknown clef %q", s)
}

func (c Clef) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clef) UnmarshalText(text []byte) error {
	v, err := ParseClef(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (s StemDirection) String() string {
	if s < 0 || int(s) >= len(stemNames) {
		return fmt.Sprintf("StemDirection(%d)", int(s))
	}
	return stemNames[s]
}

func (s StemDirection) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StemDirection) UnmarshalText(text []byte) error {
	for i, n := range stemNames {
		if strings.EqualFold(n, string(text)) {
			*s = StemDirection(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stem direction %q", text)
}
