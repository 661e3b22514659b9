package vexedit

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type (
	// NoteEvent is a note or a rest occupying time in a voice. NoteEvents are
	// values: the editing operations never change the duration of an existing
	// event, splitting creates new events instead.
	NoteEvent struct {
		ID       uuid.UUID `yaml:"-" json:"id"`
		Keys     []Pitch   `yaml:",flow,omitempty" json:"keys,omitempty"`
		Clef     Clef      `yaml:",omitempty" json:"clef"`
		Duration Duration  `json:"duration"`
		Rest     bool      `yaml:",omitempty" json:"rest,omitempty"`
		Style    Style     `yaml:"-" json:"style"`
		Origin   Origin    `yaml:"-" json:"origin"`
	}

	// Style is the rendering status of a note. Overflow marks a note that
	// made its measure overfull; the renderer paints it in a warning colour.
	Style int

	// Origin tells where a NoteEvent came from: either it was entered by the
	// user, or it is the Index:th fragment of the note ParentID that was cut
	// at beat boundaries. If Go had sum types, this would be one; in absence
	// of those, the Fragment boolean tells which variant is in use.
	Origin struct {
		Fragment bool      `json:"fragment,omitempty"`
		ParentID uuid.UUID `json:"parent_id,omitempty"`
		Index    int       `json:"index,omitempty"`
	}
)

const (
	StyleNormal Style = iota
	StyleOverflow
)

var ErrNoKeys = errors.New("a note needs at least one key")

// NewNote creates a note with a fresh identity. The keys are copied.
func NewNote(clef Clef, d Duration, keys ...Pitch) (NoteEvent, error) {
	if err := d.Validate(); err != nil {
		return NoteEvent{}, err
	}
	if len(keys) == 0 {
		return NoteEvent{}, ErrNoKeys
	}
	return NoteEvent{
		ID:       uuid.New(),
		Keys:     slices.Clone(keys),
		Clef:     clef,
		Duration: d,
	}, nil
}

// NewRest creates a rest with a fresh identity.
func NewRest(clef Clef, d Duration) (NoteEvent, error) {
	if err := d.Validate(); err != nil {
		return NoteEvent{}, err
	}
	return NoteEvent{ID: uuid.New(), Clef: clef, Duration: d, Rest: true}, nil
}

// MustNote is NewNote with the keys given as strings; it panics on any error.
func MustNote(clef Clef, code string, keys ...string) NoteEvent {
	pitches := make([]Pitch, len(keys))
	for i, k := range keys {
		pitches[i] = MustParsePitch(k)
	}
	n, err := NewNote(clef, MustParseDuration(code), pitches...)
	if err != nil {
		panic(err)
	}
	return n
}

// DoubleDuration is a shorthand for n.Duration.DoubleDuration().
func (n NoteEvent) DoubleDuration() float64 {
	return n.Duration.DoubleDuration()
}

// WithStyle returns a copy of the note with the given style.
func (n NoteEvent) WithStyle(s Style) NoteEvent {
	n.Style = s
	return n
}

// SameAs compares notes by what the user sees: keys, clef, duration and
// whether it is a rest. Identity and style are ignored.
func (n NoteEvent) SameAs(o NoteEvent) bool {
	return n.Clef == o.Clef && n.Duration == o.Duration && n.Rest == o.Rest && slices.Equal(n.Keys, o.Keys)
}

// Root returns the identity of the note the user entered: the note's own ID
// for originals, the parent ID for fragments.
func (n NoteEvent) Root() uuid.UUID {
	if n.Origin.Fragment {
		return n.Origin.ParentID
	}
	return n.ID
}

// fragment returns the index:th piece of n with duration d.
func (n NoteEvent) fragment(d Duration, index int) NoteEvent {
	return NoteEvent{
		ID:       uuid.New(),
		Keys:     slices.Clone(n.Keys),
		Clef:     n.Clef,
		Duration: d,
		Rest:     n.Rest,
		Style:    n.Style,
		Origin:   Origin{Fragment: true, ParentID: n.Root(), Index: index},
	}
}

func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleOverflow:
		return "overflow"
	}
	return "unknown"
}

func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal", "":
		*s = StyleNormal
	case "overflow":
		*s = StyleOverflow
	default:
		return errors.New("unknown style " + string(text))
	}
	return nil
}
