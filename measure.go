package vexedit

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type (
	// Measure is the on-disk description of one measure: a time signature,
	// the staff line settings and the notes entered in it, in order.
	//
	// Measure files are lists of measures, either as .json or .yml.
	Measure struct {
		Time       TimeSignature `json:"time"`
		Clef       Clef          `yaml:",omitempty" json:"clef"`
		Stem       StemDirection `yaml:",omitempty" json:"stem"`
		BeamGroups []Fraction    `yaml:"beamgroups,flow,omitempty" json:"beam_groups,omitempty"`
		Notes      []NoteEvent   `json:"notes"`
	}
)

// ReadMeasures parses a measure file. JSON is tried first, then YAML.
func ReadMeasures(data []byte) ([]Measure, error) {
	var measures []Measure
	if errJSON := json.Unmarshal(data, &measures); errJSON != nil {
		measures = nil
		if errYaml := yaml.Unmarshal(data, &measures); errYaml != nil {
			return nil, fmt.Errorf("the measures could not be parsed as .json (%w) or .yml (%w)", errJSON, errYaml)
		}
	}
	for i := range measures {
		if err := measures[i].Validate(); err != nil {
			return nil, fmt.Errorf("measure %d: %w", i+1, err)
		}
	}
	return measures, nil
}

// WriteMeasures encodes measures as a .json measure file. JSON keeps the
// identities of the notes, so the ties between fragments survive.
func WriteMeasures(measures []Measure) ([]byte, error) {
	data, err := json.MarshalIndent(measures, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode the measures: %w", err)
	}
	return data, nil
}

// Validate checks the time signature and every note.
func (m *Measure) Validate() error {
	if err := m.Time.Validate(); err != nil {
		return err
	}
	for i, n := range m.Notes {
		if err := n.Duration.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i+1, err)
		}
		if !n.Rest && len(n.Keys) == 0 {
			return fmt.Errorf("note %d: %w", i+1, ErrNoKeys)
		}
	}
	return nil
}

// Voice enters the notes of the measure one by one into a new voice,
// committing each of them the way clicking them in the editor would, and
// returns the voice. Fragments saved by MeasureOf keep their origin, so the
// ties between them survive a save and load in .json.
func (m *Measure) Voice() (*Voice, error) {
	v, err := NewVoice(m.Time, m.Stem)
	if err != nil {
		return nil, err
	}
	v.SetBeamGroups(m.BeamGroups)
	for i, n := range m.Notes {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		n.Clef = m.Clef
		v.Append(n)
		if _, err := v.Commit(); err != nil {
			return nil, fmt.Errorf("note %d: %w", i+1, err)
		}
	}
	return v, nil
}

// MeasureOf captures the committed notes of a voice as a Measure.
func MeasureOf(v *Voice, clef Clef) Measure {
	notes := v.Tickables()[:v.CommittedCount()]
	return Measure{
		Time:       v.Time(),
		Clef:       clef,
		Stem:       v.Stem(),
		BeamGroups: v.BeamGroupFractions(),
		Notes:      notes,
	}
}
