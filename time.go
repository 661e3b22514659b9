package vexedit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type (
	// TimeSignature of a measure: NumBeats beats of 1/BeatValue notes each.
	TimeSignature struct {
		NumBeats  int
		BeatValue int
	}

	// Fraction is a length in whole notes, used for beam groups. 4/8 is half
	// a whole note.
	Fraction struct {
		Numerator   int
		Denominator int
	}

	// Capacity classifies how full a voice is compared to its time
	// signature.
	Capacity struct {
		Exact    bool `json:"exact"`
		OverFull bool `json:"over_full"`
	}
)

var ErrInvalidTimeSignature = errors.New("invalid time signature")

// CommonTime is 4/4.
var CommonTime = TimeSignature{NumBeats: 4, BeatValue: 4}

// Validate checks that both numbers are positive and that the beat value is
// a power of two.
func (t TimeSignature) Validate() error {
	if t.NumBeats < 1 || t.BeatValue < 1 || t.BeatValue > 64 || t.BeatValue&(t.BeatValue-1) != 0 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidTimeSignature, t.NumBeats, t.BeatValue)
	}
	return nil
}

// Capacity returns the length of a measure in whole notes.
func (t TimeSignature) Capacity() float64 {
	return float64(t.NumBeats) / float64(t.BeatValue)
}

func (t TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", t.NumBeats, t.BeatValue)
}

// ParseTimeSignature parses "num/value", e.g. "3/4".
func ParseTimeSignature(s string) (TimeSignature, error) {
	f, err := ParseFraction(s)
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	t := TimeSignature{NumBeats: f.Numerator, BeatValue: f.Denominator}
	return t, t.Validate()
}

func (t TimeSignature) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeSignature) UnmarshalText(text []byte) error {
	v, err := ParseTimeSignature(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseFraction parses "numerator/denominator" with positive parts.
func ParseFraction(s string) (Fraction, error) {
	var f Fraction
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return f, fmt.Errorf("fraction %q has no slash", s)
	}
	var err error
	if f.Numerator, err = strconv.Atoi(num); err != nil {
		return f, fmt.Errorf("fraction %q: %w", s, err)
	}
	if f.Denominator, err = strconv.Atoi(den); err != nil {
		return f, fmt.Errorf("fraction %q: %w", s, err)
	}
	if f.Numerator < 1 || f.Denominator < 1 {
		return f, fmt.Errorf("fraction %q must be positive", s)
	}
	return f, nil
}

func (f Fraction) Value() float64 {
	return float64(f.Numerator) / float64(f.Denominator)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fraction) UnmarshalText(text []byte) error {
	v, err := ParseFraction(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// roundSignificant rounds x to the given number of significant digits. The
// capacity check uses 4 digits so that e.g. three triplet quarters compare
// equal to a half note.
func roundSignificant(x float64, digits int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'g', digits, 64), 64)
	return r
}
