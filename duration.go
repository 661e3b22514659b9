package vexedit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type (
	// Duration is the rhythmic value of a note. Value is the undotted note
	// value as a divisor of the whole note (1 whole, 2 half, 4 quarter, 8
	// eighth...), Dots is the number of augmentation dots and Triplet marks
	// a 3:2 tuplet. Durations are written with the VexFlow-style codes "1",
	// "2", "4", "8", "16", "32", "64" (aliases "w", "h", "q"), one "d" per dot
	// and a trailing "t" for triplets, e.g. "4d" or "8t".
	Duration struct {
		Value   int
		Dots    int
		Triplet bool
	}
)

// MaxDots is the number of dots DurationForBeats is willing to try when
// searching for a duration.
const MaxDots = 2

// beatEpsilon is the tolerance used whenever beat positions are compared.
// Durations are binary fractions or thirds of them, so the error of float64
// sums stays far below this.
const beatEpsilon = 1e-6

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrUnrepresentable = errors.New("no duration matches the beat length")
)

var durationAliases = map[string]string{
	"w": "1",
	"h": "2",
	"q": "4",
}

// ParseDuration parses a duration code.
func ParseDuration(code string) (Duration, error) {
	s := strings.ToLower(strings.TrimSpace(code))
	var d Duration
	if strings.HasSuffix(s, "t") {
		d.Triplet = true
		s = strings.TrimSuffix(s, "t")
	}
	for strings.HasSuffix(s, "d") {
		d.Dots++
		s = strings.TrimSuffix(s, "d")
	}
	if alias, ok := durationAliases[s]; ok {
		s = alias
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, code)
	}
	d.Value = v
	if err := d.Validate(); err != nil {
		return Duration{}, fmt.Errorf("%w: %q", err, code)
	}
	return d, nil
}

// MustParseDuration is like ParseDuration but panics on malformed codes. Use
// it only for codes that are constants in the program.
func MustParseDuration(code string) Duration {
	d, err := ParseDuration(code)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks that the value is a power of two between 1 and 64 and that
// the dot count is sane.
func (d Duration) Validate() error {
	if d.Value < 1 || d.Value > 64 || d.Value&(d.Value-1) != 0 {
		return fmt.Errorf("%w: note value %d is not a power of two in [1,64]", ErrInvalidDuration, d.Value)
	}
	if d.Dots < 0 || d.Dots > 4 {
		return fmt.Errorf("%w: %d dots", ErrInvalidDuration, d.Dots)
	}
	return nil
}

// Code returns the textual duration code, the inverse of ParseDuration.
func (d Duration) Code() string {
	code := strconv.Itoa(d.Value) + strings.Repeat("d", d.Dots)
	if d.Triplet {
		code += "t"
	}
	return code
}

func (d Duration) String() string {
	return d.Code()
}

// DoubleDuration returns the divisor such that 1/DoubleDuration() is the
// length of the note in whole notes, e.g. 4 for a quarter and 8/3 for a
// dotted quarter.
func (d Duration) DoubleDuration() float64 {
	if d.Value <= 0 {
		panic(fmt.Sprintf("vexedit: DoubleDuration of invalid duration %+v", d))
	}
	length := 1 / float64(d.Value)
	length *= 2 - math.Pow(2, -float64(d.Dots))
	if d.Triplet {
		length *= 2.0 / 3.0
	}
	return 1 / length
}

// Whole returns the length of the note in whole notes.
func (d Duration) Whole() float64 {
	return 1 / d.DoubleDuration()
}

// Beats returns the length of the note in beats when one beat is a
// 1/beatValue note.
func (d Duration) Beats(beatValue int) float64 {
	return float64(beatValue) / d.DoubleDuration()
}

// Beamable reports whether notes of this duration carry flags, i.e. whether
// they take part in beaming. Only eighths and shorter do.
func (d Duration) Beamable() bool {
	return d.Value >= 8
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	p, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// DurationForBeats is the inverse of Duration.Beats: it finds the duration
// that lasts exactly beats beats. Plain values are preferred over dotted ones
// and dotted over triplets. If nothing matches, the error wraps
// ErrUnrepresentable; the caller is not expected to round.
func DurationForBeats(beatValue int, beats float64) (Duration, error) {
	if beatValue <= 0 || beats <= beatEpsilon {
		return Duration{}, fmt.Errorf("%w: %g beats of 1/%d", ErrUnrepresentable, beats, beatValue)
	}
	for _, triplet := range []bool{false, true} {
		for dots := 0; dots <= MaxDots; dots++ {
			for value := 1; value <= 64; value *= 2 {
				d := Duration{Value: value, Dots: dots, Triplet: triplet}
				if math.Abs(d.Beats(beatValue)-beats) < beatEpsilon {
					return d, nil
				}
			}
		}
	}
	return Duration{}, fmt.Errorf("%w: %g beats of 1/%d", ErrUnrepresentable, beats, beatValue)
}
