package playback

import (
	"math"

	"github.com/fogleman/ease"
	"github.com/viterin/vek/vek32"
)

// Synth is a tiny sine synthesizer used to preview and export voices. It is
// not meant to sound good, just to let the user hear the rhythm.
type Synth struct {
	SampleRate int
	Tempo      Tempo
	Gain       float32
	// Attack is the fraction of each note spent fading in; the rest of the
	// note decays along Decay.
	Attack float64
	Decay  ease.Function
}

func NewSynth(sampleRate, bpm int) *Synth {
	return &Synth{
		SampleRate: sampleRate,
		Tempo:      Tempo{BPM: bpm},
		Gain:       0.25,
		Attack:     0.02,
		Decay:      ease.OutQuad,
	}
}

// Frames returns the number of stereo frames needed for a position in whole
// notes.
func (s *Synth) Frames(wholes float64) int {
	return int(math.Round(s.Tempo.At(wholes).Seconds() * float64(s.SampleRate)))
}

// Render renders the events into an interleaved stereo buffer, long enough
// to hold the last event.
func (s *Synth) Render(events []Event) []float32 {
	mix := make([]float32, s.Frames(End(events)))
	var tone []float32
	for _, e := range events {
		start := s.Frames(e.Start)
		n := s.Frames(e.Start+e.Length) - start
		if n <= 0 || start >= len(mix) {
			continue
		}
		if start+n > len(mix) {
			n = len(mix) - start
		}
		env := s.envelope(n)
		velocity := float32(e.Velocity) / 127
		for _, k := range e.Keys {
			tone = s.sine(tone[:0], frequency(k.MIDI()), n)
			vek32.Mul_Inplace(tone, env)
			vek32.MulNumber_Inplace(tone, velocity)
			vek32.Add_Inplace(mix[start:start+n], tone)
		}
	}
	vek32.MulNumber_Inplace(mix, s.Gain)
	stereo := make([]float32, 2*len(mix))
	for i, v := range mix {
		stereo[2*i] = v
		stereo[2*i+1] = v
	}
	return stereo
}

func (s *Synth) sine(buf []float32, freq float64, n int) []float32 {
	w := 2 * math.Pi * freq / float64(s.SampleRate)
	for i := 0; i < n; i++ {
		buf = append(buf, float32(math.Sin(w*float64(i))))
	}
	return buf
}

func (s *Synth) envelope(n int) []float32 {
	ret := make([]float32, n)
	attack := int(s.Attack * float64(n))
	decay := s.Decay
	if decay == nil {
		decay = ease.Linear
	}
	for i := range ret {
		if i < attack {
			ret[i] = float32(ease.OutSine(float64(i) / float64(attack)))
			continue
		}
		t := float64(i-attack) / float64(n-attack)
		ret[i] = float32(1 - decay(t))
	}
	return ret
}

// frequency of a MIDI key in equal temperament, a/4 = 440 Hz.
func frequency(key int) float64 {
	return 440 * math.Pow(2, float64(key-69)/12)
}
