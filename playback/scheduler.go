package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/logger"
	"gitlab.com/gomidi/midi/v2"
	"k8s.io/utils/clock"
)

type (
	// BufferScheduler renders the notes with a Synth and writes the buffer to
	// an output of the audio context. The buffer lasts the whole measure, so
	// trailing rests and the unfilled end of a measure are heard as silence.
	BufferScheduler struct {
		Synth    *Synth
		Context  vexedit.AudioContext
		Velocity int
	}

	// MIDISender is a MIDI output port, e.g. drivers.Out of gomidi.
	MIDISender interface {
		Send(msg []byte) error
	}

	// MIDIScheduler sends the notes as MIDI messages, sleeping on Clock
	// between them. Schedule returns at the end of the measure.
	MIDIScheduler struct {
		Out      MIDISender
		Clock    clock.Clock
		Tempo    Tempo
		Channel  uint8
		Velocity int
	}
)

var ErrNoOutput = errors.New("no audio output available")

func (s *BufferScheduler) Schedule(ts vexedit.TimeSignature, notes []vexedit.NoteEvent) error {
	if s.Context == nil {
		return ErrNoOutput
	}
	buffer := s.Synth.Render(Flatten(notes, 0, s.Velocity))
	if frames := 2 * s.Synth.Frames(measureLength(ts)); len(buffer) < frames {
		buffer = append(buffer, make([]float32, frames-len(buffer))...)
	}
	if len(buffer) == 0 {
		return nil
	}
	sink := s.Context.Output()
	if err := sink.WriteAudio(buffer); err != nil {
		sink.Close()
		return fmt.Errorf("could not play %v measure: %w", ts, err)
	}
	return sink.Close()
}

func (s *MIDIScheduler) Schedule(ts vexedit.TimeSignature, notes []vexedit.NoteEvent) error {
	if s.Out == nil {
		return ErrNoOutput
	}
	start := s.Clock.Now()
	if err := s.play(start, Flatten(notes, 0, s.Velocity)); err != nil {
		return err
	}
	if wait := s.Tempo.At(measureLength(ts)) - s.Clock.Since(start); wait > 0 {
		s.Clock.Sleep(wait)
	}
	return nil
}

// Play sends the events in real time. If sending fails, the notes still
// sounding are turned off before returning the error.
func (s *MIDIScheduler) Play(events []Event) error {
	if s.Out == nil {
		return ErrNoOutput
	}
	return s.play(s.Clock.Now(), events)
}

func (s *MIDIScheduler) play(start time.Time, events []Event) error {
	log := logger.GetProjectLogger()
	msgs := noteMessages(s.Channel, events)
	sounding := make(map[uint8]int)
	for _, m := range msgs {
		at := s.Tempo.At(float64(m.tick) / (4 * TicksPerQuarter))
		if wait := at - s.Clock.Since(start); wait > 0 {
			s.Clock.Sleep(wait)
		}
		if err := s.Out.Send(m.msg); err != nil {
			s.allOff(sounding)
			return fmt.Errorf("could not send %v: %w", m.msg, err)
		}
		if m.off {
			sounding[m.key]--
		} else {
			sounding[m.key]++
		}
		log.WithField("at", at.Round(time.Millisecond)).Debug(m.msg.String())
	}
	return nil
}

func (s *MIDIScheduler) allOff(sounding map[uint8]int) {
	for key, n := range sounding {
		if n > 0 {
			s.Out.Send(midi.NoteOff(s.Channel, key))
		}
	}
}

// measureLength is the length of a measure of ts in whole notes. The zero
// TimeSignature, used for previews, has no length.
func measureLength(ts vexedit.TimeSignature) float64 {
	if ts.Validate() != nil {
		return 0
	}
	return ts.Capacity()
}
