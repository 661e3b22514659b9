package playback

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/vexedit/vexedit"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the resolution of exported MIDI files.
const TicksPerQuarter = 960

type (
	timedMsg struct {
		tick uint32
		msg  midi.Message
		key  uint8
		off  bool
	}

	// MeterChange sets the time signature from Start, in whole notes, on.
	MeterChange struct {
		Start float64
		Time  vexedit.TimeSignature
	}
)

// Meters returns the time signature changes of measures played one after
// another, placed the way Sequence places the measures.
func Meters(voices []*vexedit.Voice) []MeterChange {
	var ret []MeterChange
	pos := 0.0
	for _, v := range voices {
		if len(ret) == 0 || ret[len(ret)-1].Time != v.Time() {
			ret = append(ret, MeterChange{Start: pos, Time: v.Time()})
		}
		pos += v.Time().Capacity()
	}
	return ret
}

// WriteSMF writes the events as a single track Standard MIDI File with the
// meters and tempo of the score. meters must be sorted by Start.
func WriteSMF(w io.Writer, meters []MeterChange, tempo Tempo, channel uint8, events []Event) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("vexedit"))
	bpm := tempo.BPM
	if bpm <= 0 {
		bpm = 120
	}
	tr.Add(0, smf.MetaTempo(float64(bpm)))
	var last uint32
	add := func(tick uint32, msg []byte) {
		tr.Add(tick-last, msg)
		last = tick
	}
	next := 0
	addMeters := func(until uint32) {
		for ; next < len(meters) && toTicks(meters[next].Start) <= until; next++ {
			ts := meters[next].Time
			add(toTicks(meters[next].Start), smf.MetaMeter(uint8(ts.NumBeats), uint8(ts.BeatValue)))
		}
	}
	for _, m := range noteMessages(channel, events) {
		addMeters(m.tick)
		add(m.tick, m.msg)
	}
	addMeters(math.MaxUint32)
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("could not add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("could not write midi file: %w", err)
	}
	return nil
}

// noteMessages returns the note on and off messages of the events sorted by
// time; at equal times note offs come first, so that repeated keys retrigger.
func noteMessages(channel uint8, events []Event) []timedMsg {
	var msgs []timedMsg
	for _, e := range events {
		start, end := toTicks(e.Start), toTicks(e.Start+e.Length)
		for _, k := range e.Keys {
			key := uint8(max(0, min(127, k.MIDI())))
			msgs = append(msgs,
				timedMsg{tick: start, msg: midi.NoteOn(channel, key, uint8(max(1, min(127, e.Velocity)))), key: key},
				timedMsg{tick: end, msg: midi.NoteOff(channel, key), key: key, off: true})
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})
	return msgs
}

func toTicks(wholes float64) uint32 {
	return uint32(math.Round(wholes * 4 * TicksPerQuarter))
}
