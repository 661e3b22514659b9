package vexedit

type (
	// AudioSink receives interleaved stereo float32 audio.
	AudioSink interface {
		WriteAudio(buffer []float32) error
		Close() error
	}

	// AudioContext hands out sinks on an audio device.
	AudioContext interface {
		Output() AudioSink
		Close() error
	}

	// AudioScheduler plays back a corrected sequence. The sequence is already
	// split and tie-aware (fragments carry their Origin); the scheduler owns
	// all timing. The notes are one measure of ts and playback lasts the
	// whole measure, rests and unfilled space included. The zero ts plays
	// just the notes, as for a preview.
	AudioScheduler interface {
		Schedule(ts TimeSignature, notes []NoteEvent) error
	}

	// Stave describes the staff line a voice is drawn on.
	Stave struct {
		Index int
		Clef  Clef
		Time  TimeSignature
	}

	// Renderer materializes a corrected sequence into renderer specific
	// handles, exactly one per note and in the same order, so that ties can
	// be resolved against them with ResolveTies.
	Renderer[H any] interface {
		Materialize(notes []NoteEvent, stave Stave) ([]H, error)
	}
)
