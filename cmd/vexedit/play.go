package main

import (
	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit/cmd"
	"github.com/vexedit/vexedit/logger"
	"github.com/vexedit/vexedit/oto"
	"github.com/vexedit/vexedit/playback"
	"k8s.io/utils/clock"
)

var playFlags struct {
	midi    bool
	port    string
	bpm     int
	channel uint8
}

var playCmd = &cobra.Command{
	Use:   "play [path ...]",
	Short: "Play measure files",
	Long: `Play plays the committed notes of every measure file, one after another.
Tied fragments sound as one note. By default the notes are rendered with a
simple sine synth; with --midi they are sent to a MIDI output instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		bpm := cfg.BPM
		if playFlags.bpm > 0 {
			bpm = playFlags.bpm
		}
		play, closeFunc, err := player(bpm)
		if err != nil {
			return err
		}
		defer closeFunc()
		return cmd.ProcessFiles(args, func(filename string) error {
			score, err := cmd.LoadScore(filename)
			if err != nil {
				return err
			}
			logger.GetProjectLogger().WithField("file", filename).Info("playing")
			return play(playback.Sequence(score.Voices, cfg.Velocity))
		})
	},
}

func init() {
	playCmd.Flags().BoolVarP(&playFlags.midi, "midi", "m", false, "Send the notes to a MIDI output instead of the audio device.")
	playCmd.Flags().StringVar(&playFlags.port, "port", "", "Name, or part of the name, of the MIDI output. Defaults to the first output.")
	playCmd.Flags().Uint8Var(&playFlags.channel, "channel", 0, "MIDI channel, 0-15.")
	playCmd.Flags().IntVar(&playFlags.bpm, "bpm", 0, "Tempo in quarter notes per minute. Overrides the config file.")
	rootCmd.AddCommand(playCmd)
}

// player returns a function playing events until they have ended.
func player(bpm int) (func([]playback.Event) error, func() error, error) {
	if playFlags.midi {
		out, closeFunc, err := cmd.OpenMIDIOutput(playFlags.port)
		if err != nil {
			return nil, nil, err
		}
		s := &playback.MIDIScheduler{
			Out:      out,
			Clock:    clock.RealClock{},
			Tempo:    playback.Tempo{BPM: bpm},
			Channel:  playFlags.channel,
			Velocity: cfg.Velocity,
		}
		return s.Play, closeFunc, nil
	}
	context, err := oto.NewContext(cfg.SampleRate)
	if err != nil {
		return nil, nil, err
	}
	synth := playback.NewSynth(cfg.SampleRate, bpm)
	play := func(events []playback.Event) error {
		out := context.Output()
		defer out.Close()
		return out.WriteAudio(synth.Render(events))
	}
	return play, context.Close, nil
}
