package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit/cmd"
	"github.com/vexedit/vexedit/playback"
)

var exportFlags struct {
	mid       bool
	wav       bool
	raw       bool
	pcm16     bool
	bpm       int
	directory string
	stdout    bool
}

var exportCmd = &cobra.Command{
	Use:   "export [path ...]",
	Short: "Export measure files as MIDI or audio",
	Long: `Export writes a Standard MIDI File (.mid), a .wav file or a raw stereo
float32 buffer (.raw) of every measure file. Without format flags, a .mid file
is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		if !exportFlags.mid && !exportFlags.wav && !exportFlags.raw {
			exportFlags.mid = true
		}
		bpm := cfg.BPM
		if exportFlags.bpm > 0 {
			bpm = exportFlags.bpm
		}
		opts := cmd.OutputOptions{Directory: exportFlags.directory, Stdout: exportFlags.stdout, Writer: c.OutOrStdout()}
		synth := playback.NewSynth(cfg.SampleRate, bpm)
		return cmd.ProcessFiles(args, func(filename string) error {
			score, err := cmd.LoadScore(filename)
			if err != nil {
				return err
			}
			events := playback.Sequence(score.Voices, cfg.Velocity)
			if exportFlags.mid {
				var buf bytes.Buffer
				if err := playback.WriteSMF(&buf, playback.Meters(score.Voices), synth.Tempo, 0, events); err != nil {
					return fmt.Errorf("could not generate .mid file: %w", err)
				}
				if err := cmd.Output(filename, ".mid", buf.Bytes(), opts); err != nil {
					return fmt.Errorf("error outputting .mid file: %w", err)
				}
			}
			if !exportFlags.wav && !exportFlags.raw {
				return nil
			}
			buffer := synth.Render(events)
			if exportFlags.wav {
				wav, err := playback.Wav(buffer, cfg.SampleRate, exportFlags.pcm16)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %w", err)
				}
				if err := cmd.Output(filename, ".wav", wav, opts); err != nil {
					return fmt.Errorf("error outputting .wav file: %w", err)
				}
			}
			if exportFlags.raw {
				raw, err := playback.Raw(buffer, exportFlags.pcm16)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %w", err)
				}
				if err := cmd.Output(filename, ".raw", raw, opts); err != nil {
					return fmt.Errorf("error outputting .raw file: %w", err)
				}
			}
			return nil
		})
	},
}

func init() {
	f := exportCmd.Flags()
	f.BoolVar(&exportFlags.mid, "mid", false, "Output a Standard MIDI File.")
	f.BoolVarP(&exportFlags.wav, "wav", "w", false, "Output a .wav file.")
	f.BoolVarP(&exportFlags.raw, "raw", "r", false, "Output the rendered stereo float32 buffer as a .raw file.")
	f.BoolVarP(&exportFlags.pcm16, "pcm16", "c", false, "Convert audio to 16-bit signed PCM when outputting.")
	f.IntVar(&exportFlags.bpm, "bpm", 0, "Tempo in quarter notes per minute. Overrides the config file.")
	f.StringVarP(&exportFlags.directory, "output", "o", "", "Directory where to output the files. Defaults to the working directory.")
	f.BoolVarP(&exportFlags.stdout, "stdout", "s", false, "Do not write files; write to standard output instead.")
	rootCmd.AddCommand(exportCmd)
}
