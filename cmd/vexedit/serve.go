package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/cmd"
	"github.com/vexedit/vexedit/editor"
	"github.com/vexedit/vexedit/logger"
	"github.com/vexedit/vexedit/oto"
	"github.com/vexedit/vexedit/playback"
	"github.com/vexedit/vexedit/server"
)

var serveFlags struct {
	listen string
	audio  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve an editor over HTTP",
	Long: `Serve runs the editor as a JSON API for a front end that draws the staff.
Optionally, the measures of a measure file are loaded first; POST /save then
writes the score back to that file, as .json. With --audio, entered notes and
playback are heard on the audio device of the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		var scheduler vexedit.AudioScheduler
		if serveFlags.audio {
			audio, err := oto.NewContext(cfg.SampleRate)
			if err != nil {
				return err
			}
			defer audio.Close()
			scheduler = &playback.BufferScheduler{
				Synth:    playback.NewSynth(cfg.SampleRate, cfg.BPM),
				Context:  audio,
				Velocity: cfg.Velocity,
			}
		}
		model, err := editor.NewModel(cfg, scheduler, nil)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			score, err := cmd.LoadScore(args[0])
			if err != nil {
				return err
			}
			if err := model.LoadMeasures(score.Measures); err != nil {
				return err
			}
			model.SetChangedSinceSave(false)
		}
		s, err := server.New(model, cfg.Server.Origins)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			s.SaveTo(args[0])
		}
		listen := cfg.Server.Listen
		if serveFlags.listen != "" {
			listen = serveFlags.listen
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = s.ListenAndServe(ctx, listen)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		logger.GetProjectLogger().Info("server stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "Address to listen on. Overrides the config file.")
	serveCmd.Flags().BoolVarP(&serveFlags.audio, "audio", "a", false, "Play entered notes on the audio device of the server.")
	rootCmd.AddCommand(serveCmd)
}
