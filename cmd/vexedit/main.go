package main

import (
	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit/config"
	"github.com/vexedit/vexedit/logger"
	"github.com/vexedit/vexedit/version"
)

var (
	cfg      config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "vexedit",
	Short: "Rhythm tools for vexedit measure files",
	Long: `vexedit splits the notes of measure files at beat boundaries, ties the
pieces back together and beams them, then renders, checks, plays or exports
the result. Measure files are .yml or .json lists of measures.`,
	Version:      version.String(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Make()
		if cfg.YmlError != nil {
			logger.GetProjectLogger().WithError(cfg.YmlError).Warn("ignoring the custom config.yml")
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		return logger.SetLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Overrides the config file.")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
