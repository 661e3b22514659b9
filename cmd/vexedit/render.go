package main

import (
	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit/cmd"
	"github.com/vexedit/vexedit/lily"
)

var renderFlags struct {
	title     string
	directory string
	stdout    bool
}

var renderCmd = &cobra.Command{
	Use:   "render [path ...]",
	Short: "Write measure files as LilyPond scores",
	Long: `Render writes a .ly file for every measure file. Directories are searched
for .yml and .json files. Tied fragments are joined with ~, beams are written
as manual [ ] beams and notes that overflow their measure are coloured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		engraver, err := lily.New()
		if err != nil {
			return err
		}
		opts := cmd.OutputOptions{Directory: renderFlags.directory, Stdout: renderFlags.stdout, Writer: c.OutOrStdout()}
		return cmd.ProcessFiles(args, func(filename string) error {
			score, err := cmd.LoadScore(filename)
			if err != nil {
				return err
			}
			title := renderFlags.title
			if title == "" {
				title = score.Title()
			}
			text, err := engraver.Score(title, score.Lines())
			if err != nil {
				return err
			}
			return cmd.Output(filename, ".ly", []byte(text), opts)
		})
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.title, "title", "t", "", "Title of the score. Defaults to the file name.")
	renderCmd.Flags().StringVarP(&renderFlags.directory, "output", "o", "", "Directory where to output the files. Defaults to the working directory.")
	renderCmd.Flags().BoolVarP(&renderFlags.stdout, "stdout", "s", false, "Do not write files; write to standard output instead.")
	rootCmd.AddCommand(renderCmd)
}
