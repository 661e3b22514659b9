package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/cmd"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check [path ...]",
	Short: "Report the corrected rhythm of every measure",
	Long: `Check prints, for every measure, the durations after splitting at beat
boundaries (tied notes marked with ~), the number of ties and beams, and
whether the measure is exact, incomplete or overfull.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.ProcessFiles(args, func(filename string) error {
			score, err := cmd.LoadScore(filename)
			if err != nil {
				return err
			}
			return report(c.OutOrStdout(), score)
		})
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Fail if a measure is not exactly full.")
	rootCmd.AddCommand(checkCmd)
}

func report(w io.Writer, score *cmd.Score) error {
	fmt.Fprintf(w, "%s\n", score.Filename)
	failed := 0
	for i, v := range score.Voices {
		status := capacityName(v.CapacityStatus())
		if status != "exact" {
			failed++
		}
		ties := v.Ties()
		fmt.Fprintf(w, "%4d  %-5s %-7s %-11s ties %d, beams %d  %s\n",
			i+1, v.Time(), cmd.TitleCase(score.Measures[i].Clef.String()), cmd.TitleCase(status),
			len(ties), len(v.Beams()), rhythm(v.Tickables(), ties))
	}
	if checkStrict && failed > 0 {
		return fmt.Errorf("%d of %d measures are not full", failed, len(score.Voices))
	}
	return nil
}

func capacityName(c vexedit.Capacity) string {
	switch {
	case c.OverFull:
		return "overfull"
	case c.Exact:
		return "exact"
	}
	return "incomplete"
}

func rhythm(notes []vexedit.NoteEvent, ties []vexedit.Tie) string {
	tied := make(map[int]bool, len(ties))
	for _, t := range ties {
		tied[t.FirstNote] = true
	}
	codes := make([]string, len(notes))
	for i, n := range notes {
		codes[i] = n.Duration.Code()
		if n.Rest {
			codes[i] += "r"
		}
		if tied[i] {
			codes[i] += "~"
		}
	}
	return strings.Join(codes, " ")
}
