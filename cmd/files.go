// Package cmd holds the helpers shared by the vexedit command line tools:
// finding and loading measure files, and writing the results next to them.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/lily"
	"github.com/vexedit/vexedit/logger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// Score is a measure file, with every measure entered into a voice.
	Score struct {
		Filename string
		Measures []vexedit.Measure
		Voices   []*vexedit.Voice
	}

	// OutputOptions tells where generated files go. With Stdout set, the
	// contents are written to Writer instead of a file. An empty Directory
	// means the working directory.
	OutputOptions struct {
		Directory string
		Stdout    bool
		Writer    io.Writer
	}
)

var (
	ErrNoMIDIOutput = errors.New("no MIDI output available")
	ErrSomeFailed   = errors.New("some files could not be processed")
)

var titleCaser = cases.Title(language.English)

// LoadScore reads a .json or .yml measure file.
func LoadScore(filename string) (*Score, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", filename, err)
	}
	measures, err := vexedit.ReadMeasures(data)
	if err != nil {
		return nil, err
	}
	if len(measures) == 0 {
		return nil, fmt.Errorf("%v has no measures", filename)
	}
	s := &Score{Filename: filename, Measures: measures}
	for i := range measures {
		v, err := measures[i].Voice()
		if err != nil {
			return nil, fmt.Errorf("measure %d: %w", i+1, err)
		}
		s.Voices = append(s.Voices, v)
	}
	return s, nil
}

// Lines returns the staff lines of the score for the LilyPond engraver.
func (s *Score) Lines() []lily.Line {
	ret := make([]lily.Line, len(s.Voices))
	for i, v := range s.Voices {
		ret[i] = lily.Line{Voice: v, Clef: s.Measures[i].Clef}
	}
	return ret
}

// Title makes a title out of the file name: "minuet_in_g.yml" becomes
// "Minuet In G".
func (s *Score) Title() string {
	_, name := filepath.Split(s.Filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return TitleCase(name)
}

// TitleCase capitalizes the words of s.
func TitleCase(s string) string {
	return titleCaser.String(s)
}

// InputFiles expands the directories among paths into the .yml and .json
// files they contain. Other paths are returned as is.
func InputFiles(paths []string) ([]string, error) {
	var files []string
	for _, param := range paths {
		info, err := os.Stat(param)
		if err != nil || !info.IsDir() {
			files = append(files, param)
			continue
		}
		ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
		if err != nil {
			return nil, fmt.Errorf("could not glob the path %v for yml files: %w", param, err)
		}
		jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("could not glob the path %v for json files: %w", param, err)
		}
		files = append(files, ymlfiles...)
		files = append(files, jsonfiles...)
	}
	return files, nil
}

// ProcessFiles runs process for every input file, logging the failures.
// It returns ErrSomeFailed if any file failed.
func ProcessFiles(paths []string, process func(filename string) error) error {
	files, err := InputFiles(paths)
	if err != nil {
		return err
	}
	failed := false
	for _, file := range files {
		if err := process(file); err != nil {
			logger.GetProjectLogger().WithError(err).WithField("file", file).Error("could not process file")
			failed = true
		}
	}
	if failed {
		return ErrSomeFailed
	}
	return nil
}

// Output writes contents to a file named after filename, with its extension
// replaced by extension.
func Output(filename, extension string, contents []byte, opts OutputOptions) error {
	if opts.Stdout {
		_, err := opts.Writer.Write(contents)
		return err
	}
	dir := opts.Directory
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	_, name := filepath.Split(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	f := filepath.Join(dir, name)
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", f, err)
	}
	logger.GetProjectLogger().WithField("file", f).Debug("wrote")
	return nil
}
