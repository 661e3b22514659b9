package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vexedit/vexedit"
	"gopkg.in/yaml.v3"
)

type (
	// Config holds the defaults of the editor and the settings of the
	// playback and the server.
	Config struct {
		Time       vexedit.TimeSignature
		Clef       vexedit.Clef
		Stem       vexedit.StemDirection
		Duration   vexedit.Duration
		BeamGroups []vexedit.Fraction `yaml:"beamgroups,flow"`
		Velocity   int
		BPM        int `yaml:"bpm"`
		SampleRate int `yaml:"samplerate"`
		UndoDepth  int `yaml:"undodepth"`
		Server     ServerConfig
		Log        LogConfig

		// YmlError is the error encountered while reading the user's
		// config.yml, if it exists. The defaults are used when it is set.
		YmlError error `yaml:"-"`
	}

	ServerConfig struct {
		Listen  string
		Origins []string `yaml:",flow"`
	}

	LogConfig struct {
		Level string
	}
)

const appDirName = "vexedit"

//go:embed config.yml
var defaultConfigYml []byte

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	if err := decodeStrict(defaultConfigYml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Make returns the built-in configuration, overridden by the user's
// config.yml if there is one. A broken user file is reported in YmlError
// and otherwise ignored.
func Make() Config {
	c := Default()
	custom := c
	exists, err := ReadCustomConfigYml("config.yml", &custom)
	if !exists {
		return c
	}
	if err == nil {
		err = custom.Validate()
	}
	if err != nil {
		c.YmlError = err
		return c
	}
	return custom
}

// ReadCustomConfigYml decodes filename from the user's config directory into
// target, which needs to be a pointer. exists is false if the file could not
// be read at all.
func ReadCustomConfigYml(filename string, target any) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, appDirName, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := decodeStrict(data, target); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// Validate checks the values that cannot be checked while decoding.
func (c *Config) Validate() error {
	if err := c.Time.Validate(); err != nil {
		return err
	}
	if err := c.Duration.Validate(); err != nil {
		return err
	}
	if c.BPM <= 0 {
		return fmt.Errorf("bpm must be positive, got %d", c.BPM)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("samplerate must be positive, got %d", c.SampleRate)
	}
	if c.Velocity < 1 || c.Velocity > 127 {
		return fmt.Errorf("velocity must be in 1..127, got %d", c.Velocity)
	}
	if c.UndoDepth < 0 {
		return errors.New("undodepth cannot be negative")
	}
	return nil
}

func decodeStrict(data []byte, target any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
