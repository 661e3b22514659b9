//go:build cgo

package cmd

import (
	"fmt"
	"strings"

	"github.com/vexedit/vexedit/playback"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// OpenMIDIOutput opens the first MIDI output port whose name contains port,
// ignoring case. An empty port selects the first output. The returned
// function closes the driver.
func OpenMIDIOutput(port string) (playback.MIDISender, func() error, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the MIDI driver: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("could not list MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if !strings.Contains(strings.ToLower(out.String()), strings.ToLower(port)) {
			continue
		}
		if err := out.Open(); err != nil {
			drv.Close()
			return nil, nil, fmt.Errorf("could not open MIDI output %v: %w", out, err)
		}
		return out, drv.Close, nil
	}
	drv.Close()
	return nil, nil, fmt.Errorf("%w: no port matches %q", ErrNoMIDIOutput, port)
}
