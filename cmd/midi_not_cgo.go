//go:build !cgo

package cmd

import (
	"fmt"

	"github.com/vexedit/vexedit/playback"
)

// OpenMIDIOutput always fails: the realtime MIDI driver needs cgo.
func OpenMIDIOutput(port string) (playback.MIDISender, func() error, error) {
	return nil, nil, fmt.Errorf("%w: built without cgo", ErrNoMIDIOutput)
}
