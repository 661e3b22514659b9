package oto

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vexedit/vexedit"
)

type (
	OtoContext struct {
		context *oto.Context
	}

	// OtoOutput plays every buffer written to it to the end before
	// returning, so consecutive writes are heard one after another.
	OtoOutput struct {
		context   *oto.Context
		tmpBuffer []byte
	}
)

const pollInterval = 10 * time.Millisecond

// NewContext opens the audio device with interleaved stereo float32 samples.
// Only one context can exist per process.
func NewContext(sampleRate int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

func (c *OtoContext) Output() vexedit.AudioSink {
	return &OtoOutput{context: c.context}
}

// Close suspends the device; oto contexts cannot be destroyed.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// WriteAudio implements the vexedit.AudioSink interface.
func (o *OtoOutput) WriteAudio(floatBuffer []float32) error {
	// we reuse the old capacity of tmpBuffer by setting its length to zero
	o.tmpBuffer = FloatBufferTo32BitLE(floatBuffer, o.tmpBuffer[:0])
	player := o.context.NewPlayer(bytes.NewReader(o.tmpBuffer))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(pollInterval)
	}
	// players are released by the garbage collector
	if err := player.Err(); err != nil {
		return fmt.Errorf("cannot play buffer: %w", err)
	}
	return nil
}

// Close disposes of resources
func (o *OtoOutput) Close() error {
	o.tmpBuffer = nil
	return nil
}
