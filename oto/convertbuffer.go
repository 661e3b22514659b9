package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferTo32BitLE appends the samples of buff to dst as little-endian
// float32, the sample format the oto context is opened with. Samples are
// clipped to [-1, 1].
func FloatBufferTo32BitLE(buff []float32, dst []byte) []byte {
	for _, v := range buff {
		v = max(-1, min(1, v))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}
