package audio

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// EncodeWAV wraps mono 16-bit samples in a canonical RIFF/WAVE header.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(samples)*2)

	dataSize := len(samples) * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, int16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
