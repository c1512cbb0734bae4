package capture

import (
	"bytes"
	"encoding/binary"
)

const (
	// HeaderSize is the length of the RIFF/WAVE prefix reserved at the start of every buffer.
	HeaderSize = 44

	Channels      = 2
	BitsPerSample = 16

	formatPCM    = 1
	fmtChunkSize = 16
)

// Field offsets inside the header.
const (
	offRIFFTag       = 0
	offRIFFSize      = 4
	offWAVETag       = 8
	offFmtTag        = 12
	offFmtSize       = 16
	offFormatTag     = 20
	offChannels      = 22
	offSampleRate    = 24
	offByteRate      = 28
	offBlockAlign    = 32
	offBitsPerSample = 34
	offDataTag       = 36
	offDataSize      = 40
)

// Header is a view over the first HeaderSize bytes of a recording.
// Writes through the setters land directly in the owning buffer.
type Header []byte

// writeTemplate fills h with a 16-bit stereo PCM header at sampleRate.
// Both size fields are left at zero until the recording is finalized.
func (h Header) writeTemplate(sampleRate int) {
	copy(h[offRIFFTag:], "RIFF")
	h.le32(offRIFFSize, 0)
	copy(h[offWAVETag:], "WAVE")
	copy(h[offFmtTag:], "fmt ")
	h.le32(offFmtSize, fmtChunkSize)
	h.le16(offFormatTag, formatPCM)
	h.le16(offChannels, Channels)
	h.le32(offSampleRate, uint32(sampleRate))

	blockAlign := Channels * BitsPerSample / 8
	h.le16(offBlockAlign, uint16(blockAlign))
	h.le32(offByteRate, uint32(sampleRate*blockAlign))
	h.le16(offBitsPerSample, BitsPerSample)

	copy(h[offDataTag:], "data")
	h.le32(offDataSize, 0)
}

func (h Header) le16(off int, v uint16) { binary.LittleEndian.PutUint16(h[off:], v) }
func (h Header) le32(off int, v uint32) { binary.LittleEndian.PutUint32(h[off:], v) }

func (h Header) u16(off int) uint16 { return binary.LittleEndian.Uint16(h[off:]) }
func (h Header) u32(off int) uint32 { return binary.LittleEndian.Uint32(h[off:]) }

// RIFFSize is the total file size minus the 8-byte RIFF preamble.
func (h Header) RIFFSize() uint32 { return h.u32(offRIFFSize) }

func (h Header) SetRIFFSize(v uint32) { h.le32(offRIFFSize, v) }

// DataSize is the length of the sample payload following the header.
func (h Header) DataSize() uint32 { return h.u32(offDataSize) }

func (h Header) SetDataSize(v uint32) { h.le32(offDataSize, v) }

func (h Header) FormatTag() uint16     { return h.u16(offFormatTag) }
func (h Header) Channels() uint16      { return h.u16(offChannels) }
func (h Header) SampleRate() uint32    { return h.u32(offSampleRate) }
func (h Header) ByteRate() uint32      { return h.u32(offByteRate) }
func (h Header) BlockAlign() uint16    { return h.u16(offBlockAlign) }
func (h Header) BitsPerSample() uint16 { return h.u16(offBitsPerSample) }

// Valid reports whether the chunk tags and the fmt chunk size are in place.
func (h Header) Valid() bool {
	if len(h) < HeaderSize {
		return false
	}
	return bytes.Equal(h[offRIFFTag:offRIFFTag+4], []byte("RIFF")) &&
		bytes.Equal(h[offWAVETag:offWAVETag+4], []byte("WAVE")) &&
		bytes.Equal(h[offFmtTag:offFmtTag+4], []byte("fmt ")) &&
		bytes.Equal(h[offDataTag:offDataTag+4], []byte("data")) &&
		h.u32(offFmtSize) == fmtChunkSize
}
