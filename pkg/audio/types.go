// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded buffers and sample/frame math
package audio

import (
	"strconv"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Well-known stream formats of the live session.
var (
	// SessionOutput is what the assistant speaks: 24kHz mono 16-bit PCM.
	SessionOutput = Format{Codec: "pcm", SampleRate: 24000, Channels: 1, BitDepth: 16}

	// SessionInput is what the microphone sends: 16kHz mono 16-bit PCM.
	SessionInput = Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16}
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// FrameBytes returns the encoded size of one PCM frame (all channels).
func (f Format) FrameBytes() int {
	return f.Channels * f.BitDepth / 8
}

// FramesToDuration converts a frame count to time on this format's clock.
func (f Format) FramesToDuration(frames int64) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(f.SampleRate))
}

// DurationToFrames converts a time on this format's clock to the nearest frame.
func (f Format) DurationToFrames(d time.Duration) int64 {
	if f.SampleRate <= 0 || d <= 0 {
		return 0
	}
	return (int64(d)*int64(f.SampleRate) + int64(time.Second)/2) / int64(time.Second)
}

// SameLayout reports whether two formats share sample rate and channel count.
func (f Format) SameLayout(o Format) bool {
	return f.SampleRate == o.SampleRate && f.Channels == o.Channels
}

// MIMEType returns the media type used by the live session for raw PCM.
func (f Format) MIMEType() string {
	return "audio/pcm;rate=" + strconv.Itoa(f.SampleRate)
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Samples []int32 // interleaved PCM samples in 24-bit range
	Format  Format
}

// Frames returns the number of whole frames in the buffer.
func (b Buffer) Frames() int64 {
	if b.Format.Channels <= 0 {
		return 0
	}
	return int64(len(b.Samples) / b.Format.Channels)
}

// Duration returns the playback length of the buffer, rounded up to the
// nanosecond so that back-to-back buffers never overlap.
func (b Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	n := b.Frames() * int64(time.Second)
	rate := int64(b.Format.SampleRate)
	return time.Duration((n + rate - 1) / rate)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Clamp24 limits a mixed sample to the 24-bit range.
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}
