// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the audio types shared by playback, capture and the relay.
//
//   - Format: codec, sample rate, channels, bit depth, plus frame/time math
//   - Buffer: decoded PCM ready to be scheduled on a sink
//
// Samples are carried as int32 in the 24-bit range so that 16-bit and
// 24-bit sources mix without loss.
//
// Example:
//
//	buf := audio.Buffer{Samples: samples, Format: audio.SessionOutput}
//	fmt.Println(buf.Duration())
package audio
