// ABOUTME: Audio decoder package for live-session and relay codecs
// ABOUTME: Provides Decoder interface and implementations for PCM and Opus
// Package decode provides audio decoders for the chunk codecs the assistant
// receives.
//
// Supports: PCM (16-bit and 24-bit little-endian), Opus (one packet per chunk)
//
// All decoders output int32 samples in 24-bit range. A chunk that cannot be
// decoded yields an error wrapping ErrMalformed.
//
// Example:
//
//	decoder, err := decode.New(audio.SessionOutput)
//	samples, err := decoder.Decode(chunk)
package decode
