// ABOUTME: Audio encoder package for relay chunks
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode turns PCM into the chunk payloads streamed by the relay.
//
// Supports: PCM (16-bit and 24-bit), Opus (one 20ms packet per chunk)
//
// Example:
//
//	encoder, err := encode.New(format)
//	chunk, err := encoder.Encode(samples)
package encode
