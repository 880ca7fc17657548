// ABOUTME: Sample rate conversion package
// ABOUTME: Linear interpolation resampler and mono downmix helpers
// Package resample converts between sample rates and channel layouts.
//
// The relay uses it to bring arbitrary MP3 files down to the 24kHz mono
// session format, and capture uses it when a device will not open at 16kHz.
//
// Example:
//
//	r := resample.New(44100, 24000, 1)
//	out := r.Process(resample.Downmix(samples, 2))
package resample
