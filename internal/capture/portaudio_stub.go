//go:build !portaudio

// ABOUTME: PortAudio capture stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"context"
	"fmt"

	"github.com/zimcore/argon/pkg/audio"
)

// PortAudio capture implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio capturer
func NewPortAudio(format audio.Format) Capturer {
	return &PortAudio{}
}

// Start reports that PortAudio is not compiled in
func (p *PortAudio) Start(ctx context.Context, out chan<- []byte) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
