// ABOUTME: Output device selection
// ABOUTME: Maps a backend name from flags or config to a Device
package player

import (
	"fmt"
	"time"
)

// NewDevice returns the output backend with the given name. A zero buffer
// keeps the backend default.
func NewDevice(name string, buffer time.Duration) (Device, error) {
	switch name {
	case "", "oto":
		out := NewOutput()
		if buffer > 0 {
			out.BufferSize = buffer
		}
		return out, nil
	case "malgo":
		out := NewMalgoOutput()
		if buffer > 0 {
			out.BufferSize = buffer
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: oto, malgo)", name)
	}
}
