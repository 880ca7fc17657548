// ABOUTME: Linked device registry
// ABOUTME: Tracks nearby devices, their link status and power state
package telemetry

import (
	"errors"
	"fmt"

	"github.com/zimcore/argon/internal/config"
)

// ErrUnknownDevice is returned for names not in the registry
var ErrUnknownDevice = errors.New("unknown device")

// DeviceStatus is the link state of a device
type DeviceStatus string

const (
	StatusLinked       DeviceStatus = "linked"
	StatusUnauthorized DeviceStatus = "unauthorized"
	StatusScanning     DeviceStatus = "scanning"
)

// Device is a linked or nearby device
type Device struct {
	Name     string
	Type     string
	Distance string
	Status   DeviceStatus
	Powered  bool
}

// DevicesFromConfig converts configured devices, rejecting unknown statuses
func DevicesFromConfig(configs []config.DeviceConfig) ([]Device, error) {
	devices := make([]Device, 0, len(configs))
	for _, c := range configs {
		status := DeviceStatus(c.Status)
		switch status {
		case StatusLinked, StatusUnauthorized, StatusScanning:
		case "":
			status = StatusLinked
		default:
			return nil, fmt.Errorf("device %s: unknown status %q", c.Name, c.Status)
		}
		devices = append(devices, Device{
			Name:     c.Name,
			Type:     c.Type,
			Distance: c.Distance,
			Status:   status,
			Powered:  c.Powered,
		})
	}
	return devices, nil
}
