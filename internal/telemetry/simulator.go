// ABOUTME: Telemetry simulator driving stats, alerts and devices on a ticker
// ABOUTME: Safe for concurrent use; publishes snapshots through a callback
package telemetry

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert is a dismissible system warning
type Alert struct {
	ID       string
	Type     string
	Category string
	Message  string
	Time     time.Time
}

// Snapshot is a consistent copy of simulator state
type Snapshot struct {
	Stats   Stats
	Alerts  []Alert
	Devices []Device
}

// Config holds simulator settings
type Config struct {
	Interval    time.Duration
	AlertChance float64
	MaxAlerts   int
	Devices     []Device
	Rand        *rand.Rand

	OnUpdate func(Snapshot)
}

// Simulator produces telemetry
type Simulator struct {
	config Config
	rng    *rand.Rand

	mu         sync.Mutex
	stats      Stats
	alerts     []Alert
	devices    []Device
	thinking   bool
	authorized bool
}

// NewSimulator creates a simulator starting at InitialStats
func NewSimulator(config Config) *Simulator {
	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if config.MaxAlerts <= 0 {
		config.MaxAlerts = 3
	}

	devices := make([]Device, len(config.Devices))
	copy(devices, config.Devices)

	return &Simulator{
		config:  config,
		rng:     rng,
		stats:   InitialStats,
		devices: devices,
	}
}

// Run ticks until ctx is cancelled
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Tick()
			if s.config.OnUpdate != nil {
				s.config.OnUpdate(snap)
			}
		}
	}
}

// Tick advances the simulation by one step
func (s *Simulator) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = s.stats.next(s.rng, s.thinking)

	if s.authorized && s.rng.Float64() < s.config.AlertChance {
		alert := Alert{
			ID:       uuid.New().String(),
			Type:     "WARNING",
			Category: "STABILITY",
			Message:  "Spectral drift detected in core.",
			Time:     time.Now(),
		}
		s.alerts = append([]Alert{alert}, s.alerts...)
		if len(s.alerts) > s.config.MaxAlerts {
			s.alerts = s.alerts[:s.config.MaxAlerts]
		}
		log.Printf("Alert raised: %s", alert.Message)
	}

	return s.snapshotLocked()
}

// SetThinking marks whether a reasoning query is running
func (s *Simulator) SetThinking(thinking bool) {
	s.mu.Lock()
	s.thinking = thinking
	s.mu.Unlock()
}

// SetAuthorized enables alerts once the operator has unlocked
func (s *Simulator) SetAuthorized(authorized bool) {
	s.mu.Lock()
	s.authorized = authorized
	s.mu.Unlock()
}

// DismissAlert removes an alert by ID
func (s *Simulator) DismissAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// TogglePower flips a device's power and returns the new state
func (s *Simulator) TogglePower(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].Name == name {
			s.devices[i].Powered = !s.devices[i].Powered
			log.Printf("Device %s powered=%v", name, s.devices[i].Powered)
			return s.devices[i].Powered, nil
		}
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
}

// Snapshot returns the current state
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Stats:   s.stats,
		Alerts:  make([]Alert, len(s.alerts)),
		Devices: make([]Device, len(s.devices)),
	}
	copy(snap.Alerts, s.alerts)
	copy(snap.Devices, s.devices)
	return snap
}
