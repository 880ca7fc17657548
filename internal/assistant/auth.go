// ABOUTME: Static password gate with attempt lockout
// ABOUTME: Compares input against the master password in constant time
package assistant

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrAccessDenied is returned for a wrong password
	ErrAccessDenied = errors.New("access denied")

	// ErrLocked is returned while the gate is locked out
	ErrLocked = errors.New("interface locked")
)

// Gate checks the master password
type Gate struct {
	password    string
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time

	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
}

// NewGate creates a gate. maxAttempts of zero never locks.
func NewGate(password string, maxAttempts int, lockout time.Duration) *Gate {
	return &Gate{
		password:    password,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// Check verifies a password attempt
func (g *Gate) Check(input string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.lockedUntil) {
		return fmt.Errorf("%w for %v", ErrLocked, g.lockedUntil.Sub(now).Round(time.Second))
	}

	if subtle.ConstantTimeCompare([]byte(input), []byte(g.password)) == 1 {
		g.failures = 0
		return nil
	}

	g.failures++
	if g.maxAttempts > 0 && g.failures >= g.maxAttempts {
		g.failures = 0
		g.lockedUntil = now.Add(g.lockout)
		return fmt.Errorf("%w: %w after %d attempts", ErrAccessDenied, ErrLocked, g.maxAttempts)
	}
	return ErrAccessDenied
}

// Locked reports whether attempts are currently refused
func (g *Gate) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.lockedUntil)
}
