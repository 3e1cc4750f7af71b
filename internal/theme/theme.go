// Package theme resolves and persists the display mode. The stored
// preference wins over the system appearance; the system appearance fills
// in when nothing is stored or storage is unreadable.
package theme

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"hunter/internal/session"
	"hunter/internal/settings"
)

// Mode is a display mode.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

func (m Mode) valid() bool {
	return m == Light || m == Dark
}

// Toggled returns the other mode.
func (m Mode) Toggled() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Manager owns the theme preference. The in-memory mode lives here; the
// store only provides durability.
type Manager struct {
	logger     *zap.Logger
	store      settings.Store
	systemMode func() Mode

	mu   sync.Mutex
	mode Mode
}

// NewManager builds a theme manager. systemMode reports the platform
// appearance and may be nil, in which case light is assumed.
func NewManager(logger *zap.Logger, store settings.Store, systemMode func() Mode) *Manager {
	if systemMode == nil {
		systemMode = func() Mode { return Light }
	}
	return &Manager{
		logger:     logger,
		store:      store,
		systemMode: systemMode,
	}
}

// InitialMode resolves the mode to start in. A stored preference takes
// precedence; anything unreadable or unrecognized falls back to the system
// appearance.
func (m *Manager) InitialMode(ctx context.Context) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = m.resolve(ctx)
	return m.mode
}

func (m *Manager) resolve(ctx context.Context) Mode {
	stored, err := m.store.Get(ctx, session.KeyTheme)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			m.logger.Warn("theme read failed", zap.Error(err))
		}
		return m.systemMode()
	}
	mode := Mode(stored)
	if !mode.valid() {
		return m.systemMode()
	}
	return mode
}

// Current reports the mode in effect, resolving it first if needed.
func (m *Manager) Current(ctx context.Context) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mode.valid() {
		m.mode = m.resolve(ctx)
	}
	return m.mode
}

// Toggle flips the mode and persists the choice. The flip always takes
// effect; a persist failure only costs durability and is logged.
func (m *Manager) Toggle(ctx context.Context) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mode.valid() {
		m.mode = m.resolve(ctx)
	}
	next := m.mode.Toggled()
	m.mode = next
	if err := m.store.Set(ctx, session.KeyTheme, string(next)); err != nil {
		m.logger.Warn("theme persist failed", zap.Error(err))
	}
	return next
}
