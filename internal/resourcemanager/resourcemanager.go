// Package resourcemanager owns imported native buffer handles and the
// GPU/media resources derived from them, the WSI-layer collaborator the
// display queue treats as an external dependency (spec §6).
package resourcemanager

import (
	"fmt"
	"sync"

	"github.com/matjam/hwcomposer/internal/overlay"
)

// Manager tracks every Buffer imported for the lifetime of a display, so a
// reset (mode change, HandleExit) can purge them all in one pass.
type Manager struct {
	mu      sync.Mutex
	buffers map[*overlay.Buffer]struct{}
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{buffers: make(map[*overlay.Buffer]struct{})}
}

// Import registers a buffer as owned by this manager. Purge operates on the
// registered set; CreateFrameBuffer does not consult it.
func (m *Manager) Import(b *overlay.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers[b] = struct{}{}
}

// Release removes a single buffer from the tracked set without touching any
// other state; used when a layer's buffer is replaced mid-lifetime.
func (m *Manager) Release(b *overlay.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, b)
}

// Purge drops every tracked buffer, called on a full queue reset. It does
// not close PrimeFD itself: ownership of the underlying fd was never taken
// by this manager, only the bookkeeping record was.
func (m *Manager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers = make(map[*overlay.Buffer]struct{})
}

// Count reports how many buffers are currently tracked, used by tests and
// status dumps.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers)
}

// Validate returns an error if a queue cannot be initialized without a
// resource manager, matching the "fatal init" failure category in spec §7.
func Validate(m *Manager) error {
	if m == nil {
		return fmt.Errorf("resourcemanager: nil manager")
	}
	return nil
}
