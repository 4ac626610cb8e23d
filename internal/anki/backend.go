package anki

import (
	"fmt"
	"sync"
)

// Cursor walks the rows of one query result. Row is only valid after a
// Step that returned true. Free releases the cursor; Err reports any
// failure that terminated stepping early.
type Cursor interface {
	Step() bool
	Row() map[string]any
	Err() error
	Free()
}

// Database is a minimal handle over an opened collection blob.
type Database interface {
	Prepare(query string) (Cursor, error)
	Close() error
}

// Backend opens an in-memory database blob and exposes it as a Database.
// Implementations that need file-backed storage must write to a uniquely
// named scratch file and guarantee its removal when the Database closes.
type Backend interface {
	Name() string
	Open(blob []byte) (Database, error)
}

// BackendConstructor returns a fresh, unopened backend instance.
type BackendConstructor func() Backend

var (
	backendMu sync.RWMutex
	backends  = make(map[string]BackendConstructor)

	// Preference order for capability detection. The pure-Go sqlite
	// driver is always available and comes last as the safe fallback.
	backendPreference = []string{"sqlite"}

	selectOnce     sync.Once
	selectedName   string
	selectionError error
)

// RegisterBackend registers a backend constructor under a name. Backends
// register themselves in init functions.
func RegisterBackend(name string, ctor BackendConstructor) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = ctor
}

// NewBackend constructs the named backend, or returns a configuration
// error naming the known backends when it is not registered.
func NewBackend(name string) (Backend, error) {
	backendMu.RLock()
	ctor, ok := backends[name]
	backendMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown collection backend %q (registered: %v)", name, registeredBackends())
	}
	return ctor(), nil
}

// DefaultBackend picks a backend once per process, walking the preference
// list and settling on the first registered one. Every later call returns
// an instance of the same selection.
func DefaultBackend() (Backend, error) {
	selectOnce.Do(func() {
		for _, name := range backendPreference {
			backendMu.RLock()
			_, ok := backends[name]
			backendMu.RUnlock()
			if ok {
				selectedName = name
				return
			}
		}
		selectionError = fmt.Errorf("no collection backend available (registered: %v)", registeredBackends())
	})
	if selectionError != nil {
		return nil, selectionError
	}
	return NewBackend(selectedName)
}

func registeredBackends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
