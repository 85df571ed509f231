package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoScript is returned when a script name has no loaded VM.
var ErrNoScript = errors.New("scripting: no script loaded")

// StatusInfo is a snapshot of the player's situation passed to Lua.
type StatusInfo struct {
	// Mode is "on_foot" or "in_vehicle".
	Mode    string
	Vehicle string
	Speed   float64
	X, Y, Z float64
	Wrecks  int
}

// Manager owns one sandboxed LState per named script and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after loading completes. Each
// LState is single-threaded; calls to the same script are serialized.
type Manager struct {
	mu     sync.Mutex
	states map[string]*lua.LState
	limit  int
	logger *zap.Logger

	// Injected after construction. nil = engine.status returns nil.
	QueryStatus func() *StatusInfo
}

// NewManager creates a Manager whose hooks run under instLimit opcodes per call.
//
// Precondition: logger must be non-nil; instLimit >= 0, 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no scripts.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*lua.LState),
		limit:  instLimit,
		logger: logger,
	}
}

// LoadFile creates a VM named name, registers the engine module and runs path.
// Loading a name again replaces its VM.
//
// Precondition: name must be non-empty.
// Postcondition: Returns an error on read, syntax or runtime failure; the previous VM is kept.
func (m *Manager) LoadFile(name, path string) error {
	return m.load(name, []string{path})
}

// LoadDir is LoadFile for every *.lua file in dir, in lexicographic order, sharing one VM.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadDir(name, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.load(name, luaFiles)
}

// LoadString runs src in a new VM named name.
func (m *Manager) LoadString(name, src string) error {
	L := NewSandboxedState()
	m.RegisterModules(L)
	done := Budget(L, m.limit)
	err := L.DoString(src)
	done()
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	m.install(name, L)
	return nil
}

func (m *Manager) load(name string, paths []string) error {
	if name == "" {
		return errors.New("scripting: script name must not be empty")
	}
	L := NewSandboxedState()
	m.RegisterModules(L)

	for _, path := range paths {
		done := Budget(L, m.limit)
		err := L.DoFile(path)
		done()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
		}
	}
	m.install(name, L)
	m.logger.Debug("script loaded", zap.String("script", name), zap.Int("files", len(paths)))
	return nil
}

func (m *Manager) install(name string, L *lua.LState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.states[name]; ok {
		old.Close()
	}
	m.states[name] = L
}

// Loaded reports whether name has a VM.
func (m *Manager) Loaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[name]
	return ok
}

// CallHook calls the Lua global hook in name's VM with one return value.
// A missing hook returns (LNil, nil). Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn and returned.
//
// Postcondition: Returns the hook's first return value, or LNil.
func (m *Manager) CallHook(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[name]
	if !ok {
		return lua.LNil, fmt.Errorf("%w: %q", ErrNoScript, name)
	}
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	done := Budget(L, m.limit)
	err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	done()
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: %s.%s: %w", name, hook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, L := range m.states {
		L.Close()
		delete(m.states, name)
	}
}
