package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine table into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.status() -> {mode, vehicle, speed, x, y, z, wrecks} or nil
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	log := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(log, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", log)

	L.SetField(engine, "status", L.NewFunction(func(L *lua.LState) int {
		if m.QueryStatus == nil {
			L.Push(lua.LNil)
			return 1
		}
		st := m.QueryStatus()
		if st == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "mode", lua.LString(st.Mode))
		L.SetField(t, "vehicle", lua.LString(st.Vehicle))
		L.SetField(t, "speed", lua.LNumber(st.Speed))
		L.SetField(t, "x", lua.LNumber(st.X))
		L.SetField(t, "y", lua.LNumber(st.Y))
		L.SetField(t, "z", lua.LNumber(st.Z))
		L.SetField(t, "wrecks", lua.LNumber(st.Wrecks))
		L.Push(t)
		return 1
	}))

	L.SetGlobal("engine", engine)
}
