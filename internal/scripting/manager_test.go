package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/motorpool/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return scripting.NewManager(0, zap.New(core)), logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_LoadFile_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadFile("drive", filepath.Join(dir, "hooks.lua")))
	assert.True(t, mgr.Loaded("drive"))
	ret, err := mgr.CallHook("drive", "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("empty", `-- no functions`))
	ret, err := mgr.CallHook("empty", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownScript(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret, err := mgr.CallHook("no_such_script", "some_hook")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("bad", `
		function bad_hook()
			error("intentional error")
		end
	`))
	ret, err := mgr.CallHook("bad", "bad_hook")
	assert.Error(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_CallHook_RunawayHookIsStoppedAndVMSurvives(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(500, zap.New(core))
	require.NoError(t, mgr.LoadString("spin", `
		function spin() while true do end end
		function ok() return 1 end
	`))
	_, err := mgr.CallHook("spin", "spin")
	assert.Error(t, err)

	ret, err := mgr.CallHook("spin", "ok")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestManager_LoadDir_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not lua`), 0644))
	require.NoError(t, mgr.LoadDir("ordered", dir))
	ret, err := mgr.CallHook("ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_Load_InvalidLuaKeepsPreviousVM(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("s", `function v() return 1 end`))
	assert.Error(t, mgr.LoadString("s", `this is not valid lua @@@@`))

	ret, err := mgr.CallHook("s", "v")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), ret)

	assert.Error(t, mgr.LoadDir("missing", filepath.Join(t.TempDir(), "nope")))
	assert.Error(t, mgr.LoadFile("", "x.lua"))
}

func TestEngineLog_WritesToLogger(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("log", `
		function do_log()
			engine.log.info("hello from lua")
			engine.log.warn("careful")
		end
	`))
	_, err := mgr.CallHook("log", "do_log")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("hello from lua").FilterLevelExact(zap.InfoLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("careful").FilterLevelExact(zap.WarnLevel).Len())
}

func TestEngineStatus(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("status", `
		function mode()
			local s = engine.status()
			if s == nil then return "none" end
			return s.mode .. ":" .. s.vehicle .. ":" .. tostring(s.speed)
		end
	`))

	ret, err := mgr.CallHook("status", "mode")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("none"), ret)

	mgr.QueryStatus = func() *scripting.StatusInfo {
		return &scripting.StatusInfo{Mode: "in_vehicle", Vehicle: "car", Speed: 4}
	}
	ret, err = mgr.CallHook("status", "mode")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("in_vehicle:car:4"), ret)
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(0, nil)
	})
}

func TestManager_Close_ReleasesScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("closing", `function get_x() return x end`))
	mgr.Close()
	assert.False(t, mgr.Loaded("closing"))
	_, err := mgr.CallHook("closing", "get_x")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
}

func TestProperty_CallHookConcurrentSameScript_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("conc", `
		function concurrent_hook(a, b)
			return a + b
		end
	`))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook("conc", "concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestProperty_CallHookMissingScriptNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "script")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		mgr.CallHook(name, hook) //nolint:errcheck
	})
}
