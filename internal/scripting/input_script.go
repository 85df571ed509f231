package scripting

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/game/input"
)

// InputHook is the global a script defines to produce input:
//
//	function input(frame, t) return {move_x=0, move_y=1, look_x=0, look_y=0,
//	  sprint=false, interact=false, brake=false} end
//
// frame counts from 1 and t is seconds since the first read.
const InputHook = "input"

// InputScript is an input.Source driven by a Lua hook. A failing or
// missing hook yields a neutral snapshot.
type InputScript struct {
	mgr      *Manager
	name     string
	interval time.Duration
	frame    int
	logger   *zap.Logger
}

// NewInputScript reads input from the InputHook of the script loaded as name.
// interval is the nominal frame duration used to compute t.
//
// Precondition: mgr must be non-nil and have name loaded.
func NewInputScript(mgr *Manager, name string, interval time.Duration) *InputScript {
	if mgr == nil {
		panic("scripting.NewInputScript: manager must not be nil")
	}
	return &InputScript{mgr: mgr, name: name, interval: interval, logger: mgr.logger}
}

// Frame returns the number of snapshots read so far.
func (s *InputScript) Frame() int { return s.frame }

// Read implements input.Source.
func (s *InputScript) Read() input.Snapshot {
	s.frame++
	t := time.Duration(s.frame-1) * s.interval
	ret, err := s.mgr.CallHook(s.name, InputHook, lua.LNumber(s.frame), lua.LNumber(t.Seconds()))
	if err != nil {
		return input.Snapshot{}
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		if ret != lua.LNil {
			s.logger.Warn("input hook returned a non-table", zap.String("type", ret.Type().String()))
		}
		return input.Snapshot{}
	}
	return snapshotFromTable(tbl)
}

func snapshotFromTable(t *lua.LTable) input.Snapshot {
	return input.Snapshot{
		Move:            mgl64.Vec2{number(t, "move_x"), number(t, "move_y")},
		Look:            mgl64.Vec2{number(t, "look_x"), number(t, "look_y")},
		SprintHeld:      lua.LVAsBool(t.RawGetString("sprint")),
		InteractPressed: lua.LVAsBool(t.RawGetString("interact")),
		BrakeHeld:       lua.LVAsBool(t.RawGetString("brake")),
	}
}

func number(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}
