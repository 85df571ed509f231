package simulation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/game/interaction"
	"github.com/cory-johannsen/motorpool/internal/game/spawn"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
	"github.com/cory-johannsen/motorpool/internal/scripting"
	"github.com/cory-johannsen/motorpool/internal/simulation"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func TestShippedContent_DriveScriptEntersDrivesAndExits(t *testing.T) {
	root := repoRoot(t)
	cfg, err := config.Load(filepath.Join(root, "configs", "dev.yaml"))
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	scripts := scripting.NewManager(cfg.Scripting.InstructionLimit, logger)
	defer scripts.Close()
	require.NoError(t, scripts.LoadFile("input", filepath.Join(root, cfg.Content.InputScript)))

	scene := simulation.NewScene(cfg, scripting.NewInputScript(scripts, "input", cfg.Simulation.FrameInterval()), nil, logger)
	scripts.QueryStatus = func() *scripting.StatusInfo {
		st := scene.Status()
		return &scripting.StatusInfo{Mode: st.Mode.String(), Vehicle: st.Vehicle.String(), Speed: st.Speed}
	}

	defs, err := spawn.LoadDir(filepath.Join(root, cfg.Content.SpawnDir))
	require.NoError(t, err)
	tunings, err := vehicle.LoadTunings(filepath.Join(root, cfg.Content.TuningDir))
	require.NoError(t, err)
	require.NoError(t, spawn.ResolveTunings(defs, tunings))
	require.NoError(t, scene.Load(context.Background(), defs))
	sedan, ok := scene.Vehicle("sedan-1")
	require.True(t, ok)
	hatchback, ok := scene.Vehicle("hatchback-1")
	require.True(t, ok)
	require.NotNil(t, hatchback.Tuning())
	assert.Equal(t, 16.0, hatchback.Tuning().MaxSpeed)
	start := sedan.Transform().Position

	scene.Advance(cfg.Simulation.FrameInterval())
	require.Equal(t, interaction.ModeInVehicle, scene.Status().Mode)

	for i := 0; i < 600; i++ {
		scene.Advance(cfg.Simulation.FrameInterval())
	}
	assert.Equal(t, interaction.ModeOnFoot, scene.Status().Mode)
	assert.Greater(t, sedan.Transform().Position.Sub(start).Len(), 5.0)
	assert.True(t, scene.Player().ControlEnabled())
}
