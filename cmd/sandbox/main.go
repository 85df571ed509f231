// Package main runs the headless vehicle sandbox: it loads the spawn
// content, drives the scene from a scripted input source and logs the
// player's progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/motorpool/internal/config"
	"github.com/cory-johannsen/motorpool/internal/game/input"
	"github.com/cory-johannsen/motorpool/internal/game/spawn"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
	"github.com/cory-johannsen/motorpool/internal/observability"
	"github.com/cory-johannsen/motorpool/internal/scripting"
	"github.com/cory-johannsen/motorpool/internal/server"
	"github.com/cory-johannsen/motorpool/internal/simulation"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "spawn definition directory (overrides content.spawn_dir)")
	scriptPath := flag.String("script", "", "input script, .lua or .yaml (overrides content.input_script)")
	duration := flag.Duration("duration", 0, "how long to run; 0 runs until interrupted")
	fast := flag.Bool("fast", false, "step frames back to back instead of in real time")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentDir != "" {
		cfg.Content.SpawnDir = *contentDir
	}
	if *scriptPath != "" {
		cfg.Content.InputScript = *scriptPath
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	scripts := scripting.NewManager(cfg.Scripting.InstructionLimit, observability.Component(logger, "lua"))
	defer scripts.Close()

	source, err := openSource(cfg, scripts)
	if err != nil {
		logger.Fatal("opening input source", zap.Error(err))
	}

	scene := simulation.NewScene(cfg, source, nil, logger)
	scripts.QueryStatus = func() *scripting.StatusInfo { return statusInfo(scene.Status()) }

	defs, err := loadContent(cfg.Content)
	if err != nil {
		logger.Fatal("loading spawn content", zap.Error(err))
	}
	if err := scene.Load(context.Background(), defs); err != nil {
		logger.Fatal("spawning content", zap.Error(err))
	}
	logger.Info("scene loaded",
		zap.Int("entities", scene.Spawner().Registry().Len()),
		zap.String("spawn_dir", cfg.Content.SpawnDir),
		zap.String("input", cfg.Content.InputScript),
		zap.Duration("elapsed", time.Since(start)),
	)

	scene.Loop().RegisterFrame("report", reporter(scene, logger))

	stats := make(chan simulation.FrameStats, 64)
	scene.Loop().Subscribe(stats)

	lc := server.NewLifecycle(logger)
	lc.Add("frame-stats", server.ServiceFunc(func(ctx context.Context) error {
		return watchStats(ctx, stats, logger)
	}))
	lc.Add("simulation", server.ServiceFunc(func(ctx context.Context) error {
		return runScene(ctx, scene, cfg.Simulation, *duration, *fast)
	}))

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("sandbox failed", zap.Error(err))
	}
	st := scene.Status()
	logger.Info("sandbox finished",
		zap.Duration("simulated", scene.Loop().Now()),
		zap.Stringer("mode", st.Mode),
		zap.Int("wrecks", st.Wrecks),
	)
}

// loadContent reads the spawn definitions and fills in their named tunings.
func loadContent(c config.ContentConfig) ([]spawn.Config, error) {
	defs, err := spawn.LoadDir(c.SpawnDir)
	if err != nil {
		return nil, err
	}
	if c.TuningDir == "" {
		return defs, nil
	}
	tunings, err := vehicle.LoadTunings(c.TuningDir)
	if err != nil {
		return nil, err
	}
	if err := spawn.ResolveTunings(defs, tunings); err != nil {
		return nil, err
	}
	return defs, nil
}

// openSource picks the input source from the configured script's extension.
func openSource(cfg config.Config, scripts *scripting.Manager) (input.Source, error) {
	path := cfg.Content.InputScript
	switch filepath.Ext(path) {
	case "":
		return input.NewStaticSource(input.Snapshot{}), nil
	case ".lua":
		if err := scripts.LoadFile("input", path); err != nil {
			return nil, err
		}
		return scripting.NewInputScript(scripts, "input", cfg.Simulation.FrameInterval()), nil
	case ".yaml", ".yml":
		seq, err := input.LoadSequenceFromFile(path)
		if err != nil {
			return nil, err
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("unsupported input script %q", path)
	}
}

func runScene(ctx context.Context, scene *simulation.Scene, sim config.SimulationConfig, d time.Duration, fast bool) error {
	if fast {
		if d <= 0 {
			return errors.New("-fast needs a positive -duration")
		}
		interval := sim.FrameInterval()
		for elapsed := time.Duration(0); elapsed < d; elapsed += interval {
			if err := ctx.Err(); err != nil {
				return err
			}
			scene.Advance(interval)
		}
		return nil
	}
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	err := scene.Loop().Run(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// reporter logs the scene status once per simulated second.
func reporter(scene *simulation.Scene, logger *zap.Logger) simulation.Ticker {
	var since time.Duration
	last := scene.Status()
	return simulation.TickerFunc(func(dt time.Duration) {
		st := scene.Status()
		if st.Mode != last.Mode {
			logger.Info("mode changed", zap.Stringer("mode", st.Mode), zap.String("vehicle", st.Vehicle.String()))
		}
		last = st
		since += dt
		if since < time.Second {
			return
		}
		since = 0
		p := st.PlayerPosition.Position
		logger.Info("status",
			zap.Stringer("mode", st.Mode),
			zap.String("vehicle", st.Vehicle.String()),
			zap.Float64("speed", st.Speed),
			zap.Float64s("position", []float64{p.X(), p.Y(), p.Z()}),
			zap.Int("wrecks", st.Wrecks),
		)
	})
}

func watchStats(ctx context.Context, stats <-chan simulation.FrameStats, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-stats:
			if s.Dropped > 0 {
				logger.Warn("simulation falling behind",
					zap.Uint64("frame", s.Frame),
					zap.Int("dropped_steps", s.Dropped),
				)
			}
		}
	}
}

func statusInfo(st simulation.Status) *scripting.StatusInfo {
	p := st.PlayerPosition.Position
	return &scripting.StatusInfo{
		Mode:    st.Mode.String(),
		Vehicle: st.Vehicle.String(),
		Speed:   st.Speed,
		X:       p.X(),
		Y:       p.Y(),
		Z:       p.Z(),
		Wrecks:  st.Wrecks,
	}
}
