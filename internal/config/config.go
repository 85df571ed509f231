// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SimulationConfig holds clock and headless physics settings.
type SimulationConfig struct {
	// FrameRateHz is the target rate of the variable frame clock.
	FrameRateHz float64 `mapstructure:"frame_rate_hz"`
	// FixedRateHz is the rate of the fixed physics clock.
	FixedRateHz float64 `mapstructure:"fixed_rate_hz"`
	// MaxSubsteps caps the number of fixed steps run for a single frame.
	MaxSubsteps int `mapstructure:"max_substeps"`
	// Gravity is the downward acceleration in m/s².
	Gravity float64 `mapstructure:"gravity"`
	// LinearDrag is the per-second linear velocity damping applied to bodies.
	LinearDrag float64 `mapstructure:"linear_drag"`
	// AngularDrag is the per-second angular velocity damping applied to bodies.
	AngularDrag float64 `mapstructure:"angular_drag"`
}

// FrameInterval returns the nominal duration of one frame.
//
// Precondition: FrameRateHz > 0.
func (s SimulationConfig) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / s.FrameRateHz)
}

// FixedStep returns the fixed physics step in seconds.
//
// Precondition: FixedRateHz > 0.
func (s SimulationConfig) FixedStep() float64 {
	return 1 / s.FixedRateHz
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates the YAML and Lua content the sandbox loads.
type ContentConfig struct {
	// SpawnDir holds spawnable entity definitions (characters and vehicles).
	SpawnDir string `mapstructure:"spawn_dir"`
	// TuningDir holds named vehicle tuning assets spawn definitions may
	// reference. Empty disables tuning assets.
	TuningDir string `mapstructure:"tuning_dir"`
	// InputScript is an optional Lua file producing input snapshots.
	InputScript string `mapstructure:"input_script"`
}

// DamageConfig holds cosmetic burnout and explosion settings shared by all vehicles.
type DamageConfig struct {
	BurnDuration      time.Duration `mapstructure:"burn_duration"`
	FadeDuration      time.Duration `mapstructure:"fade_duration"`
	SmolderDuration   time.Duration `mapstructure:"smolder_duration"`
	FinalDesaturation float64       `mapstructure:"final_desaturation"`
	FinalDarken       float64       `mapstructure:"final_darken"`
	ExplosionImpulse  float64       `mapstructure:"explosion_impulse"`
	ExplosionTorque   float64       `mapstructure:"explosion_torque"`
}

// CameraConfig holds third-person rig settings.
type CameraConfig struct {
	Distance float64 `mapstructure:"distance"`
	Height   float64 `mapstructure:"height"`
	// Sensitivity is degrees of rotation per unit of look input.
	Sensitivity float64 `mapstructure:"sensitivity"`
	// MinPitch and MaxPitch bound the look pitch in degrees; positive looks down.
	MinPitch float64 `mapstructure:"min_pitch"`
	MaxPitch float64 `mapstructure:"max_pitch"`
	// ExplosionShake and ExplosionShakeAmplitude shake the camera when a vehicle explodes.
	ExplosionShake          time.Duration `mapstructure:"explosion_shake"`
	ExplosionShakeAmplitude float64       `mapstructure:"explosion_shake_amplitude"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per script call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Content    ContentConfig    `mapstructure:"content"`
	Damage     DamageConfig     `mapstructure:"damage"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDamage(c.Damage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCamera(c.Camera); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.FrameRateHz <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.frame_rate_hz must be > 0, got %g", s.FrameRateHz))
	}
	if s.FixedRateHz <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.fixed_rate_hz must be > 0, got %g", s.FixedRateHz))
	}
	if s.MaxSubsteps < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_substeps must be >= 1, got %d", s.MaxSubsteps))
	}
	if s.Gravity < 0 {
		errs = append(errs, "simulation.gravity must not be negative")
	}
	if s.LinearDrag < 0 || s.AngularDrag < 0 {
		errs = append(errs, "simulation drag coefficients must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDamage(d DamageConfig) error {
	var errs []string
	if d.BurnDuration < 0 || d.FadeDuration < 0 || d.SmolderDuration < 0 {
		errs = append(errs, "damage durations must not be negative")
	}
	if d.FinalDesaturation < 0 || d.FinalDesaturation > 1 {
		errs = append(errs, fmt.Sprintf("damage.final_desaturation must be in [0, 1], got %g", d.FinalDesaturation))
	}
	if d.FinalDarken < 0.1 || d.FinalDarken > 1 {
		errs = append(errs, fmt.Sprintf("damage.final_darken must be in [0.1, 1], got %g", d.FinalDarken))
	}
	if d.ExplosionImpulse < 0 || d.ExplosionTorque < 0 {
		errs = append(errs, "damage explosion magnitudes must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCamera(c CameraConfig) error {
	var errs []string
	if c.Distance < 0 || c.Height < 0 || c.Sensitivity < 0 {
		errs = append(errs, "camera distance, height and sensitivity must not be negative")
	}
	if c.MinPitch < -90 || c.MaxPitch > 90 || c.MinPitch > c.MaxPitch {
		errs = append(errs, fmt.Sprintf("camera pitch range [%g, %g] must be ordered within [-90, 90]", c.MinPitch, c.MaxPitch))
	}
	if c.ExplosionShake < 0 || c.ExplosionShakeAmplitude < 0 {
		errs = append(errs, "camera explosion shake must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MOTORPOOL_ prefix
	v.SetEnvPrefix("MOTORPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by the built-in defaults alone.
//
// Postcondition: Returns a Config for which Validate returns nil.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic("config: built-in defaults are invalid: " + err.Error())
	}
	return cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("simulation.frame_rate_hz", 60.0)
	v.SetDefault("simulation.fixed_rate_hz", 50.0)
	v.SetDefault("simulation.max_substeps", 8)
	v.SetDefault("simulation.gravity", 9.81)
	v.SetDefault("simulation.linear_drag", 0.05)
	v.SetDefault("simulation.angular_drag", 0.7)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.spawn_dir", "content/spawn")
	v.SetDefault("content.tuning_dir", "")
	v.SetDefault("content.input_script", "")

	v.SetDefault("damage.burn_duration", "2s")
	v.SetDefault("damage.fade_duration", "1250ms")
	v.SetDefault("damage.smolder_duration", "1s")
	v.SetDefault("damage.final_desaturation", 0.85)
	v.SetDefault("damage.final_darken", 0.55)
	v.SetDefault("damage.explosion_impulse", 2200.0)
	v.SetDefault("damage.explosion_torque", 1200.0)

	v.SetDefault("camera.distance", 4.5)
	v.SetDefault("camera.height", 1.7)
	v.SetDefault("camera.sensitivity", 2.0)
	v.SetDefault("camera.min_pitch", -35.0)
	v.SetDefault("camera.max_pitch", 70.0)
	v.SetDefault("camera.explosion_shake", "600ms")
	v.SetDefault("camera.explosion_shake_amplitude", 0.35)

	v.SetDefault("scripting.instruction_limit", 0)
}
