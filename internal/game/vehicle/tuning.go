package vehicle

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/motorpool/internal/game/damage"
)

// Tuning is the immutable handling configuration for one vehicle type.
type Tuning struct {
	// Name identifies the tuning in logs.
	Name string `yaml:"name"`

	// Mass of the chassis in kg.
	Mass float64 `yaml:"mass"`

	MotorTorque   float64 `yaml:"motor_torque"`
	BrakeTorque   float64 `yaml:"brake_torque"`
	MaxSteerAngle float64 `yaml:"max_steer_angle"`
	// MaxSpeed in m/s. 18 m/s is about 65 km/h.
	MaxSpeed float64 `yaml:"max_speed"`

	// SteerLowSpeed is the speed below which steering has full authority.
	SteerLowSpeed float64 `yaml:"steer_low_speed"`
	// SteerHighSpeed is the speed at and above which steering is scaled by SteerFloor.
	SteerHighSpeed float64 `yaml:"steer_high_speed"`
	SteerFloor     float64 `yaml:"steer_floor"`

	CenterOfMassOffset mgl64.Vec3 `yaml:"center_of_mass_offset"`
	FrontAntiRoll      float64    `yaml:"front_anti_roll"`
	RearAntiRoll       float64    `yaml:"rear_anti_roll"`

	// NitroMultiplier is the motor torque multiplier at full ramp.
	NitroMultiplier float64 `yaml:"nitro_multiplier"`
	NitroRampUp     float64 `yaml:"nitro_ramp_up_seconds"`
	NitroRampDown   float64 `yaml:"nitro_ramp_down_seconds"`
	// NitroCapacity is how long nitro can be held from full, in seconds.
	NitroCapacity float64 `yaml:"nitro_capacity_seconds"`
	// NitroRegenRate is seconds of capacity regained per idle second.
	NitroRegenRate float64 `yaml:"nitro_regen_rate"`

	HitMinRelativeSpeed float64 `yaml:"hit_min_relative_speed"`
	MaxHits             int     `yaml:"max_hits"`
	HitCooldown         float64 `yaml:"hit_cooldown_seconds"`

	// ParkingBrakeTorque holds the vehicle while nobody drives it.
	ParkingBrakeTorque float64 `yaml:"parking_brake_torque"`
}

// DefaultTuning returns the stock passenger-car tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Name:                "default",
		Mass:                1400,
		MotorTorque:         1200,
		BrakeTorque:         3000,
		MaxSteerAngle:       30,
		MaxSpeed:            18,
		SteerLowSpeed:       5,
		SteerHighSpeed:      25,
		SteerFloor:          0.65,
		CenterOfMassOffset:  mgl64.Vec3{0, -0.5, 0},
		FrontAntiRoll:       9000,
		RearAntiRoll:        6500,
		NitroMultiplier:     1.6,
		NitroRampUp:         1.2,
		NitroRampDown:       0.6,
		NitroCapacity:       3,
		NitroRegenRate:      0.75,
		HitMinRelativeSpeed: 6,
		MaxHits:             4,
		HitCooldown:         0.35,
		ParkingBrakeTorque:  2000,
	}
}

// Validate checks all tuning invariants.
//
// Postcondition: Returns nil if the tuning is valid, or an error describing all violations.
func (t Tuning) Validate() error {
	var errs []string

	nonNegative := map[string]float64{
		"mass":                    t.Mass,
		"motor_torque":            t.MotorTorque,
		"brake_torque":            t.BrakeTorque,
		"max_speed":               t.MaxSpeed,
		"steer_low_speed":         t.SteerLowSpeed,
		"steer_high_speed":        t.SteerHighSpeed,
		"front_anti_roll":         t.FrontAntiRoll,
		"rear_anti_roll":          t.RearAntiRoll,
		"nitro_multiplier":        t.NitroMultiplier,
		"nitro_ramp_up_seconds":   t.NitroRampUp,
		"nitro_ramp_down_seconds": t.NitroRampDown,
		"nitro_capacity_seconds":  t.NitroCapacity,
		"nitro_regen_rate":        t.NitroRegenRate,
		"hit_min_relative_speed":  t.HitMinRelativeSpeed,
		"hit_cooldown_seconds":    t.HitCooldown,
		"parking_brake_torque":    t.ParkingBrakeTorque,
	}
	keys := make([]string, 0, len(nonNegative))
	for k := range nonNegative {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nonNegative[k] < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0, got %g", k, nonNegative[k]))
		}
	}

	if t.MaxSteerAngle <= 0 || t.MaxSteerAngle > 45 {
		errs = append(errs, fmt.Sprintf("max_steer_angle must be in (0, 45], got %g", t.MaxSteerAngle))
	}
	if t.MaxHits < 1 {
		errs = append(errs, fmt.Sprintf("max_hits must be >= 1, got %d", t.MaxHits))
	}
	if t.SteerFloor < 0 || t.SteerFloor > 1 {
		errs = append(errs, fmt.Sprintf("steer_floor must be in [0, 1], got %g", t.SteerFloor))
	}
	if t.SteerHighSpeed < t.SteerLowSpeed {
		errs = append(errs, "steer_high_speed must be >= steer_low_speed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("tuning %q invalid: %s", t.Name, strings.Join(errs, "; "))
	}
	return nil
}

// DamageSettings returns the hit-registration subset consumed by the damage machine.
func (t *Tuning) DamageSettings() *damage.Settings {
	if t == nil {
		return nil
	}
	return &damage.Settings{
		MinRelativeSpeed: t.HitMinRelativeSpeed,
		MaxHits:          t.MaxHits,
		Cooldown:         time.Duration(math.Round(t.HitCooldown * float64(time.Second))),
	}
}

// requiredFields marks the tuning keys that have no default.
type requiredFields struct {
	MotorTorque   *float64 `yaml:"motor_torque"`
	BrakeTorque   *float64 `yaml:"brake_torque"`
	MaxSteerAngle *float64 `yaml:"max_steer_angle"`
}

func (r requiredFields) missing() []string {
	var out []string
	if r.MotorTorque == nil {
		out = append(out, "motor_torque")
	}
	if r.BrakeTorque == nil {
		out = append(out, "brake_torque")
	}
	if r.MaxSteerAngle == nil {
		out = append(out, "max_steer_angle")
	}
	return out
}

// DecodeTuning decodes a tuning from a YAML node, applying defaults for
// every optional field.
//
// Postcondition: Returns a valid Tuning or a non-nil error.
func DecodeTuning(node *yaml.Node) (Tuning, error) {
	var req requiredFields
	if err := node.Decode(&req); err != nil {
		return Tuning{}, fmt.Errorf("decoding tuning: %w", err)
	}
	if missing := req.missing(); len(missing) > 0 {
		return Tuning{}, fmt.Errorf("tuning missing required fields: %s", strings.Join(missing, ", "))
	}

	t := DefaultTuning()
	if err := node.Decode(&t); err != nil {
		return Tuning{}, fmt.Errorf("decoding tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// LoadTuningFromBytes parses a single YAML tuning asset.
//
// Postcondition: Returns a valid Tuning or a non-nil error.
func LoadTuningFromBytes(data []byte) (Tuning, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Tuning{}, fmt.Errorf("parsing tuning YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return Tuning{}, fmt.Errorf("parsing tuning YAML: empty document")
	}
	return DecodeTuning(doc.Content[0])
}

// LoadTunings reads every .yaml file in dir and returns the tunings keyed by name.
// A file without a name is keyed by its base name.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all tunings or the first error encountered.
func LoadTunings(dir string) (map[string]Tuning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tuning dir %q: %w", dir, err)
	}
	out := make(map[string]Tuning)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t, err := LoadTuningFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if t.Name == "" || t.Name == DefaultTuning().Name {
			t.Name = strings.TrimSuffix(e.Name(), ".yaml")
		}
		if _, dup := out[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tuning name %q in %q", t.Name, path)
		}
		out[t.Name] = t
	}
	return out, nil
}
