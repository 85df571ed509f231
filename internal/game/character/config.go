// Package character implements the on-foot player: camera-relative movement
// on the frame clock and interaction with nearby objects.
package character

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the movement tuning for a character type.
type Config struct {
	// WalkSpeed and SprintSpeed are in m/s at full stick deflection.
	WalkSpeed   float64 `yaml:"walk_speed"`
	SprintSpeed float64 `yaml:"sprint_speed"`
	// RotationSpeed is the slerp rate toward the move direction, per second.
	RotationSpeed float64 `yaml:"rotation_speed"`
	// CameraHeight places the camera target above the character origin.
	CameraHeight float64 `yaml:"camera_height"`
	// InteractRadius is the reach of the interaction scan in metres.
	InteractRadius float64 `yaml:"interact_radius"`
}

// DefaultConfig returns the stock character tuning.
func DefaultConfig() Config {
	return Config{
		WalkSpeed:      3.5,
		SprintSpeed:    6.5,
		RotationSpeed:  12,
		CameraHeight:   1.6,
		InteractRadius: 2,
	}
}

// Validate checks all config invariants.
//
// Postcondition: Returns nil if the config is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	if c.WalkSpeed < 0 {
		errs = append(errs, fmt.Sprintf("walk_speed must be >= 0, got %g", c.WalkSpeed))
	}
	if c.SprintSpeed < c.WalkSpeed {
		errs = append(errs, fmt.Sprintf("sprint_speed must be >= walk_speed, got %g", c.SprintSpeed))
	}
	if c.RotationSpeed <= 0 {
		errs = append(errs, fmt.Sprintf("rotation_speed must be > 0, got %g", c.RotationSpeed))
	}
	if c.InteractRadius <= 0 {
		errs = append(errs, fmt.Sprintf("interact_radius must be > 0, got %g", c.InteractRadius))
	}
	if len(errs) > 0 {
		return fmt.Errorf("character config invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DecodeConfig decodes a character config from a YAML node over the defaults.
//
// Postcondition: Returns a valid Config or a non-nil error.
func DecodeConfig(node *yaml.Node) (Config, error) {
	c := DefaultConfig()
	if node != nil {
		if err := node.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("decoding character config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
