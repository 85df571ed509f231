// Package spawn loads spawnable entity definitions and builds entities from them.
package spawn

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/motorpool/internal/game/character"
	"github.com/cory-johannsen/motorpool/internal/game/entity"
	"github.com/cory-johannsen/motorpool/internal/game/vehicle"
)

// Kind selects the variant of a Config.
type Kind string

const (
	KindCharacter Kind = "character"
	KindVehicle   Kind = "vehicle"
)

// Config is a spawnable entity definition. Exactly one variant section is
// set, matching Kind; a vehicle may omit its tuning and then spawns inert.
type Config struct {
	ID entity.ID
	// Address names the blueprint the factory builds the entity from.
	Address string
	Kind    Kind
	// Position and Yaw (degrees) are the default placement.
	Position mgl64.Vec3
	Yaw      float64

	Character *character.Config
	Vehicle   *vehicle.Tuning
	// Paint overrides the blueprint body colour of a vehicle.
	Paint *colorful.Color
	// TuningName names a tuning asset filled in by ResolveTunings.
	TuningName string
}

// Placement returns the default spawn transform.
func (c Config) Placement() entity.Transform {
	return entity.Transform{
		Position: c.Position,
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(c.Yaw), mgl64.Vec3{0, 1, 0}),
	}
}

type header struct {
	ID        string     `yaml:"id"`
	Address   string     `yaml:"address"`
	Kind      Kind       `yaml:"kind"`
	Position  mgl64.Vec3 `yaml:"position"`
	Yaw       float64    `yaml:"yaw"`
	Paint     string     `yaml:"paint"`
	Tuning    string     `yaml:"tuning"`
	Character yaml.Node  `yaml:"character"`
	Vehicle   yaml.Node  `yaml:"vehicle"`
}

// UnmarshalYAML decodes the common header and then the variant section for Kind.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var h header
	if err := node.Decode(&h); err != nil {
		return err
	}
	out := Config{
		ID:       entity.ID(strings.TrimSpace(h.ID)),
		Address:  strings.TrimSpace(h.Address),
		Kind:     h.Kind,
		Position: h.Position,
		Yaw:      h.Yaw,
	}

	switch h.Kind {
	case KindCharacter:
		if !h.Vehicle.IsZero() || h.Paint != "" || h.Tuning != "" {
			return fmt.Errorf("spawn %q: character config has a vehicle section", out.ID)
		}
		var section *yaml.Node
		if !h.Character.IsZero() {
			section = &h.Character
		}
		cc, err := character.DecodeConfig(section)
		if err != nil {
			return fmt.Errorf("spawn %q: %w", out.ID, err)
		}
		out.Character = &cc
	case KindVehicle:
		if !h.Character.IsZero() {
			return fmt.Errorf("spawn %q: vehicle config has a character section", out.ID)
		}
		out.TuningName = strings.TrimSpace(h.Tuning)
		if out.TuningName != "" && !h.Vehicle.IsZero() {
			return fmt.Errorf("spawn %q: both a vehicle section and tuning %q", out.ID, out.TuningName)
		}
		if !h.Vehicle.IsZero() {
			t, err := vehicle.DecodeTuning(&h.Vehicle)
			if err != nil {
				return fmt.Errorf("spawn %q: %w", out.ID, err)
			}
			if t.Name == vehicle.DefaultTuning().Name {
				t.Name = out.ID.String()
			}
			out.Vehicle = &t
		}
		if paint := strings.TrimSpace(h.Paint); paint != "" {
			c, err := colorful.Hex(paint)
			if err != nil {
				return fmt.Errorf("spawn %q: paint: %w", out.ID, err)
			}
			out.Paint = &c
		}
	default:
		return fmt.Errorf("spawn %q: unknown kind %q", out.ID, h.Kind)
	}

	*c = out
	return nil
}

// Validate checks the fields common to every variant.
//
// Postcondition: Returns nil if the config is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	if c.ID.Empty() {
		errs = append(errs, "id must not be empty")
	}
	if c.Address == "" {
		errs = append(errs, "address must not be empty")
	}
	switch c.Kind {
	case KindCharacter:
		if c.Character == nil {
			errs = append(errs, "character section missing")
		}
	case KindVehicle:
	default:
		errs = append(errs, fmt.Sprintf("unknown kind %q", c.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("spawn config %q invalid: %s", c.ID, strings.Join(errs, "; "))
	}
	return nil
}

// LoadFromBytes parses one spawn definition.
//
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing spawn YAML: %w", err)
	}
	if c.Kind == "" {
		return Config{}, fmt.Errorf("parsing spawn YAML: empty document")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ResolveTunings fills the tuning of every vehicle config that names a
// tuning asset with a copy of that asset.
//
// Postcondition: Returns an error naming every config whose tuning is not in tunings.
func ResolveTunings(cfgs []Config, tunings map[string]vehicle.Tuning) error {
	var missing []string
	for i := range cfgs {
		c := &cfgs[i]
		if c.TuningName == "" || c.Vehicle != nil {
			continue
		}
		t, ok := tunings[c.TuningName]
		if !ok {
			missing = append(missing, fmt.Sprintf("%s (%s)", c.ID, c.TuningName))
			continue
		}
		c.Vehicle = &t
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown tuning assets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadDir reads every .yaml file in dir, in file name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all configs or the first error encountered; IDs are unique.
func LoadDir(dir string) ([]Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading spawn dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := make(map[entity.ID]string, len(names))
	out := make([]Config, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		c, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if prev, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate spawn id %q in %q and %q", c.ID, prev, path)
		}
		seen[c.ID] = path
		out = append(out, c)
	}
	return out, nil
}
