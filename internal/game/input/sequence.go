package input

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Segment holds one snapshot for a fixed number of frames.
type Segment struct {
	Frames   int        `yaml:"frames"`
	Move     [2]float64 `yaml:"move"`
	Look     [2]float64 `yaml:"look"`
	Sprint   bool       `yaml:"sprint"`
	Brake    bool       `yaml:"brake"`
	Interact bool       `yaml:"interact"`
}

// Validate checks that the segment plays for at least one frame.
func (s Segment) Validate() error {
	if s.Frames < 1 {
		return fmt.Errorf("input segment: frames must be >= 1, got %d", s.Frames)
	}
	return nil
}

type yamlTrack struct {
	Segments []Segment `yaml:"segments"`
	Loop     bool      `yaml:"loop"`
}

// SequenceSource replays a scripted track of segments. InteractPressed is
// reported only on the first frame of a segment that sets interact.
// After the last segment the source idles (or restarts when looping).
type SequenceSource struct {
	segments []Segment
	loop     bool
	index    int
	frame    int
}

// NewSequenceSource creates a SequenceSource.
//
// Precondition: every segment must satisfy Validate.
func NewSequenceSource(segments []Segment, loop bool) (*SequenceSource, error) {
	for i, s := range segments {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return &SequenceSource{segments: segments, loop: loop}, nil
}

// LoadSequenceFromBytes parses a YAML input track.
//
// Postcondition: Returns a validated SequenceSource or a non-nil error.
func LoadSequenceFromBytes(data []byte) (*SequenceSource, error) {
	var track yamlTrack
	if err := yaml.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("parsing input track YAML: %w", err)
	}
	return NewSequenceSource(track.Segments, track.Loop)
}

// LoadSequenceFromFile reads and parses a YAML input track.
func LoadSequenceFromFile(path string) (*SequenceSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input track %s: %w", path, err)
	}
	return LoadSequenceFromBytes(data)
}

// Done reports whether a non-looping track has played every segment.
func (s *SequenceSource) Done() bool {
	return !s.loop && s.index >= len(s.segments)
}

// Read implements Source.
func (s *SequenceSource) Read() Snapshot {
	if len(s.segments) == 0 {
		return Snapshot{}
	}
	if s.index >= len(s.segments) {
		if !s.loop {
			return Snapshot{}
		}
		s.index = 0
	}

	seg := s.segments[s.index]
	out := Snapshot{
		Move:            mgl64.Vec2{seg.Move[0], seg.Move[1]},
		Look:            mgl64.Vec2{seg.Look[0], seg.Look[1]},
		SprintHeld:      seg.Sprint,
		BrakeHeld:       seg.Brake,
		InteractPressed: seg.Interact && s.frame == 0,
	}

	s.frame++
	if s.frame >= seg.Frames {
		s.frame = 0
		s.index++
	}
	return out
}
