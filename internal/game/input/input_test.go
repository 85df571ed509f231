package input_test

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/motorpool/internal/game/input"
)

type countingSource struct {
	reads int
	next  input.Snapshot
}

func (c *countingSource) Read() input.Snapshot {
	c.reads++
	return c.next
}

func TestRouter_NoConsumers_DoesNotRead(t *testing.T) {
	src := &countingSource{}
	r := input.NewRouter(src)
	r.Tick()
	assert.Equal(t, 0, src.reads)
}

func TestRouter_SecondaryBeforePrimary_SameSnapshot(t *testing.T) {
	src := &countingSource{next: input.Snapshot{Move: mgl64.Vec2{0.5, 1}, BrakeHeld: true}}
	r := input.NewRouter(src)

	var order []string
	var got []input.Snapshot
	r.SetPrimaryConsumer(input.ConsumerFunc(func(in input.Snapshot) {
		order = append(order, "primary")
		got = append(got, in)
	}))
	r.SetSecondaryConsumer(input.ConsumerFunc(func(in input.Snapshot) {
		order = append(order, "secondary")
		got = append(got, in)
	}))

	r.Tick()
	assert.Equal(t, 1, src.reads)
	assert.Equal(t, []string{"secondary", "primary"}, order)
	require.Len(t, got, 2)
	assert.Equal(t, got[0], got[1])
}

func TestRouter_ClampsAxes(t *testing.T) {
	src := &countingSource{next: input.Snapshot{Move: mgl64.Vec2{3, -7}}}
	r := input.NewRouter(src)
	var got input.Snapshot
	r.SetPrimaryConsumer(input.ConsumerFunc(func(in input.Snapshot) { got = in }))
	r.Tick()
	assert.Equal(t, mgl64.Vec2{1, -1}, got.Move)
}

func TestRouter_DetachPrimary(t *testing.T) {
	src := &countingSource{}
	r := input.NewRouter(src)
	calls := 0
	r.SetPrimaryConsumer(input.ConsumerFunc(func(input.Snapshot) { calls++ }))
	r.Tick()
	r.SetPrimaryConsumer(nil)
	r.Tick()
	assert.Equal(t, 1, calls)
	assert.Nil(t, r.Primary())
}

func TestNewRouter_PanicsOnNilSource(t *testing.T) {
	assert.Panics(t, func() { input.NewRouter(nil) })
}

func TestStaticSource_InteractOnlyOnce(t *testing.T) {
	s := input.NewStaticSource(input.Snapshot{InteractPressed: true, BrakeHeld: true})
	first := s.Read()
	second := s.Read()
	assert.True(t, first.InteractPressed)
	assert.False(t, second.InteractPressed)
	assert.True(t, second.BrakeHeld)
}

func TestBuffer_LoadAfterClearIsZero(t *testing.T) {
	var b input.Buffer
	assert.Equal(t, input.Snapshot{}, b.Load())
	b.Store(input.Snapshot{BrakeHeld: true})
	assert.True(t, b.Load().BrakeHeld)
	b.Clear()
	assert.Equal(t, input.Snapshot{}, b.Load())
}

func TestBuffer_ConcurrentStoreNeverTears(t *testing.T) {
	var b input.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			v := float64(i)
			b.Store(input.Snapshot{Move: mgl64.Vec2{v, v}, Look: mgl64.Vec2{v, v}})
		}
	}()
	for i := 0; i < 2000; i++ {
		s := b.Load()
		assert.Equal(t, s.Move.X(), s.Move.Y())
		assert.Equal(t, s.Move.X(), s.Look.X())
	}
	wg.Wait()
}

func TestSequenceSource_PlaysSegmentsInOrder(t *testing.T) {
	src, err := input.LoadSequenceFromBytes([]byte(`
segments:
  - frames: 2
    move: [0, 1]
    interact: true
  - frames: 1
    brake: true
`))
	require.NoError(t, err)

	a := src.Read()
	b := src.Read()
	c := src.Read()
	d := src.Read()

	assert.True(t, a.InteractPressed)
	assert.False(t, b.InteractPressed, "interact is edge-triggered")
	assert.Equal(t, 1.0, b.Move.Y())
	assert.True(t, c.BrakeHeld)
	assert.Equal(t, input.Snapshot{}, d)
	assert.True(t, src.Done())
}

func TestSequenceSource_Loops(t *testing.T) {
	src, err := input.NewSequenceSource([]input.Segment{{Frames: 1, Brake: true}}, true)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.True(t, src.Read().BrakeHeld)
	}
	assert.False(t, src.Done())
}

func TestSequenceSource_RejectsEmptySegment(t *testing.T) {
	_, err := input.NewSequenceSource([]input.Segment{{Frames: 0}}, false)
	assert.Error(t, err)
}

func TestPropertySnapshot_ClampedAxesInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(-100, 100).Draw(t, "x")
		y := rapid.Float64Range(-100, 100).Draw(t, "y")
		s := input.Snapshot{Move: mgl64.Vec2{x, y}}.Clamped()
		assert.GreaterOrEqual(t, s.Move.X(), -1.0)
		assert.LessOrEqual(t, s.Move.X(), 1.0)
		assert.GreaterOrEqual(t, s.Move.Y(), -1.0)
		assert.LessOrEqual(t, s.Move.Y(), 1.0)
	})
}
