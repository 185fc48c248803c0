package fixture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

const sample = `
host {
  time          = 12.5
  frame_time    = 0.01
  viewport      = [1280, 720]
  local_player  = 2
  max_clients   = 10
  teams_swapped = true
  camera {
    position = [1, 2, 3]
    angles   = [10, 20, 30]
    fov      = 75
  }
}

entity "1" {
  handle   = 4097
  player   = true
  team     = 3
  position = [100, 0, 0]
  angles   = [0, 90, 0]
  velocity = [0, 10, 0]
  eye { position = [0, 0, 64] }
  attachment "muzzle" { position = [10, 0, 0] }
  weapon {
    view_model  = 8193
    world_model = 8194
  }
}

entity "2" {
  handle          = 4098
  player          = true
  team            = 1
  observer_target = 4097
}
`

func TestParse(t *testing.T) {
	w, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	assert.Equal(t, 12.5, w.CurTime())
	assert.Equal(t, 0.01, w.FrameTime())
	width, height := w.Viewport()
	assert.Equal(t, 1280, width)
	assert.Equal(t, 720, height)
	assert.Equal(t, 2, w.LocalPlayerIndex())
	assert.Equal(t, 10, w.MaxClients())
	assert.True(t, w.TeamsSwappedOnScreen())
	assert.Equal(t, geom.Cam{
		Pose: geom.Pose{Pos: geom.Vec{X: 1, Y: 2, Z: 3}, Ang: geom.Angles{Pitch: 10, Yaw: 20, Roll: 30}},
		Fov:  75,
	}, w.GameCamera())
	assert.Equal(t, []int{1, 2}, w.Indices())

	e, ok := w.ByIndex(1)
	require.True(t, ok)
	assert.Equal(t, world.Handle(4097), e.Handle())
	assert.True(t, e.IsPlayer())
	assert.Equal(t, world.TeamCT, e.Team())

	eye, ok := e.Eye()
	require.True(t, ok)
	assert.InDelta(t, 64, eye.Pos.Z, 1e-9)
	assert.InDelta(t, 100, eye.Pos.X, 1e-9)

	// Facing +Y, so a forward offset moves along +Y.
	muzzle, ok := e.Attachment("muzzle")
	require.True(t, ok)
	assert.InDelta(t, 100, muzzle.Pos.X, 1e-9)
	assert.InDelta(t, 10, muzzle.Pos.Y, 1e-9)

	_, ok = e.Attachment("nope")
	assert.False(t, ok)

	vm, ok := e.ActiveWeapon(false)
	require.True(t, ok)
	assert.Equal(t, world.Handle(8193), vm)
	wm, ok := e.ActiveWeapon(true)
	require.True(t, ok)
	assert.Equal(t, world.Handle(8194), wm)

	spectator, ok := w.ByHandle(4098)
	require.True(t, ok)
	target, ok := spectator.ObserverTarget()
	require.True(t, ok)
	assert.Equal(t, world.Handle(4097), target)
	_, ok = spectator.Eye()
	assert.False(t, ok)
	_, ok = spectator.ActiveWeapon(false)
	assert.False(t, ok)
}

func TestAdvanceAndRemove(t *testing.T) {
	w, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	w.Advance(0.5)
	assert.Equal(t, 13.0, w.CurTime())
	assert.Equal(t, 0.5, w.FrameTime())
	e, _ := w.ByIndex(1)
	assert.InDelta(t, 5, e.Placement().Pos.Y, 1e-9)

	w.Remove(1)
	_, ok := w.ByIndex(1)
	assert.False(t, ok)
	_, ok = w.ByHandle(4097)
	assert.False(t, ok)
}

func TestDefaults(t *testing.T) {
	w, err := Parse([]byte(`entity "3" { handle = 7 }`), "min.hcl")
	require.NoError(t, err)
	assert.Equal(t, DefaultFrameTime, w.FrameTime())
	assert.Equal(t, DefaultMaxClients, w.MaxClients())
	assert.Equal(t, 1, w.LocalPlayerIndex())
	assert.Equal(t, float64(DefaultFov), w.GameCamera().Fov)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `host {`},
		{"bad label", `entity "x" { handle = 1 }`},
		{"missing handle", `entity "1" {}`},
		{"short vector", `entity "1" {
  handle   = 1
  position = [1, 2]
}`},
		{"duplicate index", `
entity "1" { handle = 1 }
entity "1" { handle = 2 }`},
		{"duplicate handle", `
entity "1" { handle = 1 }
entity "2" { handle = 1 }`},
		{"bad viewport", `host { viewport = [0, 10] }`},
		{"negative handle", `entity "1" { handle = -1 }`},
		{"handle too large", `entity "1" { handle = 4294967296 }`},
		{"invalid handle", `entity "1" { handle = 4294967295 }`},
		{"negative observer target", `entity "1" {
  handle          = 1
  observer_target = -5
}`},
		{"weapon handle too large", `entity "1" {
  handle = 1
  weapon {
    view_model = 4294967296
  }
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.name+".hcl")
			assert.Error(t, err)
		})
	}
}

func TestParseHandleRange(t *testing.T) {
	w, err := Parse([]byte(`entity "1" {
  handle          = 4294967294
  observer_target = 0
}`), "range.hcl")
	require.NoError(t, err)

	e, ok := w.ByHandle(world.Handle(math.MaxUint32 - 1))
	require.True(t, ok)
	target, ok := e.ObserverTarget()
	require.True(t, ok)
	assert.Equal(t, world.Handle(0), target)
}
