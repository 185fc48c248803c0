// Package fixture implements a static world read from an HCL file.
//
// A fixture file describes the host clock and camera plus a set of entities:
//
//	host {
//	  time       = 10
//	  frame_time = 0.015625
//	  viewport   = [1920, 1080]
//	  camera {
//	    position = [0, 0, 64]
//	    angles   = [0, 90, 0] # pitch, yaw, roll
//	    fov      = 90
//	  }
//	}
//
//	entity "1" {
//	  handle   = 4097
//	  player   = true
//	  team     = 3
//	  position = [100, 0, 0]
//	  velocity = [0, 250, 0]
//	  eye { position = [0, 0, 64] }
//	  attachment "muzzle_flash" { position = [30, 0, 50] }
//	  weapon {
//	    view_model  = 8193
//	    world_model = 8194
//	  }
//	}
//
// Eye and attachment placements are local to the entity placement.
package fixture

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

// Defaults applied when the host block omits a value.
const (
	DefaultFrameTime  = 1.0 / 64
	DefaultMaxClients = 64
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultFov        = 90
)

// ---------------------------------------------------------------------------
// HCL schema
// ---------------------------------------------------------------------------

type hclFile struct {
	Host     *hclHost     `hcl:"host,block"`
	Entities []*hclEntity `hcl:"entity,block"`
}

type hclHost struct {
	Time         float64    `hcl:"time,optional"`
	FrameTime    *float64   `hcl:"frame_time,optional"`
	Viewport     []int      `hcl:"viewport,optional"`
	LocalPlayer  *int       `hcl:"local_player,optional"`
	MaxClients   *int       `hcl:"max_clients,optional"`
	TeamsSwapped bool       `hcl:"teams_swapped,optional"`
	Camera       *hclCamera `hcl:"camera,block"`
}

type hclCamera struct {
	Position []float64 `hcl:"position,optional"`
	Angles   []float64 `hcl:"angles,optional"`
	Fov      *float64  `hcl:"fov,optional"`
}

type hclPose struct {
	Position []float64 `hcl:"position,optional"`
	Angles   []float64 `hcl:"angles,optional"`
}

type hclAttachment struct {
	Name     string    `hcl:"name,label"`
	Position []float64 `hcl:"position,optional"`
	Angles   []float64 `hcl:"angles,optional"`
}

type hclWeapon struct {
	ViewModel  *int64 `hcl:"view_model,optional"`
	WorldModel *int64 `hcl:"world_model,optional"`
}

type hclEntity struct {
	Index          string           `hcl:"index,label"`
	Handle         int64            `hcl:"handle"`
	Player         bool             `hcl:"player,optional"`
	Team           int              `hcl:"team,optional"`
	Position       []float64        `hcl:"position,optional"`
	Angles         []float64        `hcl:"angles,optional"`
	Velocity       []float64        `hcl:"velocity,optional"`
	ObserverTarget *int64           `hcl:"observer_target,optional"`
	Eye            *hclPose         `hcl:"eye,block"`
	Attachments    []*hclAttachment `hcl:"attachment,block"`
	Weapon         *hclWeapon       `hcl:"weapon,block"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load parses the fixture file at path.
func Load(path string) (*World, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse world file %s: %w", path, diags)
	}
	return decode(f.Body, path)
}

// Parse parses fixture source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*World, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse world file %s: %w", filename, diags)
	}
	return decode(f.Body, filename)
}

func decode(body hcl.Body, filename string) (*World, error) {
	var root hclFile
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode world file %s: %w", filename, diags)
	}

	w := New()
	if h := root.Host; h != nil {
		w.time = h.Time
		if h.FrameTime != nil {
			w.frameTime = *h.FrameTime
		}
		if len(h.Viewport) != 0 {
			if len(h.Viewport) != 2 || h.Viewport[0] <= 0 || h.Viewport[1] <= 0 {
				return nil, fmt.Errorf("%s: viewport must be [width, height]", filename)
			}
			w.width, w.height = h.Viewport[0], h.Viewport[1]
		}
		if h.LocalPlayer != nil {
			w.localPlayer = *h.LocalPlayer
		}
		if h.MaxClients != nil {
			w.maxClients = *h.MaxClients
		}
		w.swapped = h.TeamsSwapped
		if c := h.Camera; c != nil {
			pose, err := toPose(c.Position, c.Angles)
			if err != nil {
				return nil, fmt.Errorf("%s: host camera: %w", filename, err)
			}
			w.camera.Pose = pose
			if c.Fov != nil {
				w.camera.Fov = *c.Fov
			}
		}
	}

	for _, he := range root.Entities {
		e, err := toEntity(he)
		if err != nil {
			return nil, fmt.Errorf("%s: entity %q: %w", filename, he.Index, err)
		}
		if err := w.Add(e); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return w, nil
}

func toEntity(he *hclEntity) (*Entity, error) {
	idx, err := strconv.Atoi(he.Index)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("index label must be a non-negative integer")
	}
	placement, err := toPose(he.Position, he.Angles)
	if err != nil {
		return nil, err
	}
	vel, err := toVec(he.Velocity)
	if err != nil {
		return nil, fmt.Errorf("velocity: %w", err)
	}
	id, err := toHandle("handle", &he.Handle)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		Index:       idx,
		ID:          *id,
		Player:      he.Player,
		TeamNum:     he.Team,
		Pose:        placement,
		Velocity:    vel,
		Attachments: make(map[string]geom.Pose, len(he.Attachments)),
	}
	if e.Observer, err = toHandle("observer_target", he.ObserverTarget); err != nil {
		return nil, err
	}
	if he.Eye != nil {
		eye, err := toPose(he.Eye.Position, he.Eye.Angles)
		if err != nil {
			return nil, fmt.Errorf("eye: %w", err)
		}
		e.EyeOffset = &eye
	}
	for _, a := range he.Attachments {
		p, err := toPose(a.Position, a.Angles)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", a.Name, err)
		}
		e.Attachments[a.Name] = p
	}
	if wp := he.Weapon; wp != nil {
		if e.ViewModel, err = toHandle("weapon.view_model", wp.ViewModel); err != nil {
			return nil, err
		}
		if e.WorldModel, err = toHandle("weapon.world_model", wp.WorldModel); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// toHandle converts an optional HCL number to a handle. A nil v yields nil.
func toHandle(field string, v *int64) (*world.Handle, error) {
	if v == nil {
		return nil, nil
	}
	if *v < 0 || *v > math.MaxUint32 {
		return nil, fmt.Errorf("%s: %d is outside the handle range 0..%d", field, *v, uint32(math.MaxUint32))
	}
	h := world.Handle(*v)
	return &h, nil
}

func toVec(v []float64) (geom.Vec, error) {
	switch len(v) {
	case 0:
		return geom.Vec{}, nil
	case 3:
		return geom.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return geom.Vec{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
}

func toPose(pos, ang []float64) (geom.Pose, error) {
	p, err := toVec(pos)
	if err != nil {
		return geom.Pose{}, fmt.Errorf("position: %w", err)
	}
	a, err := toVec(ang)
	if err != nil {
		return geom.Pose{}, fmt.Errorf("angles: %w", err)
	}
	return geom.Pose{Pos: p, Ang: geom.Angles{Pitch: a.X, Yaw: a.Y, Roll: a.Z}}, nil
}

// ---------------------------------------------------------------------------
// World
// ---------------------------------------------------------------------------

// World is an in-memory world.Entities and world.Host. It is not safe for
// concurrent use.
type World struct {
	time        float64
	frameTime   float64
	width       int
	height      int
	localPlayer int
	maxClients  int
	swapped     bool
	camera      geom.Cam

	byIndex  map[int]*Entity
	byHandle map[world.Handle]*Entity
}

var (
	_ world.Entities = (*World)(nil)
	_ world.Host     = (*World)(nil)
)

// New returns an empty world with default host settings.
func New() *World {
	return &World{
		frameTime:   DefaultFrameTime,
		width:       DefaultWidth,
		height:      DefaultHeight,
		localPlayer: 1,
		maxClients:  DefaultMaxClients,
		camera:      geom.Cam{Fov: DefaultFov},
		byIndex:     make(map[int]*Entity),
		byHandle:    make(map[world.Handle]*Entity),
	}
}

// Add inserts e. Index and handle must both be unused.
func (w *World) Add(e *Entity) error {
	if _, ok := w.byIndex[e.Index]; ok {
		return fmt.Errorf("duplicate entity index %d", e.Index)
	}
	if !e.ID.IsValid() {
		return fmt.Errorf("entity %d: invalid handle", e.Index)
	}
	if _, ok := w.byHandle[e.ID]; ok {
		return fmt.Errorf("entity %d: duplicate handle %d", e.Index, e.ID)
	}
	w.byIndex[e.Index] = e
	w.byHandle[e.ID] = e
	return nil
}

// Remove deletes the entity at index i, if any.
func (w *World) Remove(i int) {
	e, ok := w.byIndex[i]
	if !ok {
		return
	}
	delete(w.byIndex, i)
	delete(w.byHandle, e.ID)
}

// Indices returns the occupied entity indices in ascending order.
func (w *World) Indices() []int {
	out := make([]int, 0, len(w.byIndex))
	for i := range w.byIndex {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Advance moves the clock forward by dt and entities along their velocity.
func (w *World) Advance(dt float64) {
	w.time += dt
	w.frameTime = dt
	for _, e := range w.byIndex {
		e.Pose.Pos = e.Pose.Pos.Add(e.Velocity.MulScalar(dt))
	}
}

// SetCamera replaces the host camera.
func (w *World) SetCamera(c geom.Cam) { w.camera = c }

// SetTeamsSwapped sets the spectator HUD side swap.
func (w *World) SetTeamsSwapped(v bool) { w.swapped = v }

// SetViewport sets the render size used for FOV scaling.
func (w *World) SetViewport(width, height int) { w.width, w.height = width, height }

func (w *World) ByIndex(i int) (world.Entity, bool) {
	e, ok := w.byIndex[i]
	if !ok {
		return nil, false
	}
	return e, true
}

func (w *World) ByHandle(h world.Handle) (world.Entity, bool) {
	e, ok := w.byHandle[h]
	if !ok {
		return nil, false
	}
	return e, true
}

func (w *World) LocalPlayerIndex() int         { return w.localPlayer }
func (w *World) MaxClients() int               { return w.maxClients }
func (w *World) TeamsSwappedOnScreen() bool    { return w.swapped }
func (w *World) GameCamera() geom.Cam          { return w.camera }
func (w *World) CurTime() float64              { return w.time }
func (w *World) FrameTime() float64            { return w.frameTime }
func (w *World) Viewport() (width, height int) { return w.width, w.height }

// ---------------------------------------------------------------------------
// Entity
// ---------------------------------------------------------------------------

// Entity is a fixture entity. Optional parts are nil when absent.
type Entity struct {
	Index       int
	ID          world.Handle
	Player      bool
	TeamNum     int
	Pose        geom.Pose
	Velocity    geom.Vec
	EyeOffset   *geom.Pose
	Attachments map[string]geom.Pose
	ViewModel   *world.Handle
	WorldModel  *world.Handle
	Observer    *world.Handle
}

var _ world.Entity = (*Entity)(nil)

func (e *Entity) Handle() world.Handle { return e.ID }
func (e *Entity) Placement() geom.Pose { return e.Pose }
func (e *Entity) IsPlayer() bool       { return e.Player }
func (e *Entity) Team() int            { return e.TeamNum }

func (e *Entity) Eye() (geom.Pose, bool) {
	if e.EyeOffset == nil {
		return geom.Pose{}, false
	}
	return e.Pose.Offset(*e.EyeOffset, false), true
}

func (e *Entity) Attachment(name string) (geom.Pose, bool) {
	off, ok := e.Attachments[name]
	if !ok {
		return geom.Pose{}, false
	}
	return e.Pose.Offset(off, false), true
}

func (e *Entity) ActiveWeapon(worldModel bool) (world.Handle, bool) {
	h := e.ViewModel
	if worldModel {
		h = e.WorldModel
	}
	if h == nil {
		return world.InvalidHandle, false
	}
	return *h, true
}

func (e *Entity) ObserverTarget() (world.Handle, bool) {
	if e.Observer == nil {
		return world.InvalidHandle, false
	}
	return *e.Observer, true
}
