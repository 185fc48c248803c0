package calc

import (
	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/smooth"
	"github.com/chazu/calcgraph/pkg/world"
)

// NodeData is the kind-specific payload of a node. Implementations are
// the pointer types declared in this file; operand fields hold the IDs of
// nodes that already exist in the same graph.
type NodeData interface {
	Family() Family
	// Kind is the short kind name shown by Describe.
	Kind() string
	operands() []operand
}

type operand struct {
	label  string
	id     NodeID
	family Family
}

// ---------------------------------------------------------------------------
// Handle
// ---------------------------------------------------------------------------

// HandleValue is a constant handle.
type HandleValue struct {
	Handle world.Handle
}

// HandleIndex resolves the entity at a fixed entity index.
type HandleIndex struct {
	Index int
}

// HandleKey resolves the player a spectator HUD key (1..9, 0) points at.
type HandleKey struct {
	Key int
}

// HandleLocalPlayer resolves the local player.
type HandleLocalPlayer struct{}

// HandleActiveWeapon resolves the weapon held by Parent's entity.
type HandleActiveWeapon struct {
	Parent NodeID
	World  bool
}

// HandleObserverTarget resolves who Parent's player is spectating.
type HandleObserverTarget struct {
	Parent NodeID
}

func (*HandleValue) Family() Family          { return FamilyHandle }
func (*HandleIndex) Family() Family          { return FamilyHandle }
func (*HandleKey) Family() Family            { return FamilyHandle }
func (*HandleLocalPlayer) Family() Family    { return FamilyHandle }
func (*HandleActiveWeapon) Family() Family   { return FamilyHandle }
func (*HandleObserverTarget) Family() Family { return FamilyHandle }

func (*HandleValue) Kind() string          { return "value" }
func (*HandleIndex) Kind() string          { return "index" }
func (*HandleKey) Kind() string            { return "key" }
func (*HandleLocalPlayer) Kind() string    { return "localPlayer" }
func (*HandleActiveWeapon) Kind() string   { return "activeWeapon" }
func (*HandleObserverTarget) Kind() string { return "observerTarget" }

func (*HandleValue) operands() []operand       { return nil }
func (*HandleIndex) operands() []operand       { return nil }
func (*HandleKey) operands() []operand         { return nil }
func (*HandleLocalPlayer) operands() []operand { return nil }

func (d *HandleActiveWeapon) operands() []operand {
	return []operand{{"parent", d.Parent, FamilyHandle}}
}

func (d *HandleObserverTarget) operands() []operand {
	return []operand{{"parent", d.Parent, FamilyHandle}}
}

// ---------------------------------------------------------------------------
// VecAng
// ---------------------------------------------------------------------------

// VecAngValue is a constant pose.
type VecAngValue struct {
	Pose geom.Pose
}

// VecAngOffset applies Offset's pose locally to Parent's.
type VecAngOffset struct {
	Parent NodeID
	Offset NodeID
	Legacy bool
}

// VecAngHandle reads an entity's placement. EyeVec and EyeAng select the
// eye position and eye angles instead.
type VecAngHandle struct {
	Handle NodeID
	EyeVec bool
	EyeAng bool
}

// VecAngAttachment reads a named attachment of an entity.
type VecAngAttachment struct {
	Handle     NodeID
	Attachment string
}

// VecAngIf evaluates Condition and then only the selected branch.
type VecAngIf struct {
	Condition NodeID
	True      NodeID
	False     NodeID
}

// VecAngOr yields A, or B when A fails.
type VecAngOr struct {
	A NodeID
	B NodeID
}

// VecAngCam projects a camera's pose.
type VecAngCam struct {
	Cam NodeID
}

// VecAngSmooth follows Parent with bounded velocity and acceleration.
// Track identifies what is being followed; a change resets the smoother.
type VecAngSmooth struct {
	Parent NodeID
	Track  NodeID

	state      *smooth.Pose
	lastHandle world.Handle
}

func (*VecAngValue) Family() Family      { return FamilyVecAng }
func (*VecAngOffset) Family() Family     { return FamilyVecAng }
func (*VecAngHandle) Family() Family     { return FamilyVecAng }
func (*VecAngAttachment) Family() Family { return FamilyVecAng }
func (*VecAngIf) Family() Family         { return FamilyVecAng }
func (*VecAngOr) Family() Family         { return FamilyVecAng }
func (*VecAngCam) Family() Family        { return FamilyVecAng }
func (*VecAngSmooth) Family() Family     { return FamilyVecAng }

func (*VecAngValue) Kind() string      { return "value" }
func (*VecAngOffset) Kind() string     { return "offset" }
func (*VecAngHandle) Kind() string     { return "handleEx" }
func (*VecAngAttachment) Kind() string { return "handleAttachment" }
func (*VecAngIf) Kind() string         { return "if" }
func (*VecAngOr) Kind() string         { return "or" }
func (*VecAngCam) Kind() string        { return "cam" }
func (*VecAngSmooth) Kind() string     { return "smooth" }

func (*VecAngValue) operands() []operand { return nil }

func (d *VecAngOffset) operands() []operand {
	return []operand{{"parent", d.Parent, FamilyVecAng}, {"offset", d.Offset, FamilyVecAng}}
}

func (d *VecAngHandle) operands() []operand {
	return []operand{{"handle", d.Handle, FamilyHandle}}
}

func (d *VecAngAttachment) operands() []operand {
	return []operand{{"handle", d.Handle, FamilyHandle}}
}

func (d *VecAngIf) operands() []operand {
	return []operand{
		{"condition", d.Condition, FamilyBool},
		{"true", d.True, FamilyVecAng},
		{"false", d.False, FamilyVecAng},
	}
}

func (d *VecAngOr) operands() []operand {
	return []operand{{"a", d.A, FamilyVecAng}, {"b", d.B, FamilyVecAng}}
}

func (d *VecAngCam) operands() []operand {
	return []operand{{"cam", d.Cam, FamilyCam}}
}

func (d *VecAngSmooth) operands() []operand {
	return []operand{{"parent", d.Parent, FamilyVecAng}, {"trackHandle", d.Track, FamilyHandle}}
}

// ---------------------------------------------------------------------------
// Cam
// ---------------------------------------------------------------------------

// CamFile plays back a recorded camera track. Playback starts at host time
// Start, or at the host time of construction when StartCurrent is set.
type CamFile struct {
	Path         string
	Start        float64
	StartCurrent bool

	track   world.Track
	loadErr error
}

// CamGame is the host's own camera.
type CamGame struct{}

func (*CamFile) Family() Family { return FamilyCam }
func (*CamGame) Family() Family { return FamilyCam }

func (*CamFile) Kind() string { return "cam" }
func (*CamGame) Kind() string { return "game" }

func (*CamFile) operands() []operand { return nil }
func (*CamGame) operands() []operand { return nil }

// ---------------------------------------------------------------------------
// Fov
// ---------------------------------------------------------------------------

// FovValue is a constant field of view.
type FovValue struct {
	Fov float64
}

// FovCam projects a camera's field of view.
type FovCam struct {
	Cam NodeID
}

func (*FovValue) Family() Family { return FamilyFov }
func (*FovCam) Family() Family   { return FamilyFov }

func (*FovValue) Kind() string { return "value" }
func (*FovCam) Kind() string   { return "cam" }

func (*FovValue) operands() []operand { return nil }

func (d *FovCam) operands() []operand {
	return []operand{{"cam", d.Cam, FamilyCam}}
}

// ---------------------------------------------------------------------------
// Bool
// ---------------------------------------------------------------------------

// BoolValue is a constant.
type BoolValue struct {
	Value bool
}

// BoolHandle is true when Handle evaluates.
type BoolHandle struct {
	Handle NodeID
}

// BoolVecAng is true when VecAng evaluates.
type BoolVecAng struct {
	VecAng NodeID
}

// BoolAnd is A && B.
type BoolAnd struct {
	A NodeID
	B NodeID
}

// BoolOr is A || B.
type BoolOr struct {
	A NodeID
	B NodeID
}

// BoolNot is !A.
type BoolNot struct {
	A NodeID
}

func (*BoolValue) Family() Family  { return FamilyBool }
func (*BoolHandle) Family() Family { return FamilyBool }
func (*BoolVecAng) Family() Family { return FamilyBool }
func (*BoolAnd) Family() Family    { return FamilyBool }
func (*BoolOr) Family() Family     { return FamilyBool }
func (*BoolNot) Family() Family    { return FamilyBool }

func (*BoolValue) Kind() string  { return "value" }
func (*BoolHandle) Kind() string { return "handle" }
func (*BoolVecAng) Kind() string { return "vecAng" }
func (*BoolAnd) Kind() string    { return "and" }
func (*BoolOr) Kind() string     { return "or" }
func (*BoolNot) Kind() string    { return "not" }

func (*BoolValue) operands() []operand { return nil }

func (d *BoolHandle) operands() []operand {
	return []operand{{"handle", d.Handle, FamilyHandle}}
}

func (d *BoolVecAng) operands() []operand {
	return []operand{{"vecAng", d.VecAng, FamilyVecAng}}
}

func (d *BoolAnd) operands() []operand {
	return []operand{{"a", d.A, FamilyBool}, {"b", d.B, FamilyBool}}
}

func (d *BoolOr) operands() []operand {
	return []operand{{"a", d.A, FamilyBool}, {"b", d.B, FamilyBool}}
}

func (d *BoolNot) operands() []operand {
	return []operand{{"a", d.A, FamilyBool}}
}
