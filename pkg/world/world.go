// Package world declares the live game state the calc graph reads from.
//
// Implementations are supplied by the host. The fixture subpackage provides a
// static, file-backed implementation for offline use and tests.
package world

import (
	"fmt"

	"github.com/chazu/calcgraph/pkg/geom"
)

// Handle identifies an entity across frames. InvalidHandle never refers to
// an entity.
type Handle uint32

// InvalidHandle is the reserved "no entity" handle.
const InvalidHandle Handle = 0xFFFFFFFF

// IsValid reports whether h may refer to an entity.
func (h Handle) IsValid() bool { return h != InvalidHandle }

func (h Handle) String() string {
	return fmt.Sprintf("%d", uint32(h))
}

// Teams as reported by Entity.Team.
const (
	TeamUnassigned = 0
	TeamSpectator  = 1
	TeamT          = 2
	TeamCT         = 3
)

// Entity is a single live game object.
type Entity interface {
	Handle() Handle
	Placement() geom.Pose
	// Eye returns the eye placement, if the entity has one.
	Eye() (geom.Pose, bool)
	Attachment(name string) (geom.Pose, bool)
	// ActiveWeapon returns the held weapon's view model, or its world model
	// when world is true.
	ActiveWeapon(world bool) (Handle, bool)
	IsPlayer() bool
	ObserverTarget() (Handle, bool)
	Team() int
}

// Entities looks up live entities.
type Entities interface {
	ByIndex(i int) (Entity, bool)
	ByHandle(h Handle) (Entity, bool)
	LocalPlayerIndex() int
	MaxClients() int
	// TeamsSwappedOnScreen reports whether the spectator HUD shows CT on
	// the right-hand side.
	TeamsSwappedOnScreen() bool
}

// Host exposes the engine clock and camera.
type Host interface {
	GameCamera() geom.Cam
	CurTime() float64
	// FrameTime is the real time elapsed since the previous frame.
	FrameTime() float64
	Viewport() (width, height int)
}

// Track is a recorded camera path.
type Track interface {
	// Sample returns the camera at elapsed seconds after the track start.
	Sample(elapsed float64, width, height int) (geom.Cam, bool)
}

// TrackOpener loads a Track from a path.
type TrackOpener func(path string) (Track, error)
