// Package geom holds the pose math shared by the calc graph: positions,
// Source-style Euler angles, their basis vectors and quaternion composition.
//
// Angles are in degrees. Pitch rotates about Y, yaw about Z and roll about X,
// applied in the order yaw, pitch, roll.
package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a position or direction in world units.
type Vec = v3.Vec

// Angles is an orientation in degrees.
type Angles struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// IsZero reports whether all three angles are exactly zero.
func (a Angles) IsZero() bool {
	return a.Pitch == 0 && a.Yaw == 0 && a.Roll == 0
}

// Vectors returns the forward, right and up unit vectors for a.
func (a Angles) Vectors() (forward, right, up Vec) {
	sp, cp := math.Sincos(Radians(a.Pitch))
	sy, cy := math.Sincos(Radians(a.Yaw))
	sr, cr := math.Sincos(Radians(a.Roll))

	forward = Vec{X: cp * cy, Y: cp * sy, Z: -sp}
	right = Vec{
		X: -sr*sp*cy + cr*sy,
		Y: -sr*sp*sy - cr*cy,
		Z: -sr * cp,
	}
	up = Vec{
		X: cr*sp*cy + sr*sy,
		Y: cr*sp*sy - sr*cy,
		Z: cr * cp,
	}
	return forward, right, up
}

// Rotation returns the rotation matrix for a: yaw about Z, then pitch about
// Y, then roll about X.
func (a Angles) Rotation() sdf.M44 {
	return sdf.RotateZ(Radians(a.Yaw)).
		Mul(sdf.RotateY(Radians(a.Pitch))).
		Mul(sdf.RotateX(Radians(a.Roll)))
}

func (a Angles) String() string {
	return fmt.Sprintf("(%g, %g, %g)", a.Pitch, a.Yaw, a.Roll)
}

// Pose is a position plus an orientation.
type Pose struct {
	Pos Vec
	Ang Angles
}

// Matrix returns the local-to-world transform of p.
func (p Pose) Matrix() sdf.M44 {
	return sdf.Translate3d(p.Pos).Mul(p.Ang.Rotation())
}

// Offset applies a local offset to p.
//
// The offset position is measured along p's forward, left and up axes
// (x forward, y left, z up). The offset orientation is composed after p's.
// In the default mode the translation uses the composed orientation's basis.
// In legacy mode the translation uses p's own basis, and either half of the
// offset is skipped entirely when it is exactly zero.
func (p Pose) Offset(off Pose, legacy bool) Pose {
	if legacy {
		out := p
		if off.Pos != (Vec{}) {
			f, r, u := p.Ang.Vectors()
			out.Pos = along(p.Pos, f, r, u, off.Pos)
		}
		if !off.Ang.IsZero() {
			out.Ang = Compose(p.Ang, off.Ang)
		}
		return out
	}

	ang := Compose(p.Ang, off.Ang)
	f, r, u := ang.Vectors()
	return Pose{Pos: along(p.Pos, f, r, u, off.Pos), Ang: ang}
}

func along(origin, forward, right, up, off Vec) Vec {
	return origin.
		Add(forward.MulScalar(off.X)).
		Sub(right.MulScalar(off.Y)).
		Add(up.MulScalar(off.Z))
}

// Compose returns the orientation reached by applying local after base.
func Compose(base, local Angles) Angles {
	return ToAngles(FromAngles(base).Mul(FromAngles(local)))
}

func (p Pose) String() string {
	return fmt.Sprintf("vec=(%f, %f, %f), ang=(%f, %f, %f)",
		p.Pos.X, p.Pos.Y, p.Pos.Z, p.Ang.Roll, p.Ang.Pitch, p.Ang.Yaw)
}

// Cam is a pose plus a horizontal field of view in degrees.
type Cam struct {
	Pose
	Fov float64
}

func (c Cam) String() string {
	return fmt.Sprintf("%s, fov=%f", c.Pose, c.Fov)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// WrapDegrees maps d into [-180, 180).
func WrapDegrees(d float64) float64 {
	return d - 360*math.Floor((d+180)/360)
}
