package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion is a rotation in Hamilton convention.
type Quaternion = mgl64.Quat

// FromAngles returns the rotation yaw * pitch * roll.
func FromAngles(a Angles) Quaternion {
	return mgl64.AnglesToQuat(Radians(a.Yaw), Radians(a.Pitch), Radians(a.Roll), mgl64.ZYX)
}

// ToAngles converts q back to Euler angles. Pitch is clamped to +-90 at the
// poles.
func ToAngles(q Quaternion) Angles {
	w, x, y, z := q.W, q.X(), q.Y(), q.Z()
	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Angles{Pitch: Degrees(pitch), Yaw: Degrees(yaw), Roll: Degrees(roll)}
}

// Slerp interpolates between the orientations a and b along the shorter arc.
func Slerp(a, b Angles, t float64) Angles {
	return ToAngles(mgl64.QuatSlerp(FromAngles(a), FromAngles(b), t))
}
