package smooth

import "github.com/chazu/calcgraph/pkg/geom"

// Pose smooths all six channels of a geom.Pose. The zero value is reset and
// snaps to the first target it sees.
type Pose struct {
	Position Limits
	Rotation Limits

	pos   [3]State
	ang   [3]State
	ready bool
}

// NewPose returns a reset pose smoother with the given limits.
func NewPose(position, rotation Limits) *Pose {
	return &Pose{Position: position, Rotation: rotation}
}

// Reset makes the next Update snap to its target.
func (p *Pose) Reset() { p.ready = false }

// Current returns the last smoothed pose.
func (p *Pose) Current() geom.Pose {
	return geom.Pose{
		Pos: geom.Vec{X: p.pos[0].Pos, Y: p.pos[1].Pos, Z: p.pos[2].Pos},
		Ang: geom.Angles{Pitch: p.ang[0].Pos, Yaw: p.ang[1].Pos, Roll: p.ang[2].Pos},
	}
}

// Update advances every channel by dt toward target and returns the result.
// Rotation channels move along the shorter arc.
func (p *Pose) Update(dt float64, target geom.Pose) geom.Pose {
	tp := [3]float64{target.Pos.X, target.Pos.Y, target.Pos.Z}
	ta := [3]float64{target.Ang.Pitch, target.Ang.Yaw, target.Ang.Roll}

	if !p.ready {
		for i := range 3 {
			p.pos[i] = State{Pos: tp[i]}
			p.ang[i] = State{Pos: ta[i]}
		}
		p.ready = true
		return p.Current()
	}

	for i := range 3 {
		p.pos[i] = Advance(dt, tp[i], p.pos[i], p.Position)

		// Smooth in a frame where the last angle is zero so the target is
		// the wrapped difference.
		last := p.ang[i].Pos
		rel := Advance(dt, geom.WrapDegrees(ta[i]-last), State{Vel: p.ang[i].Vel}, p.Rotation)
		p.ang[i] = State{Pos: last + rel.Pos, Vel: rel.Vel}
	}
	return p.Current()
}
