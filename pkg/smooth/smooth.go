// Package smooth moves a scalar toward a target without exceeding a maximum
// velocity or a maximum acceleration.
//
// Each step plans a bang-bang profile that accelerates toward the target,
// optionally cruises at the velocity limit and decelerates to rest exactly
// on the target. The plan is recomputed on every call, so a moving target is
// followed smoothly.
package smooth

import "math"

// Epsilon is the distance and speed below which a channel counts as settled.
const Epsilon = 1e-6

// maxSteps bounds the planning loop against float residue.
const maxSteps = 64

// Limits bounds one channel. Both values must be positive.
type Limits struct {
	MaxVelocity     float64 `yaml:"max_velocity"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
}

// Default limits for position channels (units/s, units/s²) and rotation
// channels (deg/s, deg/s²).
var (
	DefaultPosition = Limits{MaxVelocity: 6000, MaxAcceleration: 6000}
	DefaultRotation = Limits{MaxVelocity: 360, MaxAcceleration: 90}
)

// State is the persisted position and velocity of one channel.
type State struct {
	Pos float64
	Vel float64
}

// Settled reports whether s rests on target.
func (s State) Settled(target float64) bool {
	return math.Abs(target-s.Pos) <= Epsilon && math.Abs(s.Vel) <= Epsilon
}

// Advance moves s toward target for dt seconds. A non-positive dt returns s
// unchanged.
func Advance(dt, target float64, s State, l Limits) State {
	pos, vel := s.Pos, s.Vel
	limV, acc := l.MaxVelocity, l.MaxAcceleration

	for step := 0; dt > 0 && step < maxSteps; step++ {
		if vel > limV {
			t := math.Min((limV-vel)/-acc, dt)
			pos += vel*t - acc/2*t*t
			vel -= acc * t
			dt -= t
			continue
		}
		if vel < -limV {
			t := math.Min((-limV-vel)/acc, dt)
			pos += vel*t + acc/2*t*t
			vel += acc * t
			dt -= t
			continue
		}

		delta := target - pos

		dir := 1.0
		if vel < 0 || (vel == 0 && delta < 0) {
			dir = -1
		}
		dAcc := dir * acc

		// Full stop from the current velocity.
		var p1, p2 float64
		p3 := vel / dAcc
		reached := vel*p3 - dAcc/2*p3*p3

		if dir*(delta-reached) > 0 {
			// Accelerate further, bounded by the remaining distance and by
			// the velocity limit.
			temp1 := 2 * vel / dAcc
			byPos := 0.5 * (-temp1 + math.Sqrt(temp1*temp1-4*(-delta+vel*p3-dAcc/2*p3*p3)/dAcc))
			byVel := (dir*limV - vel) / dAcc
			p1 = math.Min(byPos, byVel)
			p3 += p1

			reached = vel*p1 + dAcc/2*p1*p1 + (vel+dAcc*p1)*p3 - dAcc/2*p3*p3

			if dir*(delta-reached) > 0 {
				if cruise := vel + dAcc*p1; cruise != 0 {
					p2 = (delta - vel*p1 - dAcc/2*p1*p1 - cruise*p3 + dAcc/2*p3*p3) / cruise
				}
			}
		}

		p3 = math.Max(math.Min(p1+p2+p3, dt)-p2-p1, 0)
		p2 = math.Max(math.Min(p1+p2, dt)-p1, 0)
		p1 = math.Min(p1, dt)

		peak := vel + dAcc*p1
		pos += vel*p1 + dAcc/2*p1*p1 + peak*p2 + peak*p3 - dAcc/2*p3*p3
		vel = peak - dAcc*p3
		dt -= p1 + p2 + p3

		if math.Abs(target-pos) <= Epsilon && math.Abs(vel) <= Epsilon {
			pos, vel = target, 0
			dt = 0
		}
	}

	return State{Pos: pos, Vel: vel}
}
