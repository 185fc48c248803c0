package smooth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/calcgraph/pkg/geom"
)

func TestAdvanceNonPositiveDt(t *testing.T) {
	s := State{Pos: 3, Vel: 1.5}
	l := Limits{MaxVelocity: 10, MaxAcceleration: 10}
	assert.Equal(t, s, Advance(0, 100, s, l))
	assert.Equal(t, s, Advance(-1, 100, s, l))
}

func TestAdvanceConverges(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		start  State
		limits Limits
	}{
		{"cruise", 100, State{}, Limits{MaxVelocity: 50, MaxAcceleration: 100}},
		{"short hop", 0.5, State{}, Limits{MaxVelocity: 50, MaxAcceleration: 100}},
		{"backwards", -40, State{Pos: 10}, Limits{MaxVelocity: 20, MaxAcceleration: 30}},
		{"moving away", 10, State{Vel: -15}, Limits{MaxVelocity: 20, MaxAcceleration: 30}},
		{"over limit", 0, State{Pos: -50, Vel: 80}, Limits{MaxVelocity: 20, MaxAcceleration: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.start
			for range 2000 {
				s = Advance(0.01, tt.target, s, tt.limits)
			}
			assert.InDelta(t, tt.target, s.Pos, Epsilon)
			assert.InDelta(t, 0, s.Vel, Epsilon)
		})
	}
}

func TestAdvanceBounds(t *testing.T) {
	l := Limits{MaxVelocity: 50, MaxAcceleration: 100}
	const dt = 0.01
	s := State{}
	for i := range 400 {
		target := 100.0
		if i > 150 {
			target = -30
		}
		next := Advance(dt, target, s, l)
		require.LessOrEqual(t, math.Abs(next.Vel), l.MaxVelocity+Epsilon, "step %d", i)
		require.LessOrEqual(t, math.Abs(next.Vel-s.Vel), l.MaxAcceleration*dt+Epsilon, "step %d", i)
		s = next
	}
}

func TestAdvanceOverLimitDecelerates(t *testing.T) {
	l := Limits{MaxVelocity: 20, MaxAcceleration: 30}
	s := Advance(0.1, 1000, State{Vel: 50}, l)
	// Still above the limit: decelerated at full rate for the whole step.
	assert.InDelta(t, 47, s.Vel, 1e-9)
	assert.InDelta(t, 50*0.1-15*0.01, s.Pos, 1e-9)

	s = Advance(0.1, -1000, State{Vel: -50}, l)
	assert.InDelta(t, -47, s.Vel, 1e-9)
}

func TestAdvanceSettledStaysPut(t *testing.T) {
	l := Limits{MaxVelocity: 1, MaxAcceleration: 1}
	s := Advance(1, 5, State{Pos: 5}, l)
	assert.Equal(t, State{Pos: 5}, s)
	assert.True(t, s.Settled(5))
}

func TestAdvanceSnapsExactly(t *testing.T) {
	l := Limits{MaxVelocity: 100, MaxAcceleration: 100}
	// Plenty of time to finish the whole profile in one call.
	s := Advance(10, 1, State{}, l)
	assert.Equal(t, State{Pos: 1}, s)
}

func TestPoseFirstUpdateSnaps(t *testing.T) {
	p := NewPose(DefaultPosition, DefaultRotation)
	target := geom.Pose{Pos: geom.Vec{X: 500, Y: -20, Z: 3}, Ang: geom.Angles{Pitch: 10, Yaw: 170, Roll: 0}}
	assert.Equal(t, target, p.Update(0.016, target))

	moved := target
	moved.Pos.X = 900
	got := p.Update(0.016, moved)
	assert.Less(t, got.Pos.X, 900.0)
	assert.Greater(t, got.Pos.X, 500.0)

	p.Reset()
	assert.Equal(t, moved, p.Update(0.016, moved))
}

func TestPoseRotationTakesShorterArc(t *testing.T) {
	p := NewPose(DefaultPosition, DefaultRotation)
	p.Update(0.1, geom.Pose{Ang: geom.Angles{Yaw: 175}})

	got := p.Update(0.1, geom.Pose{Ang: geom.Angles{Yaw: -175}})
	// -175 is 10 degrees ahead of 175, not 350 behind.
	assert.Greater(t, got.Ang.Yaw, 175.0)
	assert.Less(t, got.Ang.Yaw, 185.0)
}

func TestPoseRotationWrapsLargeChange(t *testing.T) {
	const dt = 0.1
	p := NewPose(DefaultPosition, DefaultRotation)
	p.Update(dt, geom.Pose{})

	// A change to 350 is a 10 degree turn the other way.
	target := geom.Pose{Ang: geom.Angles{Yaw: 350}}
	prevYaw, prevVel := 0.0, 0.0
	for i := range 100 {
		got := p.Update(dt, target)
		vel := p.ang[1].Vel

		require.LessOrEqual(t, got.Ang.Yaw, prevYaw+Epsilon, "frame %d moved away from -10", i)
		require.GreaterOrEqual(t, got.Ang.Yaw, -10-Epsilon, "frame %d overshot", i)
		require.LessOrEqual(t, math.Abs(vel), DefaultRotation.MaxVelocity+Epsilon, "frame %d", i)
		require.LessOrEqual(t, math.Abs(vel-prevVel), DefaultRotation.MaxAcceleration*dt+1e-9, "frame %d", i)
		prevYaw, prevVel = got.Ang.Yaw, vel
	}
	assert.InDelta(t, -10, prevYaw, 1e-6)
}
