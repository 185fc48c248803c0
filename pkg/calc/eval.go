package calc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

// Evaluate evaluates the named node of fam. ok is false when the value is
// unavailable this query; err is only set for unknown names.
func (g *Graph) Evaluate(fam Family, name string) (Value, bool, error) {
	n, err := g.resolve(fam, name)
	if err != nil {
		return Value{}, false, err
	}
	v, ok := g.EvaluateID(n.id)
	return v, ok, nil
}

// EvaluateID evaluates any node, named or not.
func (g *Graph) EvaluateID(id NodeID) (Value, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Value{}, false
	}
	fam := n.data.Family()
	v := Value{Family: fam}
	switch fam {
	case FamilyHandle:
		v.Handle, ok = g.evalHandle(id, 0)
	case FamilyVecAng:
		v.Pose, ok = g.evalVecAng(id, 0)
	case FamilyCam:
		v.Cam, ok = g.evalCam(id, 0)
	case FamilyFov:
		v.Fov, ok = g.evalFov(id, 0)
	case FamilyBool:
		v.Bool, ok = g.evalBool(id, 0)
	}
	g.metrics.evaluated(fam, ok)
	return v, ok
}

// EvalHandle evaluates a handle node.
func (g *Graph) EvalHandle(id NodeID) (world.Handle, bool) { return g.evalHandle(id, 0) }

// EvalVecAng evaluates a vecAng node.
func (g *Graph) EvalVecAng(id NodeID) (geom.Pose, bool) { return g.evalVecAng(id, 0) }

// EvalCam evaluates a cam node.
func (g *Graph) EvalCam(id NodeID) (geom.Cam, bool) { return g.evalCam(id, 0) }

// EvalFov evaluates a fov node.
func (g *Graph) EvalFov(id NodeID) (float64, bool) { return g.evalFov(id, 0) }

// EvalBool evaluates a bool node.
func (g *Graph) EvalBool(id NodeID) (bool, bool) { return g.evalBool(id, 0) }

// enter fetches id for evaluation at depth, enforcing the depth limit.
func (g *Graph) enter(id NodeID, fam Family, depth int) (*node, bool) {
	if depth > g.maxDepth {
		g.log.Warn("evaluation depth limit exceeded",
			zap.Int("max_depth", g.maxDepth),
			zap.Uint64("id", uint64(id)))
		return nil, false
	}
	n, ok := g.nodes[id]
	if !ok || n.data.Family() != fam {
		return nil, false
	}
	return n, true
}

// entity resolves a handle operand to a live entity.
func (g *Graph) entity(id NodeID, depth int) (world.Entity, bool) {
	h, ok := g.evalHandle(id, depth)
	if !ok || !h.IsValid() {
		return nil, false
	}
	return g.entities.ByHandle(h)
}

// ---------------------------------------------------------------------------
// Handle
// ---------------------------------------------------------------------------

func (g *Graph) evalHandle(id NodeID, depth int) (world.Handle, bool) {
	n, ok := g.enter(id, FamilyHandle, depth)
	if !ok {
		return world.InvalidHandle, false
	}
	depth++

	switch d := n.data.(type) {
	case *HandleValue:
		return d.Handle, true

	case *HandleIndex:
		if e, ok := g.entities.ByIndex(d.Index); ok {
			return e.Handle(), true
		}

	case *HandleKey:
		return g.keyHandle(d.Key)

	case *HandleLocalPlayer:
		if e, ok := g.entities.ByIndex(g.entities.LocalPlayerIndex()); ok {
			return e.Handle(), true
		}

	case *HandleActiveWeapon:
		if e, ok := g.entity(d.Parent, depth); ok {
			if h, ok := e.ActiveWeapon(d.World); ok && h.IsValid() {
				return h, true
			}
		}

	case *HandleObserverTarget:
		if e, ok := g.entity(d.Parent, depth); ok && e.IsPlayer() {
			if h, ok := e.ObserverTarget(); ok {
				return h, true
			}
		}

	default:
		panic(fmt.Sprintf("calc: unhandled handle kind %T", d))
	}
	return world.InvalidHandle, false
}

// keyHandle maps a spectator HUD key to a player. Keys 1-5 select the
// left-hand side and 6-0 the right-hand side, counting players of each team
// in index order.
func (g *Graph) keyHandle(key int) (world.Handle, bool) {
	nr := ((key+9)%10 + 10) % 10
	otherSide := (nr/5)%2 != 0
	slot := nr % 5
	swapped := g.entities.TeamsSwappedOnScreen()

	var slotCT, slotT int
	for i := 1; i <= g.entities.MaxClients(); i++ {
		e, ok := g.entities.ByIndex(i)
		if !ok || !e.IsPlayer() {
			continue
		}
		switch e.Team() {
		case world.TeamCT:
			if otherSide == swapped && slotCT == slot {
				return e.Handle(), true
			}
			slotCT++
		case world.TeamT:
			if otherSide != swapped && slotT == slot {
				return e.Handle(), true
			}
			slotT++
		}
	}
	return world.InvalidHandle, false
}

// ---------------------------------------------------------------------------
// VecAng
// ---------------------------------------------------------------------------

func (g *Graph) evalVecAng(id NodeID, depth int) (geom.Pose, bool) {
	n, ok := g.enter(id, FamilyVecAng, depth)
	if !ok {
		return geom.Pose{}, false
	}
	depth++

	switch d := n.data.(type) {
	case *VecAngValue:
		return d.Pose, true

	case *VecAngOffset:
		parent, ok := g.evalVecAng(d.Parent, depth)
		if !ok {
			break
		}
		off, ok := g.evalVecAng(d.Offset, depth)
		if !ok {
			break
		}
		return parent.Offset(off, d.Legacy), true

	case *VecAngHandle:
		e, ok := g.entity(d.Handle, depth)
		if !ok {
			break
		}
		p := e.Placement()
		if d.EyeVec || d.EyeAng {
			eye, ok := e.Eye()
			if !ok {
				break
			}
			if d.EyeVec {
				p.Pos = eye.Pos
			}
			if d.EyeAng {
				p.Ang = eye.Ang
			}
		}
		return p, true

	case *VecAngAttachment:
		if e, ok := g.entity(d.Handle, depth); ok {
			return e.Attachment(d.Attachment)
		}

	case *VecAngIf:
		cond, ok := g.evalBool(d.Condition, depth)
		if !ok {
			break
		}
		if cond {
			return g.evalVecAng(d.True, depth)
		}
		return g.evalVecAng(d.False, depth)

	case *VecAngOr:
		if p, ok := g.evalVecAng(d.A, depth); ok {
			return p, true
		}
		return g.evalVecAng(d.B, depth)

	case *VecAngCam:
		if c, ok := g.evalCam(d.Cam, depth); ok {
			return c.Pose, true
		}

	case *VecAngSmooth:
		return g.evalSmooth(d, depth)

	default:
		panic(fmt.Sprintf("calc: unhandled vecAng kind %T", d))
	}
	return geom.Pose{}, false
}

func (g *Graph) evalSmooth(d *VecAngSmooth, depth int) (geom.Pose, bool) {
	target, ok := g.evalVecAng(d.Parent, depth)
	if !ok {
		d.state.Reset()
		return geom.Pose{}, false
	}
	h, ok := g.evalHandle(d.Track, depth)
	if !ok {
		d.state.Reset()
		return geom.Pose{}, false
	}
	if h != d.lastHandle {
		d.state.Reset()
		d.lastHandle = h
	}
	return d.state.Update(g.host.FrameTime(), target), true
}

// ---------------------------------------------------------------------------
// Cam, Fov, Bool
// ---------------------------------------------------------------------------

func (g *Graph) evalCam(id NodeID, depth int) (geom.Cam, bool) {
	n, ok := g.enter(id, FamilyCam, depth)
	if !ok {
		return geom.Cam{}, false
	}

	switch d := n.data.(type) {
	case *CamFile:
		if d.track == nil {
			return geom.Cam{}, false
		}
		w, h := g.host.Viewport()
		return d.track.Sample(g.host.CurTime()-d.Start, w, h)

	case *CamGame:
		return g.host.GameCamera(), true

	default:
		panic(fmt.Sprintf("calc: unhandled cam kind %T", d))
	}
}

func (g *Graph) evalFov(id NodeID, depth int) (float64, bool) {
	n, ok := g.enter(id, FamilyFov, depth)
	if !ok {
		return 0, false
	}

	switch d := n.data.(type) {
	case *FovValue:
		return d.Fov, true
	case *FovCam:
		c, ok := g.evalCam(d.Cam, depth+1)
		return c.Fov, ok
	default:
		panic(fmt.Sprintf("calc: unhandled fov kind %T", d))
	}
}

func (g *Graph) evalBool(id NodeID, depth int) (bool, bool) {
	n, ok := g.enter(id, FamilyBool, depth)
	if !ok {
		return false, false
	}
	depth++

	switch d := n.data.(type) {
	case *BoolValue:
		return d.Value, true

	case *BoolHandle:
		_, ok := g.evalHandle(d.Handle, depth)
		return ok, true

	case *BoolVecAng:
		_, ok := g.evalVecAng(d.VecAng, depth)
		return ok, true

	case *BoolAnd:
		a, ok := g.evalBool(d.A, depth)
		if !ok {
			return false, false
		}
		b, ok := g.evalBool(d.B, depth)
		if !ok {
			return false, false
		}
		return a && b, true

	case *BoolOr:
		a, ok := g.evalBool(d.A, depth)
		if !ok {
			return false, false
		}
		b, ok := g.evalBool(d.B, depth)
		if !ok {
			return false, false
		}
		return a || b, true

	case *BoolNot:
		a, ok := g.evalBool(d.A, depth)
		if !ok {
			return false, false
		}
		return !a, true

	default:
		panic(fmt.Sprintf("calc: unhandled bool kind %T", d))
	}
}
