package calc

import (
	"fmt"
	"strings"
)

// Describe returns a one-line description of id, e.g.
//
//	name="p1" type=handleEx handle="h1" eyeVec=0 eyeAng=0
func (g *Graph) Describe(id NodeID) (string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return "", fmt.Errorf("describe %d: %w", id, ErrNotFound)
	}
	return g.describe(n), nil
}

// DescribeAll describes the named nodes of fam in creation order.
func (g *Graph) DescribeAll(fam Family) []string {
	if fam < 0 || fam >= familyCount {
		return nil
	}
	order := g.registries[fam].order
	out := make([]string, 0, len(order))
	for _, id := range order {
		out = append(out, g.describe(g.nodes[id]))
	}
	return out
}

func (g *Graph) describe(n *node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%q type=%s", n.displayName(), n.data.Kind())

	kv := func(k, v string) { fmt.Fprintf(&b, " %s=%s", k, v) }
	ref := func(k string, id NodeID) { fmt.Fprintf(&b, " %s=%q", k, g.operandName(id)) }

	switch d := n.data.(type) {
	case *HandleValue:
		kv("handle", fmt.Sprintf("%d", uint32(d.Handle)))
	case *HandleIndex:
		kv("index", fmt.Sprintf("%d", d.Index))
	case *HandleKey:
		kv("key", fmt.Sprintf("%d", d.Key))
	case *HandleLocalPlayer:
	case *HandleActiveWeapon:
		ref("parent", d.Parent)
		kv("getWorld", flag(d.World))
	case *HandleObserverTarget:
		ref("parent", d.Parent)

	case *VecAngValue:
		p := d.Pose
		kv("x", ftoa(p.Pos.X))
		kv("y", ftoa(p.Pos.Y))
		kv("z", ftoa(p.Pos.Z))
		kv("rX", ftoa(p.Ang.Roll))
		kv("rY", ftoa(p.Ang.Pitch))
		kv("rZ", ftoa(p.Ang.Yaw))
	case *VecAngOffset:
		ref("parent", d.Parent)
		ref("offset", d.Offset)
		kv("legacyMethod", flag(d.Legacy))
	case *VecAngHandle:
		ref("handle", d.Handle)
		kv("eyeVec", flag(d.EyeVec))
		kv("eyeAng", flag(d.EyeAng))
	case *VecAngAttachment:
		ref("handle", d.Handle)
		kv("attachmentName", fmt.Sprintf("%q", d.Attachment))
	case *VecAngIf:
		ref("condition", d.Condition)
		ref("true", d.True)
		ref("false", d.False)
	case *VecAngOr:
		ref("a", d.A)
		ref("b", d.B)
	case *VecAngCam:
		ref("cam", d.Cam)
	case *VecAngSmooth:
		ref("parent", d.Parent)
		ref("trackHandle", d.Track)

	case *CamFile:
		kv("filePath", fmt.Sprintf("%q", d.Path))
		kv("startTime", ftoa(d.Start))
		if d.loadErr != nil {
			kv("error", fmt.Sprintf("%q", d.loadErr.Error()))
		}
	case *CamGame:

	case *FovValue:
		kv("fov", ftoa(d.Fov))
	case *FovCam:
		ref("cam", d.Cam)

	case *BoolValue:
		kv("value", flag(d.Value))
	case *BoolHandle:
		ref("handle", d.Handle)
	case *BoolVecAng:
		ref("vecAng", d.VecAng)
	case *BoolAnd:
		ref("a", d.A)
		ref("b", d.B)
	case *BoolOr:
		ref("a", d.A)
		ref("b", d.B)
	case *BoolNot:
		ref("a", d.A)
	}
	return b.String()
}

func (g *Graph) operandName(id NodeID) string {
	if n, ok := g.nodes[id]; ok {
		return n.displayName()
	}
	return "(no name)"
}
