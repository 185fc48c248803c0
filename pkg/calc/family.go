package calc

import (
	"fmt"
	"strings"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

// Family is the type of value a node produces.
type Family int

const (
	FamilyHandle Family = iota
	FamilyVecAng
	FamilyCam
	FamilyFov
	FamilyBool

	familyCount
)

// Families lists every family in declaration order.
var Families = []Family{FamilyHandle, FamilyVecAng, FamilyCam, FamilyFov, FamilyBool}

func (f Family) String() string {
	switch f {
	case FamilyHandle:
		return "handle"
	case FamilyVecAng:
		return "vecAng"
	case FamilyCam:
		return "cam"
	case FamilyFov:
		return "fov"
	case FamilyBool:
		return "bool"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily resolves a family name case-insensitively.
func ParseFamily(s string) (Family, error) {
	for _, f := range Families {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown family %q", ErrNotFound, s)
}

// Value is the result of evaluating a node. Only the field matching Family
// is meaningful.
type Value struct {
	Family Family
	Handle world.Handle
	Pose   geom.Pose
	Cam    geom.Cam
	Fov    float64
	Bool   bool
}

func (v Value) String() string {
	switch v.Family {
	case FamilyHandle:
		return fmt.Sprintf("handle=%d", uint32(v.Handle))
	case FamilyVecAng:
		return v.Pose.String()
	case FamilyCam:
		return v.Cam.String()
	case FamilyFov:
		return fmt.Sprintf("fov=%f", v.Fov)
	case FamilyBool:
		return fmt.Sprintf("value=%t", v.Bool)
	default:
		return "?"
	}
}

// Result formats the outcome of a test query, e.g.
//
//	Result: true, handle=1001
func Result(v Value, ok bool) string {
	if !ok {
		return "Result: false"
	}
	return "Result: true, " + v.String()
}
