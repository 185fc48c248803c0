package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/calcgraph/pkg/calc"
	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

// kind is one "add" form of a family.
type kind struct {
	name   string
	params []string
	help   string
	build  func(g *calc.Graph, a []string) (calc.NodeData, error)
}

var kinds = map[calc.Family][]kind{
	calc.FamilyHandle: {
		{"value", []string{"iHandle"}, "Add a new calc with a constant value.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				n, err := strconv.ParseInt(a[0], 10, 64)
				if err != nil {
					return nil, err
				}
				return &calc.HandleValue{Handle: world.Handle(uint32(n))}, nil
			}},
		{"index", []string{"iIndex"}, "Add a new index calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				n, err := strconv.Atoi(a[0])
				if err != nil {
					return nil, err
				}
				return &calc.HandleIndex{Index: n}, nil
			}},
		{"key", []string{"iKeyNumber"}, "Add a new key calc (like spectator HUD).",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				n, err := strconv.Atoi(a[0])
				if err != nil {
					return nil, err
				}
				return &calc.HandleKey{Key: n}, nil
			}},
		{"activeWeapon", []string{"sParentCalcHandleName", "bGetWorld"}, "Add an active weapon calc, <bGetWorld> is 0 or 1.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				p, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				w, err := parseFlag(a[1])
				if err != nil {
					return nil, err
				}
				return &calc.HandleActiveWeapon{Parent: p, World: w}, nil
			}},
		{"localPlayer", nil, "Add localPlayer calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				return &calc.HandleLocalPlayer{}, nil
			}},
		{"observerTarget", []string{"sParentCalcHandleName"}, "Add observer target calc (use e.g. localPlayer calc as parent name).",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				p, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.HandleObserverTarget{Parent: p}, nil
			}},
	},

	calc.FamilyVecAng: {
		{"value", []string{"fX", "fY", "fZ", "rX", "rY", "rZ"}, "Add a new calc with a constant value.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				var f [6]float64
				for i := range f {
					v, err := strconv.ParseFloat(a[i], 64)
					if err != nil {
						return nil, err
					}
					f[i] = v
				}
				return &calc.VecAngValue{Pose: geom.Pose{
					Pos: geom.Vec{X: f[0], Y: f[1], Z: f[2]},
					Ang: geom.Angles{Roll: f[3], Pitch: f[4], Yaw: f[5]},
				}}, nil
			}},
		{"offset", []string{"sParentName", "sOffSetName", "bLegacyMethod"}, "Add a new offset calc, <bLegacyMethod>: 0 new method (recommended), 1 legacy method.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyVecAng, calc.FamilyVecAng)
				if err != nil {
					return nil, err
				}
				legacy, err := parseFlag(a[2])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngOffset{Parent: ids[0], Offset: ids[1], Legacy: legacy}, nil
			}},
		{"handle", []string{"sHandleCalcName"}, "Add a calc that gets its values from an entity.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				h, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngHandle{Handle: h}, nil
			}},
		{"handleEye", []string{"sHandleCalcName"}, "Add a calc that gets its values from an entity's eye point.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				h, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngHandle{Handle: h, EyeVec: true, EyeAng: true}, nil
			}},
		{"handleEx", []string{"sHandleCalcName", "bEyeVec", "bEyeAng"}, "Add a calc that gets its values from an entity, choosing eye position and angles separately.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				h, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				eyeVec, err := parseFlag(a[1])
				if err != nil {
					return nil, err
				}
				eyeAng, err := parseFlag(a[2])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngHandle{Handle: h, EyeVec: eyeVec, EyeAng: eyeAng}, nil
			}},
		{"handleAttachment", []string{"sHandleCalcName", "sAttachmentName"}, "Add a calc that gets its values from an entity's attachment.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				h, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngAttachment{Handle: h, Attachment: a[1]}, nil
			}},
		{"if", []string{"sConditionName", "sTrueName", "sFalseName"}, "Add an IF calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyBool, calc.FamilyVecAng, calc.FamilyVecAng)
				if err != nil {
					return nil, err
				}
				return &calc.VecAngIf{Condition: ids[0], True: ids[1], False: ids[2]}, nil
			}},
		{"or", []string{"sAName", "sBName"}, "Add an OR calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyVecAng, calc.FamilyVecAng)
				if err != nil {
					return nil, err
				}
				return &calc.VecAngOr{A: ids[0], B: ids[1]}, nil
			}},
		{"cam", []string{"sCamCalcName"}, "Add a calc that gets its values from a cam calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				id, err := ref(g, calc.FamilyCam, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.VecAngCam{Cam: id}, nil
			}},
		{"smooth", []string{"sParentName", "sTrackHandleName"}, "Add a smooth calc, <sTrackHandleName> is used to detect target changes (reset).",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyVecAng, calc.FamilyHandle)
				if err != nil {
					return nil, err
				}
				return &calc.VecAngSmooth{Parent: ids[0], Track: ids[1]}, nil
			}},
	},

	calc.FamilyCam: {
		{"cam", []string{"sFilePath", "fStartTime|current"}, "Add a calc that plays back a camera path file.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				d := &calc.CamFile{Path: a[0]}
				if strings.EqualFold(a[1], "current") {
					d.StartCurrent = true
					return d, nil
				}
				f, err := strconv.ParseFloat(a[1], 64)
				if err != nil {
					return nil, err
				}
				d.Start = f
				return d, nil
			}},
		{"game", nil, "Add a calc that returns the game's own view.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				return &calc.CamGame{}, nil
			}},
	},

	calc.FamilyFov: {
		{"value", []string{"fFov"}, "Add a new calc with a constant value.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				f, err := strconv.ParseFloat(a[0], 64)
				if err != nil {
					return nil, err
				}
				return &calc.FovValue{Fov: f}, nil
			}},
		{"cam", []string{"sCamCalcName"}, "Add a calc that gets its value from a cam calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				id, err := ref(g, calc.FamilyCam, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.FovCam{Cam: id}, nil
			}},
	},

	calc.FamilyBool: {
		{"value", []string{"bValue"}, "Add a new calc with a constant value.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				b, err := parseFlag(a[0])
				if err != nil {
					return nil, err
				}
				return &calc.BoolValue{Value: b}, nil
			}},
		{"handle", []string{"sHandleCalcName"}, "True when the handle calc succeeds.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				id, err := ref(g, calc.FamilyHandle, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.BoolHandle{Handle: id}, nil
			}},
		{"vecAng", []string{"sVecAngCalcName"}, "True when the vecAng calc succeeds.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				id, err := ref(g, calc.FamilyVecAng, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.BoolVecAng{VecAng: id}, nil
			}},
		{"and", []string{"sAName", "sBName"}, "Add an AND calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyBool, calc.FamilyBool)
				if err != nil {
					return nil, err
				}
				return &calc.BoolAnd{A: ids[0], B: ids[1]}, nil
			}},
		{"or", []string{"sAName", "sBName"}, "Add an OR calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				ids, err := refs(g, a, calc.FamilyBool, calc.FamilyBool)
				if err != nil {
					return nil, err
				}
				return &calc.BoolOr{A: ids[0], B: ids[1]}, nil
			}},
		{"not", []string{"sAName"}, "Add a NOT calc.",
			func(g *calc.Graph, a []string) (calc.NodeData, error) {
				id, err := ref(g, calc.FamilyBool, a[0])
				if err != nil {
					return nil, err
				}
				return &calc.BoolNot{A: id}, nil
			}},
	},
}

func ref(g *calc.Graph, fam calc.Family, name string) (calc.NodeID, error) {
	id, ok := g.Lookup(fam, name)
	if !ok {
		return 0, fmt.Errorf("no %s calc with name %q: %w", fam, name, calc.ErrNotFound)
	}
	return id, nil
}

func refs(g *calc.Graph, names []string, fams ...calc.Family) ([]calc.NodeID, error) {
	ids := make([]calc.NodeID, len(fams))
	for i, fam := range fams {
		id, err := ref(g, fam, names[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// parseFlag accepts integers (non-zero is true) and true/false.
func parseFlag(s string) (bool, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(s)
}
