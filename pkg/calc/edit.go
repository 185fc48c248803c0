package calc

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/world"
)

// Edit is a typed change to a node's parameters. Each kind accepts only the
// edits for the options it lists in Options.
type Edit interface {
	// Option is the option name the edit targets.
	Option() string
}

// Component selects one channel of a constant pose.
type Component int

const (
	CompX Component = iota
	CompY
	CompZ
	CompRX // roll
	CompRY // pitch
	CompRZ // yaw
)

var componentNames = [...]string{"x", "y", "z", "rX", "rY", "rZ"}

func (c Component) String() string {
	if c < 0 || int(c) >= len(componentNames) {
		return fmt.Sprintf("Component(%d)", int(c))
	}
	return componentNames[c]
}

type (
	SetHandle    struct{ Handle world.Handle }
	SetIndex     struct{ Index int }
	SetKey       struct{ Key int }
	SetWorld     struct{ World bool }
	SetComponent struct {
		Component Component
		Value     float64
	}
	SetLegacy     struct{ Legacy bool }
	SetEyeVec     struct{ EyeVec bool }
	SetEyeAng     struct{ EyeAng bool }
	SetAttachment struct{ Name string }
	SetFilePath   struct{ Path string }
	// SetStartTime sets a camera file's start; Current uses the host time
	// at the moment the edit is applied.
	SetStartTime struct {
		Start   float64
		Current bool
	}
	SetFov  struct{ Fov float64 }
	SetBool struct{ Value bool }
)

func (SetHandle) Option() string      { return "handle" }
func (SetIndex) Option() string       { return "index" }
func (SetKey) Option() string         { return "key" }
func (SetWorld) Option() string       { return "getWorld" }
func (e SetComponent) Option() string { return e.Component.String() }
func (SetLegacy) Option() string      { return "legacyMethod" }
func (SetEyeVec) Option() string      { return "eyeVec" }
func (SetEyeAng) Option() string      { return "eyeAng" }
func (SetAttachment) Option() string  { return "attachmentName" }
func (SetFilePath) Option() string    { return "filePath" }
func (SetStartTime) Option() string   { return "startTime" }
func (SetFov) Option() string         { return "fov" }
func (SetBool) Option() string        { return "value" }

// ParseEdit builds an Edit from an option name and its textual value.
// Option names are case-insensitive. Booleans accept 0/1 and true/false.
func ParseEdit(option, value string) (Edit, error) {
	bad := func(err error) (Edit, error) {
		return nil, fmt.Errorf("option %s: bad value %q: %w", option, value, err)
	}

	for i, name := range componentNames {
		if strings.EqualFold(option, name) {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return bad(err)
			}
			return SetComponent{Component: Component(i), Value: f}, nil
		}
	}

	switch strings.ToLower(option) {
	case "handle":
		h, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return bad(err)
		}
		return SetHandle{Handle: world.Handle(uint32(h))}, nil
	case "index":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		return SetIndex{Index: n}, nil
	case "key":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad(err)
		}
		return SetKey{Key: n}, nil
	case "getworld":
		b, err := parseBool(value)
		if err != nil {
			return bad(err)
		}
		return SetWorld{World: b}, nil
	case "legacymethod":
		b, err := parseBool(value)
		if err != nil {
			return bad(err)
		}
		return SetLegacy{Legacy: b}, nil
	case "eyevec":
		b, err := parseBool(value)
		if err != nil {
			return bad(err)
		}
		return SetEyeVec{EyeVec: b}, nil
	case "eyeang":
		b, err := parseBool(value)
		if err != nil {
			return bad(err)
		}
		return SetEyeAng{EyeAng: b}, nil
	case "attachmentname":
		return SetAttachment{Name: value}, nil
	case "filepath":
		return SetFilePath{Path: value}, nil
	case "starttime":
		if strings.EqualFold(value, "current") {
			return SetStartTime{Current: true}, nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return bad(err)
		}
		return SetStartTime{Start: f}, nil
	case "fov":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return bad(err)
		}
		return SetFov{Fov: f}, nil
	case "value":
		b, err := parseBool(value)
		if err != nil {
			return bad(err)
		}
		return SetBool{Value: b}, nil
	}
	return nil, fmt.Errorf("option %q: %w", option, ErrUnsupportedEdit)
}

func parseBool(s string) (bool, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(s)
}

// Reconfigure applies edit to the named node of fam. Unsupported edits fail
// with ErrUnsupportedEdit and change nothing.
func (g *Graph) Reconfigure(fam Family, name string, edit Edit) error {
	n, err := g.resolve(fam, name)
	if err != nil {
		return err
	}
	return g.ReconfigureID(n.id, edit)
}

// ReconfigureID applies edit to any node.
func (g *Graph) ReconfigureID(id NodeID, edit Edit) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("reconfigure %d: %w", id, ErrNotFound)
	}
	if edit == nil {
		return fmt.Errorf("reconfigure %q: nil edit: %w", n.displayName(), ErrUnsupportedEdit)
	}
	if !g.apply(n, edit) {
		return fmt.Errorf("%s %s %q: option %s: %w",
			n.data.Family(), n.data.Kind(), n.displayName(), edit.Option(), ErrUnsupportedEdit)
	}
	g.log.Debug("node reconfigured",
		zap.String("name", n.displayName()),
		zap.Stringer("family", n.data.Family()),
		zap.String("option", edit.Option()))
	return nil
}

func (g *Graph) apply(n *node, edit Edit) bool {
	switch d := n.data.(type) {
	case *HandleValue:
		if e, ok := edit.(SetHandle); ok {
			d.Handle = e.Handle
			return true
		}
	case *HandleIndex:
		if e, ok := edit.(SetIndex); ok {
			d.Index = e.Index
			return true
		}
	case *HandleKey:
		if e, ok := edit.(SetKey); ok {
			d.Key = e.Key
			return true
		}
	case *HandleActiveWeapon:
		if e, ok := edit.(SetWorld); ok {
			d.World = e.World
			return true
		}
	case *VecAngValue:
		if e, ok := edit.(SetComponent); ok {
			p := &d.Pose
			switch e.Component {
			case CompX:
				p.Pos.X = e.Value
			case CompY:
				p.Pos.Y = e.Value
			case CompZ:
				p.Pos.Z = e.Value
			case CompRX:
				p.Ang.Roll = e.Value
			case CompRY:
				p.Ang.Pitch = e.Value
			case CompRZ:
				p.Ang.Yaw = e.Value
			default:
				return false
			}
			return true
		}
	case *VecAngOffset:
		if e, ok := edit.(SetLegacy); ok {
			d.Legacy = e.Legacy
			return true
		}
	case *VecAngHandle:
		switch e := edit.(type) {
		case SetEyeVec:
			d.EyeVec = e.EyeVec
			return true
		case SetEyeAng:
			d.EyeAng = e.EyeAng
			return true
		}
	case *VecAngAttachment:
		if e, ok := edit.(SetAttachment); ok {
			d.Attachment = e.Name
			return true
		}
	case *CamFile:
		switch e := edit.(type) {
		case SetFilePath:
			d.Path = e.Path
			g.loadTrack(n.name, d)
			return true
		case SetStartTime:
			if e.Current {
				d.Start = g.host.CurTime()
			} else {
				d.Start = e.Start
			}
			return true
		}
	case *FovValue:
		if e, ok := edit.(SetFov); ok {
			d.Fov = e.Fov
			return true
		}
	case *BoolValue:
		if e, ok := edit.(SetBool); ok {
			d.Value = e.Value
			return true
		}
	}
	return false
}

// OptionValue is one editable option and its current value.
type OptionValue struct {
	Name  string
	Value string
}

// Options lists the editable options of the named node of fam.
func (g *Graph) Options(fam Family, name string) ([]OptionValue, error) {
	n, err := g.resolve(fam, name)
	if err != nil {
		return nil, err
	}
	return options(n.data), nil
}

func options(data NodeData) []OptionValue {
	switch d := data.(type) {
	case *HandleValue:
		return []OptionValue{{"handle", strconv.FormatUint(uint64(d.Handle), 10)}}
	case *HandleIndex:
		return []OptionValue{{"index", strconv.Itoa(d.Index)}}
	case *HandleKey:
		return []OptionValue{{"key", strconv.Itoa(d.Key)}}
	case *HandleActiveWeapon:
		return []OptionValue{{"getWorld", flag(d.World)}}
	case *VecAngValue:
		p := d.Pose
		return []OptionValue{
			{"x", ftoa(p.Pos.X)}, {"y", ftoa(p.Pos.Y)}, {"z", ftoa(p.Pos.Z)},
			{"rX", ftoa(p.Ang.Roll)}, {"rY", ftoa(p.Ang.Pitch)}, {"rZ", ftoa(p.Ang.Yaw)},
		}
	case *VecAngOffset:
		return []OptionValue{{"legacyMethod", flag(d.Legacy)}}
	case *VecAngHandle:
		return []OptionValue{{"eyeVec", flag(d.EyeVec)}, {"eyeAng", flag(d.EyeAng)}}
	case *VecAngAttachment:
		return []OptionValue{{"attachmentName", d.Attachment}}
	case *CamFile:
		return []OptionValue{{"filePath", d.Path}, {"startTime", ftoa(d.Start)}}
	case *FovValue:
		return []OptionValue{{"fov", ftoa(d.Fov)}}
	case *BoolValue:
		return []OptionValue{{"value", flag(d.Value)}}
	}
	return nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
