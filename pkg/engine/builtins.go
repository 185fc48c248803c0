package engine

import (
	"fmt"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/calc"
	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms calc script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: vecang-offset -> vecang_offset
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpCalcRef wraps a calc node so it can be passed between builtins.
type sexpCalcRef struct {
	id     calc.NodeID
	family calc.Family
	name   string // empty for anonymous calcs
}

func (r *sexpCalcRef) SexpString(ps *zygo.PrintState) string {
	if r.name != "" {
		return fmt.Sprintf("(calc %s %q)", r.family, r.name)
	}
	return fmt.Sprintf("(calc %s #%d)", r.family, r.id)
}
func (r *sexpCalcRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and numbers, where non-zero is true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_handle) and plain strings ("handle").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toFamily converts a keyword or string to a calc.Family.
func toFamily(s zygo.Sexp) (calc.Family, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("family: %w", err)
	}
	return calc.ParseFamily(name)
}

// toOptionValue renders a script value the way the console would type it.
func toOptionValue(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *zygo.SexpInt:
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		return strconv.FormatFloat(v.Val, 'g', -1, 64), nil
	case *zygo.SexpBool:
		if v.Val {
			return "1", nil
		}
		return "0", nil
	}
	return "", fmt.Errorf("expected option value, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// session is the per-run state shared by the builtins.
type session struct {
	g       *calc.Graph
	log     *zap.Logger
	anon    []calc.NodeID
	created []string
	output  []string
}

// operand resolves a calc reference or a calc name of family fam.
func (s *session) operand(arg zygo.Sexp, fam calc.Family) (calc.NodeID, error) {
	switch v := arg.(type) {
	case *sexpCalcRef:
		if v.family != fam {
			return 0, fmt.Errorf("%s is a %s calc, want %s: %w", v.SexpString(nil), v.family, fam, calc.ErrWrongFamily)
		}
		return v.id, nil
	case *zygo.SexpStr:
		id, ok := s.g.Lookup(fam, v.S)
		if !ok {
			return 0, fmt.Errorf("%s %q: %w", fam, v.S, calc.ErrNotFound)
		}
		return id, nil
	}
	return 0, fmt.Errorf("expected %s calc or name, got %T (%s)", fam, arg, arg.SexpString(nil))
}

// add creates a calc named by the optional :name keyword. Anonymous calcs
// are owned by the session until the run ends.
func (s *session) add(pa kwArgs, data calc.NodeData) (zygo.Sexp, error) {
	name := ""
	if v, ok := pa.kw["name"]; ok {
		n, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("name: %w", err)
		}
		name = n
	}
	id, err := s.g.Add(name, data)
	if err != nil {
		return zygo.SexpNull, err
	}
	if name == "" {
		s.anon = append(s.anon, id)
	} else {
		s.created = append(s.created, name)
	}
	return &sexpCalcRef{id: id, family: data.Family(), name: name}, nil
}

func (s *session) releaseAnonymous() {
	for _, id := range s.anon {
		if err := s.g.Release(id); err != nil {
			s.log.Warn("release anonymous calc", zap.Uint64("id", uint64(id)), zap.Error(err))
		}
	}
	s.anon = nil
}

func (s *session) print(line string) {
	s.output = append(s.output, line)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// constructor registers a builtin that builds one calc from exactly arity
// positional arguments (any count when arity is negative) plus keywords.
func (s *session) constructor(env *zygo.Zlisp, name string, arity int, build func(pa kwArgs) (calc.NodeData, error)) {
	env.AddFunction(strings.ReplaceAll(name, "-", "_"), func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if arity >= 0 && len(pa.positional) != arity {
			return zygo.SexpNull, fmt.Errorf("%s requires %d argument(s), got %d", name, arity, len(pa.positional))
		}
		data, err := build(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		ref, err := s.add(pa, data)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		return ref, nil
	})
}

// operands resolves the positional arguments against fams, in order.
func (s *session) operands(pa kwArgs, fams ...calc.Family) ([]calc.NodeID, error) {
	ids := make([]calc.NodeID, len(fams))
	for i, fam := range fams {
		id, err := s.operand(pa.positional[i], fam)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func kwBool(pa kwArgs, key string) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// register installs all calc builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func (s *session) register(env *zygo.Zlisp) {
	s.registerHandle(env)
	s.registerVecAng(env)
	s.registerCam(env)
	s.registerFov(env)
	s.registerBool(env)
	s.registerQueries(env)
}

func (s *session) registerHandle(env *zygo.Zlisp) {
	// (handle-value 1001 :name "h")
	s.constructor(env, "handle-value", 1, func(pa kwArgs) (calc.NodeData, error) {
		n, err := toInt(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &calc.HandleValue{Handle: world.Handle(uint32(n))}, nil
	})

	// (handle-index 1 :name "h1")
	s.constructor(env, "handle-index", 1, func(pa kwArgs) (calc.NodeData, error) {
		n, err := toInt(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &calc.HandleIndex{Index: n}, nil
	})

	// (handle-key 3)
	s.constructor(env, "handle-key", 1, func(pa kwArgs) (calc.NodeData, error) {
		n, err := toInt(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &calc.HandleKey{Key: n}, nil
	})

	s.constructor(env, "handle-local-player", 0, func(pa kwArgs) (calc.NodeData, error) {
		return &calc.HandleLocalPlayer{}, nil
	})

	// (handle-active-weapon h1 :world true)
	s.constructor(env, "handle-active-weapon", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		w, err := kwBool(pa, "world")
		if err != nil {
			return nil, err
		}
		return &calc.HandleActiveWeapon{Parent: ids[0], World: w}, nil
	})

	s.constructor(env, "handle-observer-target", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		return &calc.HandleObserverTarget{Parent: ids[0]}, nil
	})
}

func (s *session) registerVecAng(env *zygo.Zlisp) {
	// (vecang-value x y z rX rY rZ) or (vecang-value) for the origin.
	s.constructor(env, "vecang-value", -1, func(pa kwArgs) (calc.NodeData, error) {
		n := len(pa.positional)
		if n != 0 && n != 6 {
			return nil, fmt.Errorf("requires 0 or 6 arguments, got %d", n)
		}
		var c [6]float64
		for i, arg := range pa.positional {
			f, err := toFloat64(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			c[i] = f
		}
		return &calc.VecAngValue{Pose: geom.Pose{
			Pos: geom.Vec{X: c[0], Y: c[1], Z: c[2]},
			Ang: geom.Angles{Roll: c[3], Pitch: c[4], Yaw: c[5]},
		}}, nil
	})

	// (vecang-offset parent offset :legacy true)
	s.constructor(env, "vecang-offset", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyVecAng, calc.FamilyVecAng)
		if err != nil {
			return nil, err
		}
		legacy, err := kwBool(pa, "legacy")
		if err != nil {
			return nil, err
		}
		return &calc.VecAngOffset{Parent: ids[0], Offset: ids[1], Legacy: legacy}, nil
	})

	s.constructor(env, "vecang-handle", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngHandle{Handle: ids[0]}, nil
	})

	s.constructor(env, "vecang-handle-eye", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngHandle{Handle: ids[0], EyeVec: true, EyeAng: true}, nil
	})

	// (vecang-handle-ex h1 :eye-vec true :eye-ang false)
	s.constructor(env, "vecang-handle-ex", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		eyeVec, err := kwBool(pa, "eye-vec")
		if err != nil {
			return nil, err
		}
		eyeAng, err := kwBool(pa, "eye-ang")
		if err != nil {
			return nil, err
		}
		return &calc.VecAngHandle{Handle: ids[0], EyeVec: eyeVec, EyeAng: eyeAng}, nil
	})

	// (vecang-attachment h1 "muzzle")
	s.constructor(env, "vecang-attachment", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		name, err := toString(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}
		return &calc.VecAngAttachment{Handle: ids[0], Attachment: name}, nil
	})

	s.constructor(env, "vecang-if", 3, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyBool, calc.FamilyVecAng, calc.FamilyVecAng)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngIf{Condition: ids[0], True: ids[1], False: ids[2]}, nil
	})

	s.constructor(env, "vecang-or", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyVecAng, calc.FamilyVecAng)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngOr{A: ids[0], B: ids[1]}, nil
	})

	s.constructor(env, "vecang-cam", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyCam)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngCam{Cam: ids[0]}, nil
	})

	// (vecang-smooth parent track)
	s.constructor(env, "vecang-smooth", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyVecAng, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		return &calc.VecAngSmooth{Parent: ids[0], Track: ids[1]}, nil
	})
}

func (s *session) registerCam(env *zygo.Zlisp) {
	// (cam-file "path.cam" :start 12.5) or :start "current"
	s.constructor(env, "cam-file", 1, func(pa kwArgs) (calc.NodeData, error) {
		path, err := toString(pa.positional[0])
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		d := &calc.CamFile{Path: path}
		if v, ok := pa.kw["start"]; ok {
			if str, err := toKeywordString(v); err == nil {
				if !strings.EqualFold(str, "current") {
					return nil, fmt.Errorf("start: expected number or \"current\", got %q", str)
				}
				d.StartCurrent = true
			} else if d.Start, err = toFloat64(v); err != nil {
				return nil, fmt.Errorf("start: %w", err)
			}
		}
		return d, nil
	})

	s.constructor(env, "cam-game", 0, func(pa kwArgs) (calc.NodeData, error) {
		return &calc.CamGame{}, nil
	})
}

func (s *session) registerFov(env *zygo.Zlisp) {
	s.constructor(env, "fov-value", 1, func(pa kwArgs) (calc.NodeData, error) {
		f, err := toFloat64(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &calc.FovValue{Fov: f}, nil
	})

	s.constructor(env, "fov-cam", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyCam)
		if err != nil {
			return nil, err
		}
		return &calc.FovCam{Cam: ids[0]}, nil
	})
}

func (s *session) registerBool(env *zygo.Zlisp) {
	s.constructor(env, "bool-value", 1, func(pa kwArgs) (calc.NodeData, error) {
		b, err := toBool(pa.positional[0])
		if err != nil {
			return nil, err
		}
		return &calc.BoolValue{Value: b}, nil
	})

	s.constructor(env, "bool-handle", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyHandle)
		if err != nil {
			return nil, err
		}
		return &calc.BoolHandle{Handle: ids[0]}, nil
	})

	s.constructor(env, "bool-vecang", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyVecAng)
		if err != nil {
			return nil, err
		}
		return &calc.BoolVecAng{VecAng: ids[0]}, nil
	})

	s.constructor(env, "bool-and", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyBool, calc.FamilyBool)
		if err != nil {
			return nil, err
		}
		return &calc.BoolAnd{A: ids[0], B: ids[1]}, nil
	})

	s.constructor(env, "bool-or", 2, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyBool, calc.FamilyBool)
		if err != nil {
			return nil, err
		}
		return &calc.BoolOr{A: ids[0], B: ids[1]}, nil
	})

	s.constructor(env, "bool-not", 1, func(pa kwArgs) (calc.NodeData, error) {
		ids, err := s.operands(pa, calc.FamilyBool)
		if err != nil {
			return nil, err
		}
		return &calc.BoolNot{A: ids[0]}, nil
	})
}

// target resolves either a calc reference or a family and name pair.
func (s *session) target(args []zygo.Sexp) (calc.NodeID, error) {
	switch len(args) {
	case 1:
		if ref, ok := args[0].(*sexpCalcRef); ok {
			return ref.id, nil
		}
		return 0, fmt.Errorf("expected calc reference, got %T (%s)", args[0], args[0].SexpString(nil))
	case 2:
		fam, err := toFamily(args[0])
		if err != nil {
			return 0, err
		}
		return s.operand(args[1], fam)
	}
	return 0, fmt.Errorf("expected a calc reference or a family and name, got %d arguments", len(args))
}

func (s *session) registerQueries(env *zygo.Zlisp) {
	// (calc :handle "h1") returns a reference to a named calc.
	env.AddFunction("calc", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("calc requires a family and a name")
		}
		fam, err := toFamily(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc: %w", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc: name: %w", err)
		}
		id, ok := s.g.Lookup(fam, name)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("calc: %s %q: %w", fam, name, calc.ErrNotFound)
		}
		n, _ := s.g.Get(id)
		return &sexpCalcRef{id: id, family: fam, name: n.Name}, nil
	})

	// (calc-remove :vecAng "p1")
	env.AddFunction("calc_remove", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("calc-remove requires a family and a name")
		}
		fam, err := toFamily(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-remove: %w", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-remove: name: %w", err)
		}
		if err := s.g.Remove(fam, name); err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-remove: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// (calc-test :vecAng "p1") or (calc-test ref) prints and returns the result line.
	env.AddFunction("calc_test", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		id, err := s.target(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-test: %w", err)
		}
		v, ok := s.g.EvaluateID(id)
		line := calc.Result(v, ok)
		s.print(line)
		return &zygo.SexpStr{S: line}, nil
	})

	// (calc-describe :handle) prints one line per named calc of the family.
	env.AddFunction("calc_describe", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("calc-describe requires a family")
		}
		fam, err := toFamily(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-describe: %w", err)
		}
		lines := s.g.DescribeAll(fam)
		for _, l := range lines {
			s.print(l)
		}
		return &zygo.SexpStr{S: strings.Join(lines, "\n")}, nil
	})

	// (calc-edit :handle "h1" "index" 2)
	env.AddFunction("calc_edit", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("calc-edit requires a family, a name, an option and a value")
		}
		fam, err := toFamily(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: %w", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: name: %w", err)
		}
		option, err := toKeywordString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: option: %w", err)
		}
		value, err := toOptionValue(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: %w", err)
		}
		edit, err := calc.ParseEdit(option, value)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: %w", err)
		}
		if err := s.g.Reconfigure(fam, name, edit); err != nil {
			return zygo.SexpNull, fmt.Errorf("calc-edit: %w", err)
		}
		return zygo.SexpNull, nil
	})
}
