// Package console implements the calc command tree:
//
//	<family> add <kind> <name> <args...>
//	<family> remove <name>
//	<family> print
//	<family> test <name>
//	<family> edit <name> [<option> [<value>]]
//
// Keywords are case-insensitive. Malformed commands return a *UsageError
// carrying the usage text for the deepest level that was recognised.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/calc"
)

// ErrBadQuoting is returned for a line with an unterminated quote or a
// trailing escape.
var ErrBadQuoting = errors.New("bad quoting")

// UsageError reports a malformed command.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string { return e.Usage }

// Console executes command lines against a graph and writes their output.
type Console struct {
	g    *calc.Graph
	out  io.Writer
	log  *zap.Logger
	root string
}

// New creates a Console writing to out. A nil logger disables logging.
func New(g *calc.Graph, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{g: g, out: out, log: log.Named("console"), root: "calcs"}
}

// Exec runs one command line. Blank lines and lines starting with # or //
// do nothing.
func (c *Console) Exec(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
		return nil
	}
	args, err := shlex.Split(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadQuoting, err)
	}
	err = c.exec(args)
	if err != nil {
		var ue *UsageError
		if !errors.As(err, &ue) {
			c.log.Debug("command failed", zap.String("line", trimmed), zap.Error(err))
		}
	}
	return err
}

func (c *Console) exec(args []string) error {
	if len(args) >= 1 {
		if fam, err := calc.ParseFamily(args[0]); err == nil {
			return c.family(fam, args[1:])
		}
	}
	var b strings.Builder
	for _, f := range calc.Families {
		fmt.Fprintf(&b, "%s %s [...] - %s\n", c.root, f, familyHelp[f])
	}
	return &UsageError{Usage: b.String()}
}

var familyHelp = map[calc.Family]string{
	calc.FamilyHandle: "Calcs that return an entity handle.",
	calc.FamilyVecAng: "Calcs that return VecAng (location and rotation).",
	calc.FamilyCam:    "Calcs that return a view (location, rotation and FOV).",
	calc.FamilyFov:    "Calcs that return FOV (field of view).",
	calc.FamilyBool:   "Calcs that return a boolean.",
}

func (c *Console) family(fam calc.Family, args []string) error {
	prefix := c.root + " " + fam.String()
	if len(args) >= 1 {
		switch strings.ToLower(args[0]) {
		case "add":
			return c.add(fam, prefix+" add", args[1:])
		case "remove":
			if len(args) >= 2 {
				return c.g.Remove(fam, args[1])
			}
		case "print":
			for _, line := range c.g.DescribeAll(fam) {
				fmt.Fprintf(c.out, "%s;\n", line)
			}
			return nil
		case "test":
			if len(args) >= 2 {
				return c.test(fam, args[1])
			}
		case "edit":
			if len(args) >= 2 {
				return c.edit(fam, prefix+" edit "+args[1], args[1], args[2:])
			}
		}
	}
	return &UsageError{Usage: fmt.Sprintf(
		"%[1]s add [...] - Add a new %[2]s calc.\n"+
			"%[1]s remove <sCalcName> - Remove calc with name <sCalcName>.\n"+
			"%[1]s print - Print calcs.\n"+
			"%[1]s test <sCalcName> - Test a calc.\n"+
			"%[1]s edit <sCalcName> [...] - Edit a calc.\n",
		prefix, fam)}
}

func (c *Console) add(fam calc.Family, prefix string, args []string) error {
	if len(args) >= 1 {
		for _, k := range kinds[fam] {
			if !strings.EqualFold(k.name, args[0]) || len(args) < 2+len(k.params) {
				continue
			}
			data, err := k.build(c.g, args[2:])
			if err != nil {
				return fmt.Errorf("%s %s: %w", prefix, k.name, err)
			}
			_, err = c.g.Add(args[1], data)
			return err
		}
	}
	var b strings.Builder
	for _, k := range kinds[fam] {
		fmt.Fprintf(&b, "%s %s <sName>", prefix, k.name)
		for _, p := range k.params {
			fmt.Fprintf(&b, " <%s>", p)
		}
		fmt.Fprintf(&b, " - %s\n", k.help)
	}
	return &UsageError{Usage: b.String()}
}

func (c *Console) test(fam calc.Family, name string) error {
	id, ok := c.g.Lookup(fam, name)
	if !ok {
		return fmt.Errorf("no %s calc with name %q: %w", fam, name, calc.ErrNotFound)
	}
	desc, err := c.g.Describe(id)
	if err != nil {
		return err
	}
	v, ok := c.g.EvaluateID(id)
	fmt.Fprintf(c.out, "Calc: %s\n%s\n", desc, calc.Result(v, ok))
	return nil
}

func (c *Console) edit(fam calc.Family, prefix, name string, args []string) error {
	opts, err := c.g.Options(fam, name)
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		fmt.Fprintln(c.out, "No editable options.")
		return nil
	}
	if len(args) >= 1 {
		for _, o := range opts {
			if !strings.EqualFold(o.Name, args[0]) {
				continue
			}
			if len(args) < 2 {
				fmt.Fprintf(c.out, "%s %s <value> - Set new value.\nCurrent value: %s\n", prefix, o.Name, o.Value)
				return nil
			}
			e, err := calc.ParseEdit(o.Name, args[1])
			if err != nil {
				return err
			}
			return c.g.Reconfigure(fam, name, e)
		}
	}
	var b strings.Builder
	for _, o := range opts {
		fmt.Fprintf(&b, "%s %s [...]\n", prefix, o.Name)
	}
	return &UsageError{Usage: b.String()}
}
