// Package engine provides the Lisp script front end for calcgraph.
// It wraps zygomys in a sandboxed environment whose builtins create, look up,
// evaluate, edit and remove calcs on a calc.Graph.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/calc"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the output of one script run.
type EvalResult struct {
	// Created lists the named calcs the script added, in order.
	Created []string
	// Output holds the lines printed by calc-test and calc-describe.
	Output []string
	Errors []EvalError
}

// Engine runs scripts against a graph. Calcs a script creates persist in the
// graph after the run; anonymous calcs live only as long as something
// references them.
//
// An Engine shares the graph's threading rules: one run at a time, never
// concurrently with other graph use.
type Engine struct {
	g   *calc.Graph
	log *zap.Logger
}

// NewEngine creates an Engine bound to g. A nil logger disables logging.
func NewEngine(g *calc.Graph, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{g: g, log: log.Named("engine")}
}

// Graph returns the graph the engine writes to.
func (e *Engine) Graph() *calc.Graph { return e.g }

// Evaluate runs Lisp source in a fresh sandbox.
//
// Return semantics:
//   - On success: result with nil Errors + nil error
//   - On parse/eval failure: result with Errors set + nil error; calcs
//     created before the failing form stay in the graph
//   - On fatal failure (panic): zero result + error
func (e *Engine) Evaluate(source string) (res EvalResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic during evaluation", zap.Any("panic", r))
			res, err = EvalResult{}, fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	return e.evaluate(source), nil
}

func (e *Engine) evaluate(source string) EvalResult {
	// Empty source is a valid program that changes nothing.
	if strings.TrimSpace(source) == "" {
		return EvalResult{}
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	s := &session{g: e.g, log: e.log}
	defer s.releaseAnonymous()
	s.register(env)

	var res EvalResult
	if err := env.LoadString(preprocessSource(source)); err != nil {
		res.Errors = parseZygomysError(err)
	} else if _, err := env.Run(); err != nil {
		res.Errors = parseZygomysError(err)
	}
	res.Created = s.created
	res.Output = s.output

	if len(res.Errors) > 0 {
		e.log.Info("script failed",
			zap.Int("created", len(res.Created)),
			zap.String("error", res.Errors[0].Error()))
	} else {
		e.log.Debug("script finished",
			zap.Int("created", len(res.Created)),
			zap.Int("nodes", e.g.Len()))
	}
	return res
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
