package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/calc"
	"github.com/chazu/calcgraph/pkg/config"
	"github.com/chazu/calcgraph/pkg/console"
	"github.com/chazu/calcgraph/pkg/engine"
	"github.com/chazu/calcgraph/pkg/world/fixture"
)

// App wires a world, a graph and both front ends together.
type App struct {
	cfg      config.Config
	log      *zap.Logger
	out      io.Writer
	world    *fixture.World
	registry *prometheus.Registry
	graph    *calc.Graph
	engine   *engine.Engine
	console  *console.Console
}

// NewApp builds an App over the fixture at worldPath, or an empty default
// world when worldPath is empty. Script and console output goes to out.
func NewApp(cfg config.Config, log *zap.Logger, worldPath string, out io.Writer) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := fixture.New()
	if worldPath != "" {
		var err error
		if w, err = fixture.Load(worldPath); err != nil {
			return nil, err
		}
	}
	if cfg.Viewport.IsSet() {
		w.SetViewport(cfg.Viewport.Width, cfg.Viewport.Height)
	}

	reg := prometheus.NewRegistry()
	g := calc.New(w, w,
		calc.WithLogger(log),
		calc.WithMaxDepth(cfg.Eval.MaxDepth),
		calc.WithSmoothLimits(cfg.Smooth.Position, cfg.Smooth.Rotation),
		calc.WithMetrics(calc.NewMetrics(reg)),
	)
	log.Debug("app ready", zap.String("graph", g.ID()), zap.String("world", worldPath))

	return &App{
		cfg:      cfg,
		log:      log,
		out:      out,
		world:    w,
		registry: reg,
		graph:    g,
		engine:   engine.NewEngine(g, log),
		console:  console.New(g, out, log),
	}, nil
}

// Graph returns the app's calc graph.
func (a *App) Graph() *calc.Graph { return a.graph }

// Evaluate runs script source and prints what it printed.
func (a *App) Evaluate(source string) (engine.EvalResult, error) {
	res, err := a.engine.Evaluate(source)
	if err != nil {
		return res, err
	}
	for _, line := range res.Output {
		fmt.Fprintln(a.out, line)
	}
	return res, nil
}

// RunScript reads and evaluates the script at path.
func (a *App) RunScript(path string) (engine.EvalResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return engine.EvalResult{}, fmt.Errorf("read script: %w", err)
	}
	return a.Evaluate(string(src))
}

// Exec runs one console command line.
func (a *App) Exec(line string) error { return a.console.Exec(line) }

// Tick advances the world clock by dt seconds, or by the last frame time
// when dt is not positive.
func (a *App) Tick(dt float64) {
	if dt <= 0 {
		dt = a.world.FrameTime()
	}
	a.world.Advance(dt)
}

// Query names one calc as family:name.
type Query struct {
	Family calc.Family
	Name   string
}

func (q Query) String() string { return q.Family.String() + ":" + q.Name }

// ParseQuery parses "family:name".
func ParseQuery(s string) (Query, error) {
	fam, name, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Query{}, fmt.Errorf("query %q: want family:name", s)
	}
	f, err := calc.ParseFamily(fam)
	if err != nil {
		return Query{}, fmt.Errorf("query %q: %w", s, err)
	}
	return Query{Family: f, Name: name}, nil
}

// Frames evaluates every query once per frame for n frames, advancing the
// world by the frame time before each.
func (a *App) Frames(n int, queries []Query) error {
	for i := 1; i <= n; i++ {
		a.Tick(0)
		for _, q := range queries {
			v, ok, err := a.graph.Evaluate(q.Family, q.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "frame=%d time=%f %s %s\n", i, a.world.CurTime(), q, calc.Result(v, ok))
		}
	}
	return nil
}

// Describe prints every named calc, family by family.
func (a *App) Describe() {
	for _, fam := range calc.Families {
		for _, line := range a.graph.DescribeAll(fam) {
			fmt.Fprintf(a.out, "%s %s\n", fam, line)
		}
	}
}

// MetricsSummary prints the graph's counters and gauges, one sample per line.
func (a *App) MetricsSummary() error {
	mfs, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
	return nil
}
