package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/calcgraph/pkg/calc"
	"github.com/chazu/calcgraph/pkg/config"
)

func newTestApp(t *testing.T, worldPath string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp(config.Default(), nil, worldPath, &out)
	require.NoError(t, err)
	return app, &out
}

// TestE2EDemoExample runs the bundled script against the bundled world:
// script → engine → graph → per-frame queries.
func TestE2EDemoExample(t *testing.T) {
	app, out := newTestApp(t, "examples/world.hcl")

	res, err := app.RunScript("examples/demo.zy")
	require.NoError(t, err)
	for _, e := range res.Errors {
		t.Errorf("eval error (line %d): %s", e.Line, e.Message)
	}
	if t.Failed() {
		t.FailNow()
	}

	assert.Equal(t, []string{
		"me", "target", "targetEye", "chase", "overview", "view",
		"smoothView", "spectating", "path", "pathView", "pathFov",
	}, res.Created)

	// The spectated player exists, so the chase view wins over the overview.
	require.Len(t, res.Output, 1)
	assert.True(t, strings.HasPrefix(res.Output[0], "Result: true, vec=("), res.Output[0])
	assert.NotContains(t, res.Output[0], "1000.000000")
	assert.Equal(t, res.Output[0]+"\n", out.String())

	v, ok, err := app.Graph().Evaluate(calc.FamilyHandle, "target")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "handle=4098", v.String())

	out.Reset()
	require.NoError(t, app.Frames(3, []Query{
		{calc.FamilyCam, "path"},
		{calc.FamilyBool, "spectating"},
	}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "frame=1 time=10.015625 cam:path Result: true, vec=("), lines[0])
	assert.Equal(t, "frame=1 time=10.015625 bool:spectating Result: true, value=true", lines[1])
	assert.True(t, strings.HasPrefix(lines[4], "frame=3 time=10.046875 cam:path"), lines[4])
}

func TestOverviewFallback(t *testing.T) {
	app, out := newTestApp(t, "examples/world.hcl")
	_, err := app.RunScript("examples/demo.zy")
	require.NoError(t, err)

	// Once the spectator leaves there is no target, so the view falls back.
	app.world.Remove(3)
	out.Reset()
	require.NoError(t, app.Frames(1, []Query{{calc.FamilyVecAng, "view"}, {calc.FamilyBool, "spectating"}}))
	assert.Equal(t,
		"frame=1 time=10.015625 vecAng:view Result: true, vec=(0.000000, 0.000000, 1000.000000), ang=(0.000000, 90.000000, 0.000000)\n"+
			"frame=1 time=10.015625 bool:spectating Result: true, value=false\n",
		out.String())
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery("vecAng:view")
	require.NoError(t, err)
	assert.Equal(t, Query{calc.FamilyVecAng, "view"}, q)
	assert.Equal(t, "vecAng:view", q.String())

	for _, bad := range []string{"view", "vecAng:", "nope:view"} {
		_, err := ParseQuery(bad)
		assert.Error(t, err, bad)
	}
}

func TestMetricsSummary(t *testing.T) {
	app, out := newTestApp(t, "")
	require.NoError(t, app.Exec("fov add value wide 100"))
	require.NoError(t, app.Exec("fov test wide"))
	require.NoError(t, app.Exec("handle add index h1 1"))
	require.NoError(t, app.Exec("handle test h1"))

	out.Reset()
	require.NoError(t, app.MetricsSummary())
	s := out.String()
	assert.Contains(t, s, `calcgraph_evaluations_total{family="fov",result="hit"} 1`)
	assert.Contains(t, s, `calcgraph_evaluations_total{family="handle",result="miss"} 1`)
	assert.Contains(t, s, `calcgraph_nodes{family="handle"} 1`)
}

func TestDescribe(t *testing.T) {
	app, out := newTestApp(t, "")
	require.NoError(t, app.Exec("handle add index h1 1"))
	require.NoError(t, app.Exec("bool add handle alive h1"))

	out.Reset()
	app.Describe()
	assert.Equal(t,
		"handle name=\"h1\" type=index index=1\n"+
			"bool name=\"alive\" type=handle handle=\"h1\"\n",
		out.String())
}

func TestViewportOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Viewport = config.Viewport{Width: 800, Height: 600}
	app, err := NewApp(cfg, nil, "examples/world.hcl", &bytes.Buffer{})
	require.NoError(t, err)
	w, h := app.world.Viewport()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestNewAppBadWorld(t *testing.T) {
	_, err := NewApp(config.Default(), nil, "examples/missing.hcl", &bytes.Buffer{})
	assert.Error(t, err)
}
