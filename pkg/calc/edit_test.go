package calc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

func TestParseEdit(t *testing.T) {
	tests := []struct {
		option, value string
		want          Edit
	}{
		{"handle", "12", SetHandle{Handle: 12}},
		{"handle", "-1", SetHandle{Handle: world.InvalidHandle}},
		{"INDEX", "3", SetIndex{Index: 3}},
		{"key", "0", SetKey{Key: 0}},
		{"getWorld", "1", SetWorld{World: true}},
		{"x", "1.5", SetComponent{Component: CompX, Value: 1.5}},
		{"rz", "-90", SetComponent{Component: CompRZ, Value: -90}},
		{"legacyMethod", "0", SetLegacy{Legacy: false}},
		{"eyeVec", "true", SetEyeVec{EyeVec: true}},
		{"eyeAng", "1", SetEyeAng{EyeAng: true}},
		{"attachmentName", "muzzle", SetAttachment{Name: "muzzle"}},
		{"filePath", "a b.cam", SetFilePath{Path: "a b.cam"}},
		{"startTime", "current", SetStartTime{Current: true}},
		{"startTime", "12.5", SetStartTime{Start: 12.5}},
		{"fov", "90", SetFov{Fov: 90}},
		{"value", "0", SetBool{Value: false}},
	}
	for _, tt := range tests {
		got, err := ParseEdit(tt.option, tt.value)
		if err != nil {
			t.Errorf("ParseEdit(%q, %q): %v", tt.option, tt.value, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseEdit(%q, %q) mismatch (-want +got):\n%s", tt.option, tt.value, diff)
		}
	}

	_, err := ParseEdit("bogus", "1")
	assert.ErrorIs(t, err, ErrUnsupportedEdit)
	_, err = ParseEdit("index", "abc")
	assert.Error(t, err)
	_, err = ParseEdit("eyeVec", "maybe")
	assert.Error(t, err)
}

func TestReconfigureUnsupportedMakesNoChange(t *testing.T) {
	g, _, _ := newTestGraph(t)
	mustAdd(t, g, "h1", &HandleIndex{Index: 1})

	err := g.Reconfigure(FamilyHandle, "h1", SetKey{Key: 3})
	require.ErrorIs(t, err, ErrUnsupportedEdit)

	opts, err := g.Options(FamilyHandle, "h1")
	require.NoError(t, err)
	assert.Equal(t, []OptionValue{{"index", "1"}}, opts)

	require.NoError(t, g.Reconfigure(FamilyHandle, "H1", SetIndex{Index: 2}))
	v, ok, err := g.Evaluate(FamilyHandle, "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, world.Handle(1002), v.Handle)

	assert.ErrorIs(t, g.Reconfigure(FamilyHandle, "nope", SetIndex{}), ErrNotFound)
	assert.ErrorIs(t, g.Reconfigure(FamilyHandle, "h1", nil), ErrUnsupportedEdit)
}

func TestReconfigureVecAngValue(t *testing.T) {
	g, _, _ := newTestGraph(t)
	mustAdd(t, g, "v", &VecAngValue{})

	edits := []Edit{
		SetComponent{CompX, 1}, SetComponent{CompY, 2}, SetComponent{CompZ, 3},
		SetComponent{CompRX, 4}, SetComponent{CompRY, 5}, SetComponent{CompRZ, 6},
	}
	for _, e := range edits {
		require.NoError(t, g.Reconfigure(FamilyVecAng, "v", e))
	}
	v, ok, err := g.Evaluate(FamilyVecAng, "v")
	require.NoError(t, err)
	require.True(t, ok)
	want := geom.Pose{Pos: geom.Vec{X: 1, Y: 2, Z: 3}, Ang: geom.Angles{Roll: 4, Pitch: 5, Yaw: 6}}
	assert.Equal(t, want, v.Pose)

	opts, err := g.Options(FamilyVecAng, "v")
	require.NoError(t, err)
	require.Len(t, opts, 6)
	assert.Equal(t, OptionValue{"rX", "4.000000"}, opts[3])
}

func TestOptionsPerKind(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h := mustAdd(t, g, "h", &HandleIndex{Index: 1})
	mustAdd(t, g, "w", &HandleActiveWeapon{Parent: h, World: true})
	mustAdd(t, g, "p", &VecAngHandle{Handle: h, EyeAng: true})
	mustAdd(t, g, "lp", &HandleLocalPlayer{})

	opts, err := g.Options(FamilyHandle, "w")
	require.NoError(t, err)
	assert.Equal(t, []OptionValue{{"getWorld", "1"}}, opts)

	opts, err = g.Options(FamilyVecAng, "p")
	require.NoError(t, err)
	assert.Equal(t, []OptionValue{{"eyeVec", "0"}, {"eyeAng", "1"}}, opts)

	opts, err = g.Options(FamilyHandle, "lp")
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestDescribe(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h1 := mustAdd(t, g, "h1", &HandleIndex{Index: 1})
	mustAdd(t, g, "p1", &VecAngHandle{Handle: h1})
	anon := mustAdd(t, g, "", &HandleValue{Handle: 7})
	mustAdd(t, g, "w", &HandleActiveWeapon{Parent: anon})
	require.NoError(t, g.Release(anon))

	assert.Equal(t, []string{
		`name="h1" type=index index=1`,
		`name="w" type=activeWeapon parent="(no name)" getWorld=0`,
	}, g.DescribeAll(FamilyHandle))
	assert.Equal(t, []string{
		`name="p1" type=handleEx handle="h1" eyeVec=0 eyeAng=0`,
	}, g.DescribeAll(FamilyVecAng))

	d, err := g.Describe(anon)
	require.NoError(t, err)
	assert.Equal(t, `name="(no name)" type=value handle=7`, d)

	_, err = g.Describe(12345)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, g.DescribeAll(FamilyBool))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g, _, _ := newTestGraph(t, WithMetrics(NewMetrics(reg)))
	m := g.metrics

	mustAdd(t, g, "h1", &HandleIndex{Index: 1})
	mustAdd(t, g, "h9", &HandleIndex{Index: 9})
	mustAdd(t, g, "f", &FovValue{Fov: 1})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.nodes.WithLabelValues("handle")))

	_, _, _ = g.Evaluate(FamilyHandle, "h1")
	_, _, _ = g.Evaluate(FamilyHandle, "h9")
	_, _, _ = g.Evaluate(FamilyHandle, "h9")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("handle", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("handle", "miss")))

	require.NoError(t, g.Remove(FamilyHandle, "h9"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodes.WithLabelValues("handle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodes.WithLabelValues("fov")))
}
