package calc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"abc123", true},
		{"A", true},
		{"h1", true},
		{"", false},
		{"1abc", false},
		{"ab c", false},
		{"ab_c", false},
		{"ab-c", false},
		{"héllo", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAddRejectsBadNames(t *testing.T) {
	g, _, _ := newTestGraph(t)
	for _, name := range []string{"1abc", "ab c"} {
		_, err := g.Add(name, &HandleIndex{Index: 1})
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Add(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
	if g.Len() != 0 {
		t.Errorf("rejected adds left %d nodes", g.Len())
	}
}

func TestNamesUniquePerFamily(t *testing.T) {
	g, _, _ := newTestGraph(t)
	mustAdd(t, g, "foo", &HandleIndex{Index: 1})

	_, err := g.Add("FOO", &HandleIndex{Index: 2})
	require.ErrorIs(t, err, ErrNameInUse)

	// Same name in another family is fine.
	mustAdd(t, g, "foo", &FovValue{Fov: 90})

	id, ok := g.Lookup(FamilyHandle, "Foo")
	require.True(t, ok)
	n, _ := g.Get(id)
	assert.Equal(t, "foo", n.Name)
	assert.Equal(t, "index", n.Kind)
	assert.Equal(t, []string{"foo"}, g.Names(FamilyHandle))
}

func TestAddOperandChecks(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h := mustAdd(t, g, "h", &HandleIndex{Index: 1})
	fov := mustAdd(t, g, "f", &FovValue{Fov: 90})

	_, err := g.Add("w", &HandleActiveWeapon{Parent: 999})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.Add("w", &HandleActiveWeapon{Parent: fov})
	assert.ErrorIs(t, err, ErrWrongFamily)

	_, err = g.Add("w", &HandleActiveWeapon{Parent: h})
	assert.NoError(t, err)

	_, err = g.Add("x", nil)
	assert.Error(t, err)
}

func TestRefCounting(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h := mustAdd(t, g, "h1", &HandleIndex{Index: 1})

	refs, _ := g.RefCount(h)
	require.Equal(t, 1, refs)

	require.NoError(t, g.AddRef(h))
	require.NoError(t, g.Release(h))
	refs, _ = g.RefCount(h)
	assert.Equal(t, 1, refs, "AddRef then Release leaves count unchanged")

	// The registry reference cannot be dropped by Release.
	assert.ErrorIs(t, g.Release(h), ErrInUse)
	_, ok := g.Get(h)
	assert.True(t, ok)
}

func TestReleaseCannotTakeCompositeReference(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h := mustAdd(t, g, "h1", &HandleIndex{Index: 1})
	mustAdd(t, g, "p1", &VecAngHandle{Handle: h})

	// The second reference on h1 belongs to p1, not to the caller.
	assert.ErrorIs(t, g.Release(h), ErrInUse)
	refs, _ := g.RefCount(h)
	assert.Equal(t, 2, refs)

	require.NoError(t, g.Remove(FamilyVecAng, "p1"))
	assert.Equal(t, []string{"h1"}, g.Names(FamilyHandle))
	assert.Equal(t, []string{`name="h1" type=index index=1`}, g.DescribeAll(FamilyHandle))
	require.NoError(t, g.Remove(FamilyHandle, "h1"))
}

func TestRemoveInUse(t *testing.T) {
	g, _, _ := newTestGraph(t)
	h := mustAdd(t, g, "h1", &HandleIndex{Index: 1})
	p := mustAdd(t, g, "p1", &VecAngHandle{Handle: h})

	refs, _ := g.RefCount(h)
	require.Equal(t, 2, refs)

	err := g.Remove(FamilyHandle, "h1")
	require.ErrorIs(t, err, ErrInUse)
	_, ok := g.Lookup(FamilyHandle, "h1")
	assert.True(t, ok, "failed removal leaves the node registered")

	require.NoError(t, g.Remove(FamilyVecAng, "P1"))
	_, ok = g.Get(p)
	assert.False(t, ok)

	refs, _ = g.RefCount(h)
	assert.Equal(t, 1, refs)
	require.NoError(t, g.Remove(FamilyHandle, "h1"))
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Names(FamilyHandle))

	assert.ErrorIs(t, g.Remove(FamilyHandle, "h1"), ErrNotFound)
}

func TestAnonymousOperandsAreReleasedWithOwner(t *testing.T) {
	g, _, _ := newTestGraph(t)

	h, err := g.Add("", &HandleIndex{Index: 1})
	require.NoError(t, err)
	v, err := g.Add("", &VecAngHandle{Handle: h})
	require.NoError(t, err)
	mustAdd(t, g, "pick", &VecAngOr{A: v, B: v})

	// Drop the caller-owned references; the composite keeps them alive.
	require.NoError(t, g.Release(v))
	require.NoError(t, g.Release(h))
	assert.Equal(t, 3, g.Len())

	refs, _ := g.RefCount(v)
	assert.Equal(t, 2, refs)

	require.NoError(t, g.Remove(FamilyVecAng, "pick"))
	assert.Equal(t, 0, g.Len())
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families {
		got, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFamily("VECANG")
	require.NoError(t, err)
	assert.Equal(t, FamilyVecAng, got)

	_, err = ParseFamily("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphID(t *testing.T) {
	a, _, _ := newTestGraph(t)
	b, _, _ := newTestGraph(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
