package calc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/camio"
	"github.com/chazu/calcgraph/pkg/smooth"
	"github.com/chazu/calcgraph/pkg/world"
)

// DefaultMaxDepth bounds how deep a single evaluation may recurse.
const DefaultMaxDepth = 64

// NodeID identifies a node within one Graph. Zero is never assigned.
type NodeID uint64

type node struct {
	id   NodeID
	name string
	data NodeData
	refs int
	// held counts the references owned by callers: the creator's reference
	// on an anonymous node plus every AddRef.
	held int
}

func (n *node) displayName() string {
	if n.name == "" {
		return "(no name)"
	}
	return n.name
}

// registry owns the named nodes of one family.
type registry struct {
	byName map[string]NodeID // lower-cased name
	order  []NodeID
}

// Graph owns every node and the five per-family registries.
//
// A Graph is not safe for concurrent use. Mutation and evaluation must not
// overlap.
type Graph struct {
	id         string
	log        *zap.Logger
	entities   world.Entities
	host       world.Host
	openTrack  world.TrackOpener
	position   smooth.Limits
	rotation   smooth.Limits
	maxDepth   int
	metrics    *Metrics
	nodes      map[NodeID]*node
	next       NodeID
	registries [familyCount]registry
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) { g.log = l }
}

// WithTrackOpener sets how camera files are loaded. The default reads
// the advancedfx text format from disk.
func WithTrackOpener(o world.TrackOpener) Option {
	return func(g *Graph) { g.openTrack = o }
}

// WithSmoothLimits sets the limits used by smooth nodes created afterwards.
func WithSmoothLimits(position, rotation smooth.Limits) Option {
	return func(g *Graph) {
		g.position = position
		g.rotation = rotation
	}
}

// WithMaxDepth sets the evaluation depth limit.
func WithMaxDepth(n int) Option {
	return func(g *Graph) { g.maxDepth = n }
}

// WithMetrics records evaluation and node counts on m.
func WithMetrics(m *Metrics) Option {
	return func(g *Graph) { g.metrics = m }
}

// New returns an empty graph reading live state from entities and host.
func New(entities world.Entities, host world.Host, opts ...Option) *Graph {
	g := &Graph{
		id:        uuid.NewString(),
		log:       zap.NewNop(),
		entities:  entities,
		host:      host,
		openTrack: camio.Open,
		position:  smooth.DefaultPosition,
		rotation:  smooth.DefaultRotation,
		maxDepth:  DefaultMaxDepth,
		nodes:     make(map[NodeID]*node),
	}
	for i := range g.registries {
		g.registries[i].byName = make(map[string]NodeID)
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(zap.String("graph", g.id))
	return g
}

// ID returns the session id attached to the graph's log lines.
func (g *Graph) ID() string { return g.id }

// ValidName reports whether s is a legal node name: an ASCII letter
// followed by ASCII letters and digits.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if i == 0 && !letter {
			return false
		}
		if !letter && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Add creates a node from data. The graph takes ownership of data.
//
// A named node is owned by its family's registry and released through
// Remove. An anonymous node (name "") starts with one reference owned by the
// caller, who must Release it once any composites that need it exist.
func (g *Graph) Add(name string, data NodeData) (NodeID, error) {
	if data == nil {
		return 0, fmt.Errorf("add %q: nil node data", name)
	}
	fam := data.Family()
	reg := &g.registries[fam]

	if name != "" {
		if !ValidName(name) {
			g.log.Warn("rejected node name", zap.String("name", name), zap.Stringer("family", fam))
			return 0, fmt.Errorf("add %s %q: %w", fam, name, ErrInvalidName)
		}
		if _, ok := reg.byName[strings.ToLower(name)]; ok {
			g.log.Warn("node name in use", zap.String("name", name), zap.Stringer("family", fam))
			return 0, fmt.Errorf("add %s %q: %w", fam, name, ErrNameInUse)
		}
	}

	ops := data.operands()
	for _, op := range ops {
		n, ok := g.nodes[op.id]
		if !ok {
			return 0, fmt.Errorf("add %s %q: %s operand %d: %w", fam, name, op.label, op.id, ErrNotFound)
		}
		if got := n.data.Family(); got != op.family {
			return 0, fmt.Errorf("add %s %q: %s operand %s is %s, want %s: %w",
				fam, name, op.label, n.displayName(), got, op.family, ErrWrongFamily)
		}
	}

	g.prepare(name, data)

	g.next++
	n := &node{id: g.next, name: name, data: data, refs: 1}
	if name == "" {
		n.held = 1
	}
	g.nodes[n.id] = n
	for _, op := range ops {
		g.nodes[op.id].refs++
	}
	if name != "" {
		reg.byName[strings.ToLower(name)] = n.id
		reg.order = append(reg.order, n.id)
	}
	g.metrics.nodeAdded(fam)

	g.log.Debug("node added",
		zap.String("name", n.displayName()),
		zap.Stringer("family", fam),
		zap.String("kind", data.Kind()),
		zap.Uint64("id", uint64(n.id)))
	return n.id, nil
}

// prepare initializes the runtime state some kinds carry.
func (g *Graph) prepare(name string, data NodeData) {
	switch d := data.(type) {
	case *CamFile:
		if d.StartCurrent {
			d.Start = g.host.CurTime()
			d.StartCurrent = false
		}
		g.loadTrack(name, d)
	case *VecAngSmooth:
		d.state = smooth.NewPose(g.position, g.rotation)
		d.lastHandle = world.InvalidHandle
	}
}

func (g *Graph) loadTrack(name string, d *CamFile) {
	d.track, d.loadErr = nil, nil
	if g.openTrack == nil {
		d.loadErr = fmt.Errorf("no track opener configured")
	} else {
		d.track, d.loadErr = g.openTrack(d.Path)
	}
	if d.loadErr != nil {
		g.log.Warn("camera file failed to load",
			zap.String("name", name),
			zap.String("path", d.Path),
			zap.Error(d.loadErr))
	}
}

// AddRef adds a reference to id.
func (g *Graph) AddRef(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("addref %d: %w", id, ErrNotFound)
	}
	n.refs++
	n.held++
	return nil
}

// Release drops a caller-owned reference to id, destroying the node and
// releasing its operands when none remain. Only references taken by Add on
// an anonymous node or by AddRef can be released; the registry's reference
// goes through Remove and a composite's references go with the composite.
func (g *Graph) Release(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("release %d: %w", id, ErrNotFound)
	}
	if n.held == 0 {
		return fmt.Errorf("release %s %s: no caller reference: %w", n.data.Family(), n.displayName(), ErrInUse)
	}
	n.held--
	g.release(n)
	return nil
}

func (g *Graph) release(n *node) {
	stack := []*node{n}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.refs--
		if n.refs > 0 {
			continue
		}
		delete(g.nodes, n.id)
		g.metrics.nodeRemoved(n.data.Family())
		g.log.Debug("node destroyed",
			zap.String("name", n.displayName()),
			zap.Stringer("family", n.data.Family()),
			zap.Uint64("id", uint64(n.id)))
		for _, op := range n.data.operands() {
			if child, ok := g.nodes[op.id]; ok {
				stack = append(stack, child)
			}
		}
	}
}

// RefCount returns the number of references held on id.
func (g *Graph) RefCount(id NodeID) (int, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return 0, false
	}
	return n.refs, true
}

// Remove deletes a named node. It fails with ErrInUse while anything other
// than the registry still references the node.
func (g *Graph) Remove(fam Family, name string) error {
	if fam < 0 || fam >= familyCount {
		return fmt.Errorf("remove %q: %w", name, ErrNotFound)
	}
	reg := &g.registries[fam]
	key := strings.ToLower(name)
	id, ok := reg.byName[key]
	if !ok {
		return fmt.Errorf("remove %s %q: %w", fam, name, ErrNotFound)
	}
	n := g.nodes[id]
	if n.refs != 1 {
		g.log.Warn("cannot remove node still in use",
			zap.String("name", n.name),
			zap.Stringer("family", fam),
			zap.Int("refs", n.refs))
		return fmt.Errorf("remove %s %q: %w", fam, n.name, ErrInUse)
	}

	delete(reg.byName, key)
	for i, oid := range reg.order {
		if oid == id {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			break
		}
	}
	n.name = ""
	g.release(n)
	return nil
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

// Lookup finds a named node, ignoring case.
func (g *Graph) Lookup(fam Family, name string) (NodeID, bool) {
	if fam < 0 || fam >= familyCount {
		return 0, false
	}
	id, ok := g.registries[fam].byName[strings.ToLower(name)]
	return id, ok
}

// Node is a snapshot of a node's bookkeeping. Data is shared with the
// graph and must not be modified; use Reconfigure.
type Node struct {
	ID     NodeID
	Name   string
	Family Family
	Kind   string
	Refs   int
	Data   NodeData
}

// Get returns a snapshot of id.
func (g *Graph) Get(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{
		ID:     n.id,
		Name:   n.name,
		Family: n.data.Family(),
		Kind:   n.data.Kind(),
		Refs:   n.refs,
		Data:   n.data,
	}, true
}

// Names returns the named nodes of a family in creation order.
func (g *Graph) Names(fam Family) []string {
	if fam < 0 || fam >= familyCount {
		return nil
	}
	order := g.registries[fam].order
	out := make([]string, 0, len(order))
	for _, id := range order {
		out = append(out, g.nodes[id].name)
	}
	return out
}

// Len returns the number of live nodes, named and anonymous.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) resolve(fam Family, name string) (*node, error) {
	id, ok := g.Lookup(fam, name)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", fam, name, ErrNotFound)
	}
	return g.nodes[id], nil
}
