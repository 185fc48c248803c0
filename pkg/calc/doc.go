// Package calc implements a typed, reference-counted expression graph of
// camera calculations.
//
// Every node produces a value of one Family: an entity Handle, a VecAng
// pose, a Cam, a Fov or a Bool. Nodes are pulled on demand; evaluating a
// node evaluates its operands recursively and reports ok=false whenever a
// value is unavailable for this query.
//
// Named nodes live in one registry per family, with case-insensitive
// unique names. Anonymous nodes exist only as operands and are destroyed
// with their last reference.
package calc
