// Package promptgraph parses the JSON node-graph metadata convention and
// resolves generation parameters by walking the graph from its sampler.
//
// Graphs are modeled as an arena of nodes indexed by id. Values form a
// DAG in well-formed graphs but are treated as potentially cyclic: every
// traversal carries an explicit visited set.
package promptgraph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ohler55/ojg/oj"
)

// Node is one step in the generation graph.
type Node struct {
	ClassType string
	Inputs    map[string]Value
}

// Graph is an arena of nodes indexed by node id.
type Graph map[string]Node

// Value is one input slot on a node.
type Value interface {
	isValue()
}

// Literal is a scalar input (string, number, bool, or null).
type Literal struct {
	Val any
}

// NodeRef points at another node's output. On the wire it is a
// two-element array: ["<node id>", <output index>].
type NodeRef struct {
	Target string
	Output int
}

// List is an input holding multiple values.
type List []Value

// Object is a nested mapping input.
type Object map[string]Value

func (Literal) isValue() {}
func (NodeRef) isValue() {}
func (List) isValue()    {}
func (Object) isValue()  {}

// ParseGraph decodes the "prompt" keyword payload into a Graph. Entries
// that are not node-shaped objects are dropped rather than failing the
// parse.
func ParseGraph(raw []byte) (Graph, error) {
	parsed, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse prompt graph: %w", err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("prompt graph is not an object")
	}

	g := make(Graph, len(obj))
	for id, nv := range obj {
		nm, ok := nv.(map[string]any)
		if !ok {
			continue
		}
		node := Node{Inputs: make(map[string]Value)}
		if ct, ok := nm["class_type"].(string); ok {
			node.ClassType = ct
		} else if ct, ok := nm["type"].(string); ok {
			node.ClassType = ct
		}
		if inputs, ok := nm["inputs"].(map[string]any); ok {
			for k, iv := range inputs {
				node.Inputs[k] = toValue(iv)
			}
		}
		g[id] = node
	}
	return g, nil
}

func toValue(v any) Value {
	switch t := v.(type) {
	case []any:
		if ref, ok := asNodeRef(t); ok {
			return ref
		}
		list := make(List, len(t))
		for i, e := range t {
			list[i] = toValue(e)
		}
		return list
	case map[string]any:
		obj := make(Object, len(t))
		for k, e := range t {
			obj[k] = toValue(e)
		}
		return obj
	default:
		return Literal{Val: t}
	}
}

func asNodeRef(arr []any) (NodeRef, bool) {
	if len(arr) != 2 {
		return NodeRef{}, false
	}
	id, ok := arr[0].(string)
	if !ok {
		return NodeRef{}, false
	}
	switch idx := arr[1].(type) {
	case int64:
		return NodeRef{Target: id, Output: int(idx)}, true
	case float64:
		return NodeRef{Target: id, Output: int(idx)}, true
	}
	return NodeRef{}, false
}

// sortedIDs returns node ids in deterministic order: numeric ids sort
// numerically (the common case for these graphs), everything else
// lexically after them.
func sortedIDs(g Graph) []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
