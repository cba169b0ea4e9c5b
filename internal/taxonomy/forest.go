// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package taxonomy holds the dataset category hierarchy and the two views
// built on it: the collapsible tree browser and the cascading selector.
//
// The hierarchy is stored as an arena: every node lives in a flat lookup
// table and refers to its parent and children by ID. The server guarantees
// acyclicity; the forest does not check for cycles.
package taxonomy

import "spectranet/internal/models"

// Node is a category in the forest.
type Node struct {
	ID          int64
	Name        string
	Description string
	ParentID    int64 // 0 for roots
	HasParent   bool
	Children    []int64 // ordered as received from the server
}

// Forest is an immutable category hierarchy addressed by ID.
type Forest struct {
	nodes map[int64]*Node
	roots []int64
}

// FromTree builds a forest from the nested structure returned by the tree
// endpoint. Parent links follow the nesting, not the parent_id fields.
// A repeated ID keeps its first occurrence and the repeat's subtree is dropped.
func FromTree(tree []models.Category) *Forest {
	f := &Forest{nodes: make(map[int64]*Node)}
	for i := range tree {
		if f.add(&tree[i], nil) {
			f.roots = append(f.roots, tree[i].ID)
		}
	}
	return f
}

// add inserts c and its subtree under parent. Reports whether c was new.
func (f *Forest) add(c *models.Category, parent *Node) bool {
	if _, dup := f.nodes[c.ID]; dup {
		return false
	}
	n := &Node{ID: c.ID, Name: c.Name, Description: c.Description}
	if parent != nil {
		n.ParentID = parent.ID
		n.HasParent = true
	}
	f.nodes[c.ID] = n

	for i := range c.Children {
		if f.add(&c.Children[i], n) {
			n.Children = append(n.Children, c.Children[i].ID)
		}
	}
	return true
}

// FromList builds a forest from a flat category list using parent_id.
// Categories whose parent is missing from the list become roots. Order
// among siblings follows the input order.
func FromList(flat []models.Category) *Forest {
	f := &Forest{nodes: make(map[int64]*Node, len(flat))}
	var order []int64
	for _, c := range flat {
		if _, dup := f.nodes[c.ID]; dup {
			continue
		}
		f.nodes[c.ID] = &Node{ID: c.ID, Name: c.Name, Description: c.Description}
		order = append(order, c.ID)
	}

	parents := make(map[int64]int64, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			if _, seen := parents[c.ID]; !seen {
				parents[c.ID] = *c.ParentID
			}
		}
	}

	for _, id := range order {
		n := f.nodes[id]
		pid, ok := parents[id]
		parent, exists := f.nodes[pid]
		if !ok || !exists || pid == id {
			f.roots = append(f.roots, id)
			continue
		}
		n.ParentID = pid
		n.HasParent = true
		parent.Children = append(parent.Children, id)
	}
	return f
}

// Len returns the number of nodes.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.nodes)
}

// Node returns the node with the given ID.
func (f *Forest) Node(id int64) (*Node, bool) {
	if f == nil {
		return nil, false
	}
	n, ok := f.nodes[id]
	return n, ok
}

// Roots returns the root nodes in order.
func (f *Forest) Roots() []*Node {
	if f == nil {
		return nil
	}
	return f.resolve(f.roots)
}

// Children returns the children of id in order, or nil if id is unknown or
// a leaf.
func (f *Forest) Children(id int64) []*Node {
	n, ok := f.Node(id)
	if !ok {
		return nil
	}
	return f.resolve(n.Children)
}

// HasChildren reports whether id has at least one child.
func (f *Forest) HasChildren(id int64) bool {
	n, ok := f.Node(id)
	return ok && len(n.Children) > 0
}

// Depth returns the number of ancestors of id (0 for roots, -1 if unknown).
func (f *Forest) Depth(id int64) int {
	n, ok := f.Node(id)
	if !ok {
		return -1
	}
	depth := 0
	for n.HasParent {
		n = f.nodes[n.ParentID]
		depth++
	}
	return depth
}

// Path returns the IDs from the root down to and including id, or nil if
// id is unknown.
func (f *Forest) Path(id int64) []int64 {
	n, ok := f.Node(id)
	if !ok {
		return nil
	}
	path := []int64{n.ID}
	for n.HasParent {
		n = f.nodes[n.ParentID]
		path = append(path, n.ID)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// IsDescendant reports whether id lies strictly below ancestor.
func (f *Forest) IsDescendant(id, ancestor int64) bool {
	n, ok := f.Node(id)
	if !ok {
		return false
	}
	for n.HasParent {
		if n.ParentID == ancestor {
			return true
		}
		n = f.nodes[n.ParentID]
	}
	return false
}

// Descendants returns every ID below id, depth-first.
func (f *Forest) Descendants(id int64) []int64 {
	var out []int64
	var walk func(int64)
	walk = func(cur int64) {
		for _, c := range f.Children(cur) {
			out = append(out, c.ID)
			walk(c.ID)
		}
	}
	walk(id)
	return out
}

// Row is a node with its depth, as produced by Flatten.
type Row struct {
	*Node
	Depth       int
	HasChildren bool
}

// Flatten lists every node depth-first with its depth, for indented
// <select> lists and plain-text dumps.
func (f *Forest) Flatten() []Row {
	if f == nil {
		return nil
	}
	rows := make([]Row, 0, len(f.nodes))
	var walk func(ids []int64, depth int)
	walk = func(ids []int64, depth int) {
		for _, id := range ids {
			n := f.nodes[id]
			rows = append(rows, Row{Node: n, Depth: depth, HasChildren: len(n.Children) > 0})
			walk(n.Children, depth+1)
		}
	}
	walk(f.roots, 0)
	return rows
}

func (f *Forest) resolve(ids []int64) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.nodes[id])
	}
	return out
}
