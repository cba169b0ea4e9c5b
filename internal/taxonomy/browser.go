// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import "strconv"

// AllCategoriesLabel is the display name reported when the synthetic
// "all categories" entry is selected.
const AllCategoriesLabel = "全部分类"

// SelectFunc receives the user's selection. A nil id means "all categories".
type SelectFunc func(id *int64, name string)

// LinkFunc returns the URL that selects id.
type LinkFunc func(id int64) string

// Browser is the collapsible category navigation list. Expansion is local
// view state; the highlighted entry always follows the selection set by the
// owner through SetSelected.
type Browser struct {
	forest   *Forest
	selected *int64
	expanded map[int64]bool
	onSelect SelectFunc
	link     LinkFunc
}

// NewBrowser creates a browser over forest. A nil forest is treated as
// empty. onSelect may be nil.
func NewBrowser(forest *Forest, selected *int64, onSelect SelectFunc) *Browser {
	if forest == nil {
		forest = FromTree(nil)
	}
	b := &Browser{
		forest:   forest,
		expanded: make(map[int64]bool),
		onSelect: onSelect,
	}
	b.SetSelected(selected)
	return b
}

// SetSelected replaces the controlled selection.
func (b *Browser) SetSelected(id *int64) {
	if id == nil {
		b.selected = nil
		return
	}
	v := *id
	b.selected = &v
}

// SetLink sets the URL builder used for item links. Without one, items
// link to "?category=<id>".
func (b *Browser) SetLink(link LinkFunc) { b.link = link }

func (b *Browser) href(id int64) string {
	if b.link != nil {
		return b.link(id)
	}
	return "?category=" + strconv.FormatInt(id, 10)
}

// Selected returns the controlled selection, nil for "all categories".
func (b *Browser) Selected() *int64 { return b.selected }

// IsSelected reports whether id is the highlighted node.
func (b *Browser) IsSelected(id int64) bool {
	return b.selected != nil && *b.selected == id
}

// AllSelected reports whether the "all categories" entry is highlighted.
func (b *Browser) AllSelected() bool { return b.selected == nil }

// Expanded reports whether id's children are visible.
func (b *Browser) Expanded(id int64) bool { return b.expanded[id] }

// Toggle flips the expansion of id. Leaves and unknown ids are ignored.
// The selection callback is never invoked.
func (b *Browser) Toggle(id int64) {
	if !b.forest.HasChildren(id) {
		return
	}
	if b.expanded[id] {
		delete(b.expanded, id)
		return
	}
	b.expanded[id] = true
}

// ExpandTo expands every ancestor of id so that id is visible.
func (b *Browser) ExpandTo(id int64) {
	path := b.forest.Path(id)
	for i := 0; i+1 < len(path); i++ {
		b.expanded[path[i]] = true
	}
}

// Click reports a selection of id to the owner. Unknown ids are ignored.
func (b *Browser) Click(id int64) {
	n, ok := b.forest.Node(id)
	if !ok || b.onSelect == nil {
		return
	}
	v := n.ID
	b.onSelect(&v, n.Name)
}

// ClickAll reports the "all categories" selection to the owner.
func (b *Browser) ClickAll() {
	if b.onSelect != nil {
		b.onSelect(nil, AllCategoriesLabel)
	}
}

// Item is one node of the rendered tree.
type Item struct {
	ID          int64
	Name        string
	Description string
	Href        string
	Depth       int
	Indent      int // left padding in pixels
	HasChildren bool
	Expanded    bool
	Selected    bool
	Children    []Item
}

// Indent returns the left padding in pixels for a node at depth.
func Indent(depth int) int { return depth*20 + 8 }

// Items returns the whole tree as nested view items. Children are always
// included; Expanded tells the template whether to show them open.
func (b *Browser) Items() []Item {
	return b.items(b.forest.Roots(), 0)
}

func (b *Browser) items(nodes []*Node, depth int) []Item {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Item{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Href:        b.href(n.ID),
			Depth:       depth,
			Indent:      Indent(depth),
			HasChildren: len(n.Children) > 0,
			Expanded:    b.expanded[n.ID],
			Selected:    b.IsSelected(n.ID),
			Children:    b.items(b.forest.Children(n.ID), depth+1),
		})
	}
	return out
}

// Rows returns the currently visible nodes in display order. Children of
// collapsed nodes are omitted.
func (b *Browser) Rows() []Item {
	var rows []Item
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, it := range items {
			children := it.Children
			it.Children = nil
			rows = append(rows, it)
			if it.Expanded {
				walk(children)
			}
		}
	}
	walk(b.Items())
	return rows
}
