// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLevelOutOfRange is returned when a level index is not displayed.
	ErrLevelOutOfRange = errors.New("cascade level out of range")
	// ErrNotAnOption is returned when a choice is not among the level's options.
	ErrNotAnOption = errors.New("category is not an option at this level")
	// ErrDisabled is returned when the excluded category is chosen.
	ErrDisabled = errors.New("category cannot be its own parent")
)

// Option is one entry of a cascade level.
type Option struct {
	ID       int64
	Name     string
	Disabled bool
	Selected bool
}

// Level is one dropdown of the cascade.
type Level struct {
	Index    int
	Chosen   int64
	HasValue bool
	Options  []Option
}

type level struct {
	chosen   int64
	hasValue bool
	options  []int64
}

// Cascade selects one category by descending the forest one level at a
// time. Level k+1 always lists the children of the node chosen at level k.
type Cascade struct {
	forest   *Forest
	exclude  int64
	excluded bool
	levels   []level
}

// NewCascade starts a cascade with the forest roots as the only level.
func NewCascade(forest *Forest) *Cascade {
	if forest == nil {
		forest = FromTree(nil)
	}
	c := &Cascade{forest: forest}
	c.levels = []level{{options: ids(forest.Roots())}}
	return c
}

// Exclude marks id as not selectable at any level. Used when editing a
// category so it cannot become its own parent.
func (c *Cascade) Exclude(id int64) {
	c.exclude = id
	c.excluded = true
}

// Depth returns the number of displayed levels.
func (c *Cascade) Depth() int { return len(c.levels) }

// Choose selects id at level k. Every deeper level is dropped and, if id has
// children, a new level listing them is appended.
func (c *Cascade) Choose(k int, id int64) error {
	if k < 0 || k >= len(c.levels) {
		return fmt.Errorf("choose level %d: %w", k, ErrLevelOutOfRange)
	}
	if !slices.Contains(c.levels[k].options, id) {
		return fmt.Errorf("choose %d at level %d: %w", id, k, ErrNotAnOption)
	}
	if c.isDisabled(id) {
		return fmt.Errorf("choose %d at level %d: %w", id, k, ErrDisabled)
	}

	c.levels = c.levels[:k+1]
	c.levels[k].chosen = id
	c.levels[k].hasValue = true
	if children := c.forest.Children(id); len(children) > 0 {
		c.levels = append(c.levels, level{options: ids(children)})
	}
	return nil
}

// Clear resets level k to the placeholder and drops every deeper level.
func (c *Cascade) Clear(k int) error {
	if k < 0 || k >= len(c.levels) {
		return fmt.Errorf("clear level %d: %w", k, ErrLevelOutOfRange)
	}
	c.levels = c.levels[:k+1]
	c.levels[k].chosen = 0
	c.levels[k].hasValue = false
	return nil
}

// Value returns the deepest chosen category.
func (c *Cascade) Value() (int64, bool) {
	for i := len(c.levels) - 1; i >= 0; i-- {
		if c.levels[i].hasValue {
			return c.levels[i].chosen, true
		}
	}
	return 0, false
}

// Path returns the chosen ids from the top level down.
func (c *Cascade) Path() []int64 {
	var path []int64
	for _, l := range c.levels {
		if !l.hasValue {
			break
		}
		path = append(path, l.chosen)
	}
	return path
}

// Replay rebuilds the cascade from a submitted path, stopping at the first
// entry that is not a valid choice. It returns the number of entries applied.
func (c *Cascade) Replay(path []int64) int {
	c.levels = []level{{options: ids(c.forest.Roots())}}
	for i, id := range path {
		if err := c.Choose(i, id); err != nil {
			return i
		}
	}
	return len(path)
}

// SelectPath pre-selects the path from the root to id. It reports whether
// the full path could be applied.
func (c *Cascade) SelectPath(id int64) bool {
	path := c.forest.Path(id)
	if path == nil {
		return false
	}
	return c.Replay(path) == len(path)
}

// Levels returns the displayed levels for rendering.
func (c *Cascade) Levels() []Level {
	out := make([]Level, 0, len(c.levels))
	for i, l := range c.levels {
		lv := Level{Index: i, Chosen: l.chosen, HasValue: l.hasValue}
		lv.Options = make([]Option, 0, len(l.options))
		for _, id := range l.options {
			n, _ := c.forest.Node(id)
			lv.Options = append(lv.Options, Option{
				ID:       id,
				Name:     n.Name,
				Disabled: c.isDisabled(id),
				Selected: l.hasValue && l.chosen == id,
			})
		}
		out = append(out, lv)
	}
	return out
}

// Options returns the option ids of level k, or nil if k is not displayed.
func (c *Cascade) Options(k int) []int64 {
	if k < 0 || k >= len(c.levels) {
		return nil
	}
	return append([]int64(nil), c.levels[k].options...)
}

func (c *Cascade) isDisabled(id int64) bool {
	return c.excluded && id == c.exclude
}

func ids(nodes []*Node) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
