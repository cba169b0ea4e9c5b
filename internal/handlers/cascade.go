// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"spectranet/internal/taxonomy"
)

// cascadeLevelField is the name of every level <select> of the cascade.
const cascadeLevelField = "category_level"

// cascadeView is the template data of the "cascade" partial.
type cascadeView struct {
	Endpoint    string
	Field       string
	Placeholder string
	Exclude     int64
	Levels      []taxonomy.Level
	HasValue    bool
	Value       int64
}

func newCascadeView(c *taxonomy.Cascade, endpoint, field, placeholder string, exclude int64) cascadeView {
	value, ok := c.Value()
	return cascadeView{
		Endpoint:    endpoint,
		Field:       field,
		Placeholder: placeholder,
		Exclude:     exclude,
		Levels:      c.Levels(),
		HasValue:    ok,
		Value:       value,
	}
}

// submittedPath reads the level values of a cascade submission up to the
// first empty or malformed one. Deeper values left over from an earlier
// choice are dropped later by Replay, as they no longer match the options.
func submittedPath(r *http.Request) []int64 {
	var path []int64
	for _, v := range r.Form[cascadeLevelField] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			break
		}
		path = append(path, id)
	}
	return path
}

// renderCascade rebuilds the cascade from the submitted levels and renders
// the partial.
func (b *base) renderCascade(w http.ResponseWriter, r *http.Request, endpoint, field, placeholder string, exclude int64) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	c := taxonomy.NewCascade(b.forest(r.Context()))
	if exclude > 0 {
		c.Exclude(exclude)
	}
	c.Replay(submittedPath(r))

	b.Renderer.Partial(w, r, "cascade", newCascadeView(c, endpoint, field, placeholder, exclude))
}
