// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("# 棉花\n\n| nm | I |\n|---|---|\n| 400 | 0.1 |\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<table>") {
		t.Errorf("expected heading and table, got %s", out)
	}
}

func TestRawHTMLDropped(t *testing.T) {
	out := string(Render("hi <script>alert(1)</script>"))
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML must not pass through: %s", out)
	}
}
