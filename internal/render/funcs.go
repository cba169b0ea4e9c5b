// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"spectranet/internal/markdown"
	"spectranet/internal/models"
	"spectranet/internal/taxonomy"
)

var printer = message.NewPrinter(language.SimplifiedChinese)

// Funcs returns the template function map shared by pages and partials.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"activeClass": func(current, target string) string {
			if current == target {
				return "active"
			}
			return ""
		},
		"num":      FormatNumber,
		"bytes":    FormatBytes,
		"date":     formatDate,
		"datetime": formatDateTime,
		"markdown": markdown.Render,
		"indent":   taxonomy.Indent,
		// catIndent prefixes a category name with non-breaking spaces for
		// hierarchical <select> options.
		"catIndent": func(depth int, name string) string {
			return strings.Repeat("    ", depth) + name
		},
		// idEq compares an optional id with a value.
		"idEq": func(ptr *int64, val int64) bool {
			return ptr != nil && *ptr == val
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"typeLabel": func(v string) string {
			return choiceLabel(models.SpectralTypes, v)
		},
		"unitLabel": func(v string) string {
			return choiceLabel(models.WavelengthUnits, v)
		},
		"join": strings.Join,
		// dict builds a map from key/value pairs so a partial can receive
		// more than one value.
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}

// FormatNumber renders n with digit grouping. Nil pointers render as "-".
func FormatNumber(n any) string {
	switch v := n.(type) {
	case *int:
		if v == nil {
			return "-"
		}
		n = *v
	case *int64:
		if v == nil {
			return "-"
		}
		n = *v
	}
	return printer.Sprintf("%d", n)
}

// FormatBytes renders a byte count in binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func choiceLabel(choices []models.Choice, v string) string {
	for _, c := range choices {
		if c.Value == v {
			return c.Label
		}
	}
	return v
}
