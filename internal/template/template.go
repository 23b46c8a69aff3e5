// Package template renders book highlights through a minimal text
// template language into outline source text.
//
// The language has three directive kinds:
//
//   - variables:    {{ author }}, {{ title }}, {{ sync_date }},
//     and within the loop body {{ highlight.text }},
//     {{ highlight.page }}, {{ highlight.note }}
//   - conditionals: {% if highlight.page %} ... {% endif %}
//     {% if highlight.note %} ... {% endif %}
//   - one loop:     {% for highlight in highlights %} ... {% endfor %}
//
// Directives are located by first occurrence of their marker pair.
// Nested or repeated loops are not supported; only the first for/endfor
// pair is honored. Rendering is total: absent markers silently skip the
// corresponding directive, and a malformed template degrades to literal
// text rather than producing an error. Templates are hand-edited user
// files, so resilience beats strictness here.
package template

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default is the built-in page template used when no template file
// exists. Property lines sit above the expanded highlight list; a note
// nests one level under its highlight.
const Default = `- author:: [[{{ author }}]]
- full-title:: "{{ title }}"
- category:: #books
- tags:: #[[reading]]
- Highlights first synced by [[{{ sync_date }}]]
{% for highlight in highlights %}
- {{ highlight.text }}{% if highlight.page %} (Page {{ highlight.page }}){% endif %}
	{% if highlight.note %}- Note:: {{ highlight.note }}{% endif %}
{% endfor %}
`

// Highlight is one annotation record fed to the loop body. Page and
// CreatedAt are optional; a zero Page means the source had no page
// number.
type Highlight struct {
	Text      string `json:"text"`
	Note      string `json:"note,omitempty"`
	Page      int    `json:"page,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// span marks a directive pair within a template: the byte offsets of the
// opening and closing markers, located by first occurrence.
type span struct {
	bodyStart int // first byte after the opening marker
	bodyEnd   int // offset of the closing marker
	outerEnd  int // first byte after the closing marker
	start     int // offset of the opening marker
}

// findSpan locates the first open/close marker pair at or after from.
// The close marker is searched only after the open marker, and ok is
// false unless both are present.
func findSpan(s, open, close string, from int) (span, bool) {
	i := strings.Index(s[from:], open)
	if i < 0 {
		return span{}, false
	}
	i += from
	j := strings.Index(s[i+len(open):], close)
	if j < 0 {
		return span{}, false
	}
	j += i + len(open)
	return span{
		start:     i,
		bodyStart: i + len(open),
		bodyEnd:   j,
		outerEnd:  j + len(close),
	}, true
}

// Render substitutes the scalar variables, expands the highlight loop,
// and strips blank lines from the result.
//
// Empty title or author render as "Unknown". An empty syncDate renders
// as today in YYYY-MM-DD form. Scalar substitution is plain textual
// replacement and does not respect directive boundaries, so the three
// top-level names are reserved: a literal "{{ title }}" inside the loop
// body is replaced like any other occurrence.
//
// The final blank-line pass removes lines emptied by elided conditional
// segments. It also removes intentionally blank separator lines in a
// custom template; that trade-off is accepted.
func Render(tmpl, title, author string, highlights []Highlight, syncDate string) string {
	if syncDate == "" {
		syncDate = time.Now().Format("2006-01-02")
	}
	if author == "" {
		author = "Unknown"
	}
	if title == "" {
		title = "Unknown"
	}

	result := tmpl
	result = strings.ReplaceAll(result, "{{ author }}", author)
	result = strings.ReplaceAll(result, "{{ title }}", title)
	result = strings.ReplaceAll(result, "{{ sync_date }}", syncDate)

	if loop, ok := findSpan(result, "{% for highlight in highlights %}", "{% endfor %}", 0); ok {
		body := result[loop.bodyStart:loop.bodyEnd]

		items := make([]string, 0, len(highlights))
		for _, h := range highlights {
			items = append(items, renderHighlight(body, h))
		}

		result = result[:loop.start] + strings.Join(items, "\n") + result[loop.outerEnd:]
	}

	lines := strings.Split(result, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// renderHighlight expands one copy of the loop body for a single record.
// Each conditional keeps its inner text (with the variable substituted)
// when the field is set, and disappears entirely when it is not. Leading
// and trailing newlines are trimmed so joined records stay one per line.
func renderHighlight(body string, h Highlight) string {
	item := strings.ReplaceAll(body, "{{ highlight.text }}", h.Text)

	page := ""
	if h.Page != 0 {
		page = strconv.Itoa(h.Page)
	}
	item = applyConditional(item, "{% if highlight.page %}", "{{ highlight.page }}", page)
	item = applyConditional(item, "{% if highlight.note %}", "{{ highlight.note }}", h.Note)

	return strings.Trim(item, "\n")
}

// applyConditional resolves the first open ... {% endif %} segment in
// item. A non-empty value keeps the segment's inner text with the
// variable substituted; an empty value removes the whole segment. A
// missing or unterminated segment leaves item untouched.
func applyConditional(item, open, variable, value string) string {
	seg, ok := findSpan(item, open, "{% endif %}", 0)
	if !ok {
		return item
	}

	inner := ""
	if value != "" {
		inner = strings.ReplaceAll(item[seg.bodyStart:seg.bodyEnd], variable, value)
	}
	return item[:seg.start] + inner + item[seg.outerEnd:]
}

// Load reads the template at path, falling back to Default when the
// file does not exist or cannot be read.
func Load(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default
	}
	return string(data)
}

// WriteDefault persists the built-in template at path for user
// customization. Existing files are left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(Default), 0644)
}
