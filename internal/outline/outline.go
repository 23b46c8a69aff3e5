// Package outline parses indented plain-text outlines into nested block
// trees.
//
// An outline is a line-oriented document where nesting is expressed by
// leading whitespace: one tab per level, or two spaces per level. The
// parser produces the exact batch-block shape the Logseq editor API
// accepts for insertBatchBlock: an ordered list of {content, children}
// objects nesting arbitrarily deep.
//
// The parser is total. Malformed indentation never produces an error;
// inconsistent lines are recovered per the rules documented on Parse.
// This is deliberate: outlines arrive from hand-edited templates and
// the sync must not fall over on a stray tab.
package outline

import "strings"

// Node is a single outline block. Children is nil for leaf nodes so the
// serialized form omits the field entirely, which is what the Logseq
// batch-insert call expects (an empty array changes editor behavior).
type Node struct {
	Content  string  `json:"content"`
	Children []*Node `json:"children,omitempty"`
}

// frame is transient parse state: an open node and the indentation level
// it was seen at. Frames live on a stack for the duration of one Parse.
type frame struct {
	level int
	node  *Node
}

// Parse converts an indented outline into a forest of nodes.
//
// Indentation rules:
//   - If a line's leading whitespace contains any tab, the level is the
//     tab count and spaces in the run are ignored.
//   - Otherwise the level is the space count divided by two, so a single
//     stray space does not register as a level.
//
// A leading "- " bullet is stripped once from each line's content. Lines
// that are blank after trimming are skipped and do not touch the stack.
//
// Attachment keeps a single open chain: a level-0 line becomes a new
// root and resets the stack, closing all previously open nesting. A
// deeper line attaches to the nearest open ancestor with a strictly
// smaller level. A line indented deeper than any open ancestor (for
// example, the first line of the input carrying two tabs) becomes a new
// root rather than an error.
func Parse(text string) []*Node {
	lines := strings.Split(text, "\n")

	var roots []*Node
	var stack []frame

	for _, line := range lines {
		level := indentLevel(line)

		content := strings.TrimLeft(line, " \t")
		content = strings.TrimPrefix(content, "- ")
		if strings.TrimSpace(content) == "" {
			continue
		}

		node := &Node{Content: content}

		if level == 0 {
			roots = append(roots, node)
			stack = []frame{{0, node}}
			continue
		}

		// Walk back to the nearest ancestor shallower than this line.
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
			stack = append(stack, frame{level, node})
		} else {
			// Indented deeper than any open root: recover by
			// promoting the node to a root of its own.
			roots = append(roots, node)
			stack = []frame{{level, node}}
		}
	}

	return roots
}

// indentLevel measures a line's indentation. Any tab in the leading
// whitespace run routes the line to tab counting regardless of where the
// tab sits relative to spaces; otherwise two spaces make one level.
func indentLevel(line string) int {
	leading := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if strings.Contains(leading, "\t") {
		return strings.Count(leading, "\t")
	}
	return len(leading) / 2
}

// Depth returns the maximum nesting depth of the forest: 0 for an empty
// forest, 1 for roots with no children, and so on.
func Depth(nodes []*Node) int {
	max := 0
	for _, n := range nodes {
		if d := 1 + Depth(n.Children); d > max {
			max = d
		}
	}
	return max
}
