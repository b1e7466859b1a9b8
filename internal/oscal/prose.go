package oscal

import (
	"strings"

	"github.com/beevik/etree"
)

// renderParagraph rebuilds a paragraph's plain text in pre-order document
// walk, substituting each insert reference with its resolved parameter label
// wrapped in angle brackets. A node's trailing text is appended at visit time
// and only when it contains no newline; that drops the structural whitespace
// of pretty-printed markup while keeping inline punctuation.
func renderParagraph(p *etree.Element, labels map[string]string) string {
	var b strings.Builder
	var visit func(node *etree.Element)
	visit = func(node *etree.Element) {
		switch node.Tag {
		case "p":
			b.WriteString(node.Text())
		case "insert":
			ref := node.SelectAttrValue("id-ref", "")
			label, ok := labels[ref]
			if !ok {
				label = "<" + ref + ">"
			}
			b.WriteString("<" + label + ">")
		}
		if tail := tailText(node); !strings.Contains(tail, "\n") {
			b.WriteString(tail)
		}
		for _, child := range node.ChildElements() {
			visit(child)
		}
	}
	visit(p)
	return strings.TrimSpace(b.String())
}

// fragment is one narrative unit emitted by the part-tree flattening: the
// ancestor part-id path, the part's own identity, its label property, the
// rebuilt paragraph text, and the nesting depth.
type fragment struct {
	path  []string
	id    string
	name  string
	label string
	text  string
	depth int
}

// flattenPart walks a part subtree and emits fragments in document order:
// the current part's paragraphs first, then each child part's subtree. The
// emission order decides the final statement's line order.
func flattenPart(part *etree.Element, labels map[string]string, path []string, depth int) []fragment {
	label := partLabel(part)
	partID := part.SelectAttrValue("id", "")
	partName := part.SelectAttrValue("name", "")

	current := path
	if partID != "" {
		current = make([]string, 0, len(path)+1)
		current = append(current, path...)
		current = append(current, partID)
	}

	var fields []fragment
	for _, p := range part.SelectElements("p") {
		fields = append(fields, fragment{
			path:  current,
			id:    partID,
			name:  partName,
			label: label,
			text:  renderParagraph(p, labels),
			depth: depth,
		})
	}
	for _, child := range part.SelectElements("part") {
		fields = append(fields, flattenPart(child, labels, current, depth+1)...)
	}
	return fields
}

// partLabel returns the part's own "label" property value, looking only at
// direct prop children. This is not the parameter label lookup.
func partLabel(part *etree.Element) string {
	for _, child := range part.ChildElements() {
		if child.Tag == "prop" && child.SelectAttrValue("name", "") == "label" {
			return child.SelectAttrValue("value", "")
		}
	}
	return ""
}
