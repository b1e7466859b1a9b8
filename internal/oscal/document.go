// Package oscal normalizes OSCAL control-catalog and profile documents into
// the relational tables in storage. Tag and attribute names follow the OSCAL
// XML schema; lookups ignore namespace prefixes since the documents use a
// single default namespace.
package oscal

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// LoadDocument parses a document from disk. A parse failure is fatal for the
// whole run and happens before any storage write.
func LoadDocument(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse %s: no root element", path)
	}
	return doc, nil
}

// descendants returns every element with the given tag anywhere under el, in
// document order. el itself is never included.
func descendants(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, descendants(child, tag)...)
	}
	return out
}

// collectElements is the single traversal helper for control satellites:
// direct children only, or the full subtree, chosen explicitly per call site.
func collectElements(el *etree.Element, tag string, recurse bool) []*etree.Element {
	if recurse {
		return descendants(el, tag)
	}
	return el.SelectElements(tag)
}

// fullText returns a node's own leading text plus, for every child, that
// child's full text followed by the child's trailing text.
func fullText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(el.Text())
	for _, child := range el.ChildElements() {
		b.WriteString(fullText(child))
		b.WriteString(tailText(child))
	}
	return b.String()
}

// tailText returns the character data between el's closing tag and the next
// sibling element, "" for a root element.
func tailText(el *etree.Element) string {
	parent := el.Parent()
	if parent == nil {
		return ""
	}
	var b strings.Builder
	seen := false
	for _, tok := range parent.Child {
		if child, ok := tok.(*etree.Element); ok {
			if child == el {
				seen = true
				continue
			}
			if seen {
				break
			}
			continue
		}
		if !seen {
			continue
		}
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

// attrPtr returns the attribute value, nil when the attribute is absent or
// empty.
func attrPtr(el *etree.Element, key string) *string {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return nil
	}
	return &v
}

// childText returns the text of the first direct child with the given tag,
// "" when there is none.
func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}

// childTextPtr is childText with absence reported as nil.
func childTextPtr(el *etree.Element, tag string) *string {
	child := el.SelectElement(tag)
	if child == nil {
		return nil
	}
	text := child.Text()
	if text == "" {
		return nil
	}
	return &text
}

// trimmedTextPtr returns the element's text trimmed, nil when the element is
// absent or its text empty.
func trimmedTextPtr(el *etree.Element) *string {
	if el == nil {
		return nil
	}
	text := el.Text()
	if text == "" {
		return nil
	}
	trimmed := strings.TrimSpace(text)
	return &trimmed
}
