// Package xmltree turns Push Port XML into a generic attributed tree and
// offers the lookups the mappers need.
//
// Element names keep their namespace prefix as written in the document
// ("ns5:Location"). Attributes are stored under "@name" and text content
// under "#text". An element with no attributes and no children but with
// text is stored as a plain string. Repeated sibling elements are stored as
// a []any in document order, so callers use Nodes to get a uniform slice.
package xmltree

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

const (
	AttrPrefix = "@"
	TextKey    = "#text"
)

// ErrShape is returned when an element is present but does not have the
// shape the caller asked for.
var ErrShape = errors.New("unexpected element shape")

// Tree is one element: attribute keys, child element keys and text.
// Values are string, Tree or []any.
type Tree map[string]any

// Lookup finds a child element by name. The exact key wins; otherwise a
// child with the same local name (ignoring any namespace prefix) is used.
func (t Tree) Lookup(name string) (any, bool) {
	if v, ok := t[name]; ok {
		return v, true
	}

	local := LocalName(name)
	var matches []string
	for key := range t {
		if strings.HasPrefix(key, AttrPrefix) || key == TextKey {
			continue
		}
		if LocalName(key) == local {
			matches = append(matches, key)
		}
	}

	if len(matches) == 0 {
		return nil, false
	}

	slices.Sort(matches)
	return t[matches[0]], true
}

// Has reports whether a child element is present.
func (t Tree) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Attr returns an attribute value.
func (t Tree) Attr(name string) (string, bool) {
	v, ok := t[AttrPrefix+name]
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	return s, ok
}

// AttrOr returns an attribute value or def when the attribute is absent.
func (t Tree) AttrOr(name, def string) string {
	if v, ok := t.Attr(name); ok {
		return v
	}

	return def
}

// Text returns the element's own text content.
func (t Tree) Text() string {
	s, _ := t[TextKey].(string)
	return s
}

// String returns the text of a child element, whether it was stored as a
// plain string or as a tree carrying attributes.
func (t Tree) String(name string) (string, bool) {
	v, ok := t.Lookup(name)
	if !ok {
		return "", false
	}

	return textOf(v)
}

func textOf(v any) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case Tree:
		return value.Text(), true
	case []any:
		if len(value) > 0 {
			return textOf(value[0])
		}
	}

	return "", false
}

// Node returns a child element that is expected to appear exactly once.
// The bool is false when the child is absent. A child that is text-only or
// repeated yields ErrShape.
func (t Tree) Node(name string) (Tree, bool, error) {
	v, ok := t.Lookup(name)
	if !ok {
		return nil, false, nil
	}

	switch value := v.(type) {
	case Tree:
		return value, true, nil
	case []any:
		return nil, true, fmt.Errorf("%s repeated %d times: %w", name, len(value), ErrShape)
	default:
		return nil, true, fmt.Errorf("%s is %T, not an element: %w", name, v, ErrShape)
	}
}

// Nodes returns every child element with the given name. A single element
// becomes a slice of one and an absent element an empty slice. A child that
// is text-only yields ErrShape.
func (t Tree) Nodes(name string) ([]Tree, error) {
	v, ok := t.Lookup(name)
	if !ok {
		return nil, nil
	}

	switch value := v.(type) {
	case Tree:
		return []Tree{value}, nil
	case []any:
		nodes := make([]Tree, 0, len(value))
		for i, item := range value {
			node, ok := item.(Tree)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is %T, not an element: %w", name, i, item, ErrShape)
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	default:
		return nil, fmt.Errorf("%s is %T, not an element: %w", name, v, ErrShape)
	}
}

// Elements returns the names of the child elements, sorted.
func (t Tree) Elements() []string {
	names := make([]string, 0, len(t))
	for key := range t {
		if strings.HasPrefix(key, AttrPrefix) || key == TextKey {
			continue
		}
		names = append(names, key)
	}

	slices.Sort(names)
	return names
}

// LocalName strips a namespace prefix.
func LocalName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}

	return name
}
