package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type element struct {
	name string
	node Tree
	text strings.Builder
}

// Parse reads one XML document and returns a tree holding the root element
// under its own name. UTF-8 and UTF-16 byte order marks are honoured and
// other declared encodings are transcoded.
func Parse(reader io.Reader) (Tree, error) {
	bomAware := transform.NewReader(reader, unicode.BOMOverride(encoding.Nop.NewDecoder()))

	d := xml.NewDecoder(bomAware)
	d.CharsetReader = charsetReader

	root := Tree{}
	var stack []*element

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			el := &element{name: qualifiedName(ty.Name), node: Tree{}}
			for _, attr := range ty.Attr {
				el.node[AttrPrefix+qualifiedName(attr.Name)] = attr.Value
			}
			stack = append(stack, el)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(ty)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element %s", qualifiedName(ty.Name))
			}

			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if name := qualifiedName(ty.Name); name != el.name {
				return nil, fmt.Errorf("element %s closed by %s", el.name, name)
			}

			if len(stack) == 0 {
				add(root, el.name, el.finish())
			} else {
				add(stack[len(stack)-1].node, el.name, el.finish())
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("element %s not closed: %w", stack[len(stack)-1].name, io.ErrUnexpectedEOF)
	}
	if len(root) == 0 {
		return nil, errors.New("document has no root element")
	}

	return root, nil
}

func (el *element) finish() any {
	text := strings.TrimSpace(el.text.String())

	if len(el.node) == 0 && text != "" {
		return text
	}
	if text != "" {
		el.node[TextKey] = text
	}

	return el.node
}

func add(parent Tree, name string, value any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = value
		return
	}

	if list, ok := existing.([]any); ok {
		parent[name] = append(list, value)
		return
	}

	parent[name] = []any{existing, value}
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}

	return name.Space + ":" + name.Local
}

// UTF-16 input has already been transcoded by the BOM reader, so a UTF-16
// declaration must not decode it a second time.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(strings.ReplaceAll(label, "_", "-")), "utf-16") {
		return input, nil
	}

	return charset.NewReaderLabel(label, input)
}
