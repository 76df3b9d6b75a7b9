package tags

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// LabelKey is the front matter field holding a document's tags.
const LabelKey = "tags"

var utf8BOM = []byte("\ufeff")

// FieldKind describes the shape a label field was declared with.
type FieldKind uint8

const (
	// FieldAbsent means the header has no label field, or there is no header.
	FieldAbsent FieldKind = iota
	// FieldScalar is a single string value, optionally comma separated.
	FieldScalar
	// FieldList is an inline or block sequence.
	FieldList
	// FieldUnsupported covers numbers, booleans, nulls and mappings.
	FieldUnsupported
)

// Field is the label field of a header, classified by shape.
type Field struct {
	Kind   FieldKind
	Scalar string
	Items  []string
}

// Labels normalizes the field into the canonical ordered label list.
func (f Field) Labels() []string {
	var raw []string
	switch f.Kind {
	case FieldScalar:
		raw = strings.Split(f.Scalar, ",")
	case FieldList:
		raw = f.Items
	default:
		return []string{}
	}

	labels := make([]string, 0, len(raw))
	for _, value := range raw {
		if label := NormalizeLabel(value); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// NormalizeLabel lower-cases and trims a label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Extract returns the normalized labels declared in the document's front
// matter. Documents without a header, with a malformed or unterminated header,
// or without a label field yield an empty list.
func Extract(content []byte) []string {
	return ParseField(content).Labels()
}

// ParseField locates the label field in the document header and classifies
// it. Any parse failure degrades to FieldAbsent.
func ParseField(content []byte) (field Field) {
	defer func() {
		if recover() != nil {
			field = Field{Kind: FieldAbsent}
		}
	}()

	header, ok := splitHeader(content)
	if !ok {
		return Field{Kind: FieldAbsent}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(header, &doc); err != nil {
		return Field{Kind: FieldAbsent}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Field{Kind: FieldAbsent}
	}

	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return Field{Kind: FieldAbsent}
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if strings.EqualFold(strings.TrimSpace(mapping.Content[i].Value), LabelKey) {
			return classify(mapping.Content[i+1])
		}
	}
	return Field{Kind: FieldAbsent}
}

func classify(node *yaml.Node) Field {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if !isString(node) {
			return Field{Kind: FieldUnsupported}
		}
		return Field{Kind: FieldScalar, Scalar: node.Value}
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind == yaml.AliasNode && child.Alias != nil {
				child = child.Alias
			}
			if child.Kind != yaml.ScalarNode || !isString(child) {
				continue
			}
			items = append(items, child.Value)
		}
		return Field{Kind: FieldList, Items: items}
	default:
		return Field{Kind: FieldUnsupported}
	}
}

func isString(node *yaml.Node) bool {
	return node.ShortTag() == "!!str"
}

// splitHeader returns the bytes between the opening and closing delimiter
// lines. The opening delimiter must be the first line of the document.
func splitHeader(content []byte) ([]byte, bool) {
	data := bytes.TrimPrefix(content, utf8BOM)

	first, rest, found := cutLine(data)
	if !found || !isDelimiter(first, false) {
		return nil, false
	}

	start := len(data) - len(rest)
	offset := start
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if isDelimiter(line, true) {
			return data[start:offset], true
		}
		offset += len(rest) - len(next)
		rest = next
	}
	return nil, false
}

// cutLine splits off the first line without its line terminator. found is
// false when data holds no newline, so a lone "---" without a trailing
// newline never opens a header.
func cutLine(data []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(data, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

func isDelimiter(line []byte, closing bool) bool {
	trimmed := bytes.TrimRight(line, " \t")
	if string(trimmed) == "---" {
		return true
	}
	return closing && string(trimmed) == "..."
}
