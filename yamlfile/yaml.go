// Package yamlfile implements round-trip reading and writing of YAML
// translation files.
//
// Two layouts are supported, mirroring Transifex's Ruby and Generic
// YAML resource styles:
//
//	# wrapped: keys nested under a top-level locale key
//	en:
//	  greeting: Hello
//
//	# flat: keys at the top level
//	greeting: Hello
//
// Documents are kept as yaml.Node trees so that comments, key order,
// and scalar styles of untouched keys survive re-serialization.
package yamlfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dialect tags the layout of a document. It is detected once from the
// master file and threaded through explicitly.
type Dialect int

const (
	// DialectFlat has translation keys at the top level.
	DialectFlat Dialect = iota
	// DialectWrapped nests translation keys under a top-level locale key.
	DialectWrapped
)

func (d Dialect) String() string {
	if d == DialectWrapped {
		return "wrapped"
	}
	return "flat"
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is a parsed YAML translation file.
type Document struct {
	node *yaml.Node // document node, retained for round-trip writing
}

// ParseFile reads and parses a YAML file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses YAML data into a Document. The root must be a mapping
// (or the document empty).
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping")
	}
	return &Document{node: &node}, nil
}

// Marshal serialises the document back to YAML, reflecting any mapping
// mutations while preserving the structure of untouched keys.
func (d *Document) Marshal() ([]byte, error) {
	if d.root() == nil {
		return nil, nil
	}
	return yaml.Marshal(d.node)
}

func (d *Document) root() *yaml.Node {
	if d.node == nil || len(d.node.Content) == 0 {
		return nil
	}
	return d.node.Content[0]
}

// Detect reports the document's dialect: DialectWrapped when a top-level
// key equals lang and holds a nested mapping, DialectFlat otherwise.
func (d *Document) Detect(lang string) Dialect {
	if _, ok := d.Sub(lang); ok {
		return DialectWrapped
	}
	return DialectFlat
}

// Top returns the top-level mapping, for flat-dialect documents.
func (d *Document) Top() *Mapping {
	return &Mapping{node: d.root()}
}

// Sub returns the mapping nested under the top-level key lang, for
// wrapped-dialect documents. ok is false when the key is absent or its
// value is not a mapping.
func (d *Document) Sub(lang string) (*Mapping, bool) {
	root := d.root()
	if root == nil {
		return nil, false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == lang && root.Content[i+1].Kind == yaml.MappingNode {
			return &Mapping{node: root.Content[i+1]}, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

// Mapping is a view over one YAML mapping node. Mutations through Set
// are applied to the underlying document tree.
type Mapping struct {
	node *yaml.Node
}

// Keys returns the mapping's keys in document order.
func (m *Mapping) Keys() []string {
	if m == nil || m.node == nil {
		return nil
	}
	keys := make([]string, 0, len(m.node.Content)/2)
	for i := 0; i+1 < len(m.node.Content); i += 2 {
		keys = append(keys, m.node.Content[i].Value)
	}
	return keys
}

func (m *Mapping) value(key string) *yaml.Node {
	if m == nil || m.node == nil {
		return nil
	}
	for i := 0; i+1 < len(m.node.Content); i += 2 {
		if m.node.Content[i].Value == key {
			return m.node.Content[i+1]
		}
	}
	return nil
}

// Get returns the scalar value for key. ok is false when the key is
// absent or holds a non-scalar (nested mapping, sequence).
// A YAML null scalar reads as the empty string.
func (m *Mapping) Get(key string) (string, bool) {
	v := m.value(key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	if v.Tag == "!!null" {
		return "", true
	}
	return v.Value, true
}

// HasNested reports whether key is present with a non-scalar value.
func (m *Mapping) HasNested(key string) bool {
	v := m.value(key)
	return v != nil && v.Kind != yaml.ScalarNode
}

// Set writes a scalar value for key, inserting the key at the end of
// the mapping when absent. Returns false when the key exists with a
// non-scalar value, which is left untouched.
func (m *Mapping) Set(key, val string) bool {
	if m == nil || m.node == nil {
		return false
	}
	if v := m.value(key); v != nil {
		if v.Kind != yaml.ScalarNode {
			return false
		}
		v.SetString(val)
		return true
	}
	var k, v yaml.Node
	k.SetString(key)
	v.SetString(val)
	m.node.Content = append(m.node.Content, &k, &v)
	return true
}
