package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lookup errors.
var (
	// ErrManifestParse indicates the manifest is not valid YAML or has an
	// unexpected shape.
	ErrManifestParse = errors.New("error parsing YAML file")

	// ErrSectionNotFound indicates the manifest has no section for the
	// deployment type.
	ErrSectionNotFound = errors.New("deployment type section not found")

	// ErrEntryNotFound indicates the section has no entry for the component.
	ErrEntryNotFound = errors.New("component entry not found")
)

// Document is a decoded manifest.
type Document struct {
	root yaml.Node
}

// Entry is a single component in a manifest section.
// It is a view into its Document; changes show up when the Document is
// encoded.
type Entry struct {
	// Name is the component name the entry is keyed by.
	Name string

	doc *Document
	// path holds the value indices of the section and the entry, starting
	// from the top-level mapping.
	path []int
	node *yaml.Node
}

// Parse decodes manifest data.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
	}

	if body := doc.body(); body != nil && body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrManifestParse)
	}

	return doc, nil
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Locate loads the manifest for t in environment and finds the entry for name.
func Locate(workDir, environment string, t DeploymentType, name string) (*Document, *Entry, error) {
	path := Path(workDir, environment, t)

	doc, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	entry, err := doc.Entry(t, name)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, entry, nil
}

// Entry returns the entry for name in the section of t.
func (d *Document) Entry(t DeploymentType, name string) (*Entry, error) {
	body := d.body()
	if body == nil {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, t)
	}

	si := valueIndex(body, string(t))
	if si < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, t)
	}

	section := resolve(body.Content[si])
	if section.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	ei := valueIndex(section, name)
	if ei < 0 {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	node := resolve(section.Content[ei])
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: entry %q is not a mapping", ErrManifestParse, name)
	}

	return &Entry{Name: name, doc: d, path: []int{si, ei}, node: node}, nil
}

// Encode serializes the document back to YAML.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(&d.root); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}

// body returns the top-level node, or nil for an empty document.
func (d *Document) body() *yaml.Node {
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 {
		return nil
	}
	return resolve(d.root.Content[0])
}

// Version returns the entry's current version, or "" when unset.
func (e *Entry) Version() string {
	v := lookup(e.node, versionKey)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return ""
	}
	return v.Value
}

// SkipAutoVersionBump reports whether automatic version bumps are disabled
// for the entry.
func (e *Entry) SkipAutoVersionBump() bool {
	v := lookup(e.node, skipBumpKey)
	if v == nil {
		return false
	}

	var skip bool
	if err := v.Decode(&skip); err != nil {
		return false
	}
	return skip
}

// SetVersion sets the entry's version, adding the key if missing.
// Nodes shared with other keys through anchors and aliases are copied first,
// so no other entry changes.
func (e *Entry) SetVersion(version string) {
	e.own()

	i := valueIndex(e.node, versionKey)
	if i < 0 {
		e.node.Content = append(e.node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: versionKey},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version},
		)
		return
	}

	v := e.node.Content[i]
	if v.Kind != yaml.ScalarNode {
		// Aliases and non-scalar values get a fresh node.
		e.node.Content[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version}
		return
	}

	e.doc.unshare(v)
	v.Value = version
	// Keep versions like 1.10 strings even if the old value read as a number.
	v.Tag = "!!str"
}

// own makes every node from the section down to the entry private to this
// entry.
func (e *Entry) own() {
	n := e.doc.body()
	for _, i := range e.path {
		n = e.doc.detach(n, i)
	}
	e.node = n
}

// detach returns the value at parent.Content[i] after making it private to
// parent: an alias is replaced by a copy of its target, and an anchored node
// has its aliases elsewhere replaced by copies.
func (d *Document) detach(parent *yaml.Node, i int) *yaml.Node {
	n := parent.Content[i]
	if n.Kind == yaml.AliasNode {
		n = clone(resolve(n))
		parent.Content[i] = n
		return n
	}
	d.unshare(n)
	return n
}

// unshare replaces every alias of n in the document with a copy of n.
func (d *Document) unshare(n *yaml.Node) {
	if n.Anchor == "" {
		return
	}

	var walk func(*yaml.Node)
	walk = func(parent *yaml.Node) {
		for i, child := range parent.Content {
			if child.Kind == yaml.AliasNode {
				if child.Alias == n {
					parent.Content[i] = clone(n)
				}
				continue
			}
			walk(child)
		}
	}
	walk(&d.root)
}

// clone deep-copies n without anchors. Aliases inside keep their targets.
func clone(n *yaml.Node) *yaml.Node {
	c := *n
	c.Anchor = ""
	c.Content = nil
	for _, child := range n.Content {
		c.Content = append(c.Content, clone(child))
	}
	return &c
}

// lookup returns the value for key in a mapping node.
func lookup(mapping *yaml.Node, key string) *yaml.Node {
	if i := valueIndex(mapping, key); i >= 0 {
		return resolve(mapping.Content[i])
	}
	return nil
}

// valueIndex returns the index in mapping.Content of the value for key, or
// -1.
func valueIndex(mapping *yaml.Node, key string) int {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i + 1
		}
	}
	return -1
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
