/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlNode adapts a *yaml.Node into the opaque Node interface. It is the one
// concrete tree adapter this repository ships; any other structured-config
// format can be substituted by implementing Node against its own parser.
type yamlNode struct {
	raw  *yaml.Node
	path string
}

// FromYAML parses data as a YAML document and returns its root as a Node.
// The returned tree is read-only; mutating the underlying bytes has no
// effect on a previously parsed Node.
func FromYAML(data []byte) (Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("document is not valid yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	// A freshly unmarshaled *yaml.Node is a DocumentNode wrapping exactly
	// one child; unwrap it so callers always start at the real root.
	return &yamlNode{raw: root.Content[0], path: "$"}, nil
}

func (n *yamlNode) Kind() Kind {
	switch n.raw.Kind {
	case yaml.SequenceNode:
		return Sequence
	case yaml.MappingNode:
		return Mapping
	default:
		return Scalar
	}
}

func (n *yamlNode) Path() string {
	return n.path
}

func (n *yamlNode) Scalar() (string, bool) {
	if n.raw.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.raw.Value, true
}

func (n *yamlNode) Elements() ([]Node, bool) {
	if n.raw.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]Node, 0, len(n.raw.Content))
	for i, c := range n.raw.Content {
		out = append(out, &yamlNode{raw: c, path: fmt.Sprintf("%s[%d]", n.path, i)})
	}
	return out, true
}

func (n *yamlNode) Keys() ([]string, bool) {
	if n.raw.Kind != yaml.MappingNode {
		return nil, false
	}
	keys := make([]string, 0, len(n.raw.Content)/2)
	for i := 0; i < len(n.raw.Content); i += 2 {
		keys = append(keys, n.raw.Content[i].Value)
	}
	return keys, true
}

func (n *yamlNode) Get(key string) (Node, bool) {
	if n.raw.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i < len(n.raw.Content); i += 2 {
		if n.raw.Content[i].Value == key {
			child := n.raw.Content[i+1]
			return &yamlNode{raw: child, path: n.path + "->" + key}, true
		}
	}
	return nil, false
}
