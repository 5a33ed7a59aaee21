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

package netgen

import (
	"os"

	"github.com/Paul-weqe/netgen-rs/pkg/document"
	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

// loadDocument reads and parses the topology file at path, wrapping both
// failure modes as ConfigErrors so cmd/netgen exits 1 rather than 2: a
// missing/unreadable file and a YAML syntax error are both configuration
// problems, not runtime ones, and neither has touched the kernel yet.
func loadDocument(path string) (document.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nserrors.NewConfigError(nserrors.TopologyFileMissing, "", path, err)
	}
	root, err := document.FromYAML(data)
	if err != nil {
		return nil, nserrors.NewConfigError(nserrors.YamlSyntax, "", path, err)
	}
	return root, nil
}
