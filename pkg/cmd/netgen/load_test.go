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
	"path/filepath"
	"testing"

	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

func TestLoadDocumentMissingFileIsConfigError(t *testing.T) {
	t.Parallel()
	_, err := loadDocument(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing topology file")
	}
	cfgErr, ok := err.(*nserrors.ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Kind != nserrors.TopologyFileMissing {
		t.Errorf("Kind = %v, want TopologyFileMissing", cfgErr.Kind)
	}
	if got := nserrors.ExitCodeFor(err); got != 1 {
		t.Errorf("ExitCodeFor() = %d, want 1", got)
	}
}

func TestLoadDocumentBadYAMLIsConfigError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("[unterminated"), 0o644); err != nil {
		t.Fatalf("os.WriteFile failed: %v", err)
	}
	_, err := loadDocument(path)
	if err == nil {
		t.Fatalf("expected an error for malformed yaml")
	}
	cfgErr, ok := err.(*nserrors.ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Kind != nserrors.YamlSyntax {
		t.Errorf("Kind = %v, want YamlSyntax", cfgErr.Kind)
	}
	if got := nserrors.ExitCodeFor(err); got != 1 {
		t.Errorf("ExitCodeFor() = %d, want 1", got)
	}
}
