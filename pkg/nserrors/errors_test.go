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

package nserrors

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", NewConfigError(UnknownNodeReference, "r1", "", nil), 1},
		{"config topology file missing", NewConfigError(TopologyFileMissing, "", "/no/such/file.yaml", nil), 1},
		{"config yaml syntax", NewConfigError(YamlSyntax, "", "/tmp/t.yaml", nil), 1},
		{"namespace generic", NewNamespaceError(CreateFailed, "main", nil), 2},
		{"namespace already running", NewNamespaceError(AlreadyRunning, "main", nil), 3},
		{"link", NewLinkError(VethCreateFailed, "r1-r2", nil), 2},
		{"wrapped config", pkgerrors.Wrap(NewConfigError(DuplicateLink, "r1-r2", "", nil), "parsing topology"), 1},
		{"plain error", pkgerrors.New("boom"), 2},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(c.err); got != c.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}

func TestConfigErrorMessages(t *testing.T) {
	t.Parallel()
	err := NewConfigError(UnknownNodeReference, "r3", "", nil)
	want := "link references unknown node r3"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStackTrace(t *testing.T) {
	t.Parallel()
	t.Run("wrapped chain", func(t *testing.T) {
		t.Parallel()
		err := pkgerrors.New("foo")
		expected := err.(StackTracer).StackTrace()
		result := StackTrace(pkgerrors.Wrap(pkgerrors.Wrap(err, "bar"), "baz"))
		if len(result) != len(expected) {
			t.Errorf("Result did not equal Expected")
			t.Errorf("Expected: %v", expected)
			t.Errorf("Result: %v", result)
		}
	})
	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		if result := StackTrace(nil); result != nil {
			t.Errorf("expected nil StackTrace, got %v", result)
		}
	})
}
