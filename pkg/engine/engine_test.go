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

package engine

import (
	"testing"

	"github.com/Paul-weqe/netgen-rs/pkg/document"
	"github.com/Paul-weqe/netgen-rs/pkg/nsmanage"
)

const scenarioADoc = `
routers:
  r1:
    interfaces:
      eth0:
        ipv4: ["10.0.0.1/24"]
  r2:
    interfaces:
      eth0:
        ipv4: ["10.0.0.2/24"]
switches:
  sw1: {}
links:
  - src-device: r1
    src-iface: eth0
    dst-device: sw1
    dst-iface: p1
  - src-device: r2
    src-iface: eth0
    dst-device: sw1
    dst-iface: p2
`

func TestNewParsesIntoParsedState(t *testing.T) {
	t.Parallel()
	root, err := document.FromYAML([]byte(scenarioADoc))
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	e, err := New(root, t.TempDir(), nsmanage.Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if e.State != Parsed {
		t.Errorf("State = %v, want Parsed", e.State)
	}
	if len(e.Topology.Routers()) != 2 {
		t.Errorf("expected 2 routers, got %d", len(e.Topology.Routers()))
	}
}

func TestEndpointForRouterAndSwitch(t *testing.T) {
	t.Parallel()
	root, err := document.FromYAML([]byte(scenarioADoc))
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	e, err := New(root, t.TempDir(), nsmanage.Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	e.Topology.Nodes["sw1"].Switch.BridgeIndex = 7

	routerEP := e.endpointFor("r1", "eth0")
	if !routerEP.IsRouter || routerEP.FinalName != "eth0" {
		t.Errorf("unexpected router endpoint: %+v", routerEP)
	}

	switchEP := e.endpointFor("sw1", "p1")
	if switchEP.IsRouter || switchEP.FinalName != "p1" || switchEP.BridgeIndex != 7 {
		t.Errorf("unexpected switch endpoint: %+v", switchEP)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	cases := map[State]string{
		Parsed:     "Parsed",
		RoutersUp:  "RoutersUp",
		SwitchesUp: "SwitchesUp",
		LinksUp:    "LinksUp",
		Addressed:  "Addressed",
		Running:    "Running",
		TornDown:   "TornDown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
