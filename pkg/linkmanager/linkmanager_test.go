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

package linkmanager

import (
	"net/netip"
	"testing"

	"github.com/Paul-weqe/netgen-rs/pkg/nsmanage"
)

// fakeAdapter is a very simple netlinkadapter.Adapter fake that returns
// fixed ifindexes and records the operations it was asked to perform.
// WARNING: this API is not yet stable; it will change.
type fakeAdapter struct {
	nextIndex int
	indexOf   map[string]int
	calls     []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{nextIndex: 10, indexOf: map[string]int{}}
}

func (f *fakeAdapter) BridgeAdd(name string) (int, error) {
	f.calls = append(f.calls, "bridge-add:"+name)
	f.nextIndex++
	f.indexOf[name] = f.nextIndex
	return f.nextIndex, nil
}

func (f *fakeAdapter) VethAdd(nameA, nameB string) error {
	f.calls = append(f.calls, "veth-add:"+nameA+","+nameB)
	f.nextIndex++
	f.indexOf[nameA] = f.nextIndex
	f.nextIndex++
	f.indexOf[nameB] = f.nextIndex
	return nil
}

func (f *fakeAdapter) LinkSetUp(ifindex int) error {
	f.calls = append(f.calls, "set-up")
	return nil
}

func (f *fakeAdapter) LinkRename(ifindex int, newName string) error {
	f.calls = append(f.calls, "rename:"+newName)
	for name, idx := range f.indexOf {
		if idx == ifindex {
			delete(f.indexOf, name)
		}
	}
	f.indexOf[newName] = ifindex
	return nil
}

func (f *fakeAdapter) LinkSetMaster(ifindex, bridgeIfindex int) error {
	f.calls = append(f.calls, "set-master")
	return nil
}

func (f *fakeAdapter) LinkMoveToNS(ifindex, nsFD int) error {
	f.calls = append(f.calls, "move-to-ns")
	return nil
}

func (f *fakeAdapter) AddrAdd(ifindex int, prefix netip.Prefix) error {
	f.calls = append(f.calls, "addr-add:"+prefix.String())
	return nil
}

func (f *fakeAdapter) NameToIfindex(name string) (int, error) {
	return f.indexOf[name], nil
}

// fakeEntrant runs Enter closures inline (no real namespace switch) and
// returns a dummy fd for OpenNSFd.
type fakeEntrant struct {
	entered []string
}

func (f *fakeEntrant) Enter(kind nsmanage.Kind, device string, fn func() error) error {
	f.entered = append(f.entered, device)
	return fn()
}

func (f *fakeEntrant) OpenNSFd(device string) (int, func(), error) {
	return 99, func() {}, nil
}

func TestRealizeRouterToSwitch(t *testing.T) {
	t.Parallel()
	nl := newFakeAdapter()
	ns := &fakeEntrant{}
	m := New(nl, ns)

	src := Endpoint{Device: "r1", IsRouter: true, FinalName: "eth0"}
	dst := Endpoint{Device: "sw1", IsRouter: false, FinalName: "p1", BridgeIndex: 42}

	if err := m.Realize(src, dst); err != nil {
		t.Fatalf("Realize returned error: %v", err)
	}

	if _, ok := nl.indexOf["eth0"]; !ok {
		t.Errorf("expected router interface renamed to eth0")
	}
	if _, ok := nl.indexOf["p1"]; !ok {
		t.Errorf("expected switch interface renamed to p1")
	}
	if len(ns.entered) != 1 || ns.entered[0] != "r1" {
		t.Errorf("expected exactly one Enter(r1), got %v", ns.entered)
	}

	var sawMove, sawMaster bool
	for _, c := range nl.calls {
		if c == "move-to-ns" {
			sawMove = true
		}
		if c == "set-master" {
			sawMaster = true
		}
	}
	if !sawMove {
		t.Errorf("expected a move-to-ns call for the router endpoint")
	}
	if !sawMaster {
		t.Errorf("expected a set-master call for the switch endpoint")
	}
}

func TestFreshInterimNameShapeAndUniqueness(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name, err := freshInterimName()
		if err != nil {
			t.Fatalf("freshInterimName returned error: %v", err)
		}
		if len(name) != len("eth-XXXX") {
			t.Fatalf("name %q has unexpected length", name)
		}
		if name[:4] != "eth-" {
			t.Fatalf("name %q missing eth- prefix", name)
		}
		seen[name] = true
	}
	if len(seen) < 50 {
		t.Errorf("expected reasonable uniqueness across 100 draws, got %d distinct", len(seen))
	}
}
