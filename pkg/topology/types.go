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

// Package topology holds the validated representation of a
// declarative network topology: routers, switches, and the links between
// them. Nothing in this package touches the kernel; pkg/engine drives
// pkg/nsmanage, pkg/netlinkadapter and pkg/linkmanager against the graph
// built here.
package topology

import (
	"net/netip"
	"sort"
)

// Interface is one named network interface with an ordered list of
// addresses. The loopback interface is implicit and never listed here.
type Interface struct {
	Name      string
	Addresses []netip.Prefix
}

// NodeKind discriminates the Router/Switch tagged variant.
type NodeKind int

const (
	// RouterNode lives in its own network namespace.
	RouterNode NodeKind = iota
	// SwitchNode is a bridge living in the host namespace.
	SwitchNode
)

// Router is a node that gets its own network namespace, connected to peers
// exclusively via veth pairs whose router-side end is renamed and brought up
// inside that namespace.
type Router struct {
	Name       string
	Interfaces []Interface

	// NamespaceAnchor is set by the Engine after power-on; empty beforehand.
	NamespaceAnchor string
	// HolderPID is the pid of the paused holder process. The Engine does
	// not fill it in; the holder's pid is recorded only in the anchor's
	// .pid file.
	HolderPID int
}

// Switch is a node realized as a kernel bridge in the host namespace. Its
// Interfaces list is informational — endpoints only carry addresses when a
// caller explicitly configures one, which is unusual for a plain L2 switch.
type Switch struct {
	Name       string
	Interfaces []Interface

	// BridgeIndex is set by the Engine after power-on; zero beforehand.
	BridgeIndex int
}

// Node is a tagged variant of Router or Switch. Exactly one of Router/Switch
// is non-nil, mirroring the source topology's tagged-union data model.
type Node struct {
	Kind   NodeKind
	Router *Router
	Switch *Switch
}

// Name returns the node's name regardless of its concrete kind.
func (n Node) Name() string {
	if n.Kind == RouterNode {
		return n.Router.Name
	}
	return n.Switch.Name
}

// Interfaces returns the node's interface list regardless of its concrete kind.
func (n Node) Interfaces() []Interface {
	if n.Kind == RouterNode {
		return n.Router.Interfaces
	}
	return n.Switch.Interfaces
}

// Link connects one interface on one node to one interface on another. The
// pair (device, iface) identifies an endpoint; Links never hold pointers to
// Nodes, only names, so look-ups always go back through Topology.Nodes.
type Link struct {
	SrcDevice string
	SrcIface  string
	DstDevice string
	DstIface  string
}

// endpoints returns the two (device, iface) pairs this link connects, used
// for the unordered-pair duplicate check.
func (l Link) endpoints() (a, b [2]string) {
	return [2]string{l.SrcDevice, l.SrcIface}, [2]string{l.DstDevice, l.DstIface}
}

// Topology is the fully parsed and validated description of a network to
// build. Its nodes and links are fixed once returned by Parse; the Engine
// only fills in the runtime fields (Router.NamespaceAnchor,
// Switch.BridgeIndex) during power-on.
type Topology struct {
	// Nodes maps a node name to its Node. Ranging over it yields Go's
	// unspecified map order; callers that need determinism should use
	// SortedNodeNames.
	Nodes map[string]Node
	Links []Link
}

// SortedNodeNames returns the topology's node names in sorted order, the
// canonical iteration order used by the Engine so behavior is deterministic
// across runs.
func (t *Topology) SortedNodeNames() []string {
	names := make([]string, 0, len(t.Nodes))
	for name := range t.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routers returns the topology's routers in sorted-name order.
func (t *Topology) Routers() []*Router {
	var out []*Router
	for _, name := range t.SortedNodeNames() {
		if n := t.Nodes[name]; n.Kind == RouterNode {
			out = append(out, n.Router)
		}
	}
	return out
}

// Switches returns the topology's switches in sorted-name order.
func (t *Topology) Switches() []*Switch {
	var out []*Switch
	for _, name := range t.SortedNodeNames() {
		if n := t.Nodes[name]; n.Kind == SwitchNode {
			out = append(out, n.Switch)
		}
	}
	return out
}
