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

package topology

import (
	"net"
	"net/netip"

	"github.com/apparentlymart/go-cidr/cidr"

	"github.com/Paul-weqe/netgen-rs/pkg/document"
	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

// Parse builds and validates a Topology from a parsed document tree. The
// entire document is rejected on the first invariant violation; there is no
// partial acceptance.
func Parse(root document.Node) (*Topology, error) {
	if root.Kind() != document.Mapping {
		return nil, nserrors.NewConfigError(nserrors.InvalidYAML, "", root.Path(), nil)
	}

	nodes := map[string]Node{}

	if routersNode, ok := root.Get("routers"); ok {
		if err := parseNodes(routersNode, RouterNode, nodes); err != nil {
			return nil, err
		}
	}
	if switchesNode, ok := root.Get("switches"); ok {
		if err := parseNodes(switchesNode, SwitchNode, nodes); err != nil {
			return nil, err
		}
	}

	var links []Link
	if linksNode, ok := root.Get("links"); ok {
		parsed, err := parseLinks(linksNode)
		if err != nil {
			return nil, err
		}
		links = parsed
	}

	topo := &Topology{Nodes: nodes, Links: links}
	if err := validate(topo); err != nil {
		return nil, err
	}
	return topo, nil
}

func parseNodes(section document.Node, kind NodeKind, nodes map[string]Node) error {
	if section.Kind() != document.Mapping {
		return nserrors.NewConfigError(nserrors.InvalidYAML, "", section.Path(), nil)
	}
	keys, _ := section.Keys()
	for _, name := range keys {
		if _, exists := nodes[name]; exists {
			return nserrors.NewConfigError(nserrors.DuplicateNodeName, name, "", nil)
		}
		entry, _ := section.Get(name)
		interfaces, err := parseInterfaces(entry, name)
		if err != nil {
			return err
		}
		switch kind {
		case RouterNode:
			nodes[name] = Node{Kind: RouterNode, Router: &Router{Name: name, Interfaces: interfaces}}
		case SwitchNode:
			nodes[name] = Node{Kind: SwitchNode, Switch: &Switch{Name: name, Interfaces: interfaces}}
		}
	}
	return nil
}

func parseInterfaces(entry document.Node, nodeName string) ([]Interface, error) {
	ifacesNode, ok := entry.Get("interfaces")
	if !ok {
		return nil, nil
	}
	if ifacesNode.Kind() != document.Mapping {
		return nil, nserrors.NewConfigError(nserrors.InvalidYAML, nodeName, ifacesNode.Path(), nil)
	}
	names, _ := ifacesNode.Keys()
	seen := map[string]bool{}
	out := make([]Interface, 0, len(names))
	for _, ifaceName := range names {
		if seen[ifaceName] {
			return nil, nserrors.NewConfigError(nserrors.DuplicateInterface, nodeName, ifaceName, nil)
		}
		seen[ifaceName] = true
		ifaceNode, _ := ifacesNode.Get(ifaceName)
		addrs, err := parseAddresses(ifaceNode, nodeName, ifaceName)
		if err != nil {
			return nil, err
		}
		out = append(out, Interface{Name: ifaceName, Addresses: addrs})
	}
	return out, nil
}

func parseAddresses(ifaceNode document.Node, nodeName, ifaceName string) ([]netip.Prefix, error) {
	var all []netip.Prefix
	for _, family := range []string{"ipv4", "ipv6"} {
		listNode, ok := ifaceNode.Get(family)
		if !ok {
			continue
		}
		elems, ok := listNode.Elements()
		if !ok {
			return nil, nserrors.NewConfigError(nserrors.InvalidYAML, nodeName, listNode.Path(), nil)
		}
		for _, elem := range elems {
			raw, ok := elem.Scalar()
			if !ok {
				return nil, nserrors.NewConfigError(nserrors.InvalidYAML, nodeName, elem.Path(), nil)
			}
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, nserrors.NewConfigError(nserrors.InvalidAddress, nodeName, listNode.Path(), err)
			}
			all = append(all, prefix)
		}
	}
	if err := checkOverlap(all, nodeName, ifaceName); err != nil {
		return nil, err
	}
	return all, nil
}

// checkOverlap rejects two addresses on the same interface whose networks
// overlap. This is an enrichment beyond the original's behavior: address
// parsing there never cross-checked prefixes against one another.
func checkOverlap(prefixes []netip.Prefix, nodeName, ifaceName string) error {
	var v4, v6 []*net.IPNet
	for _, p := range prefixes {
		_, ipNet, err := net.ParseCIDR(p.String())
		if err != nil {
			continue
		}
		if p.Addr().Is4() {
			v4 = append(v4, ipNet)
		} else {
			v6 = append(v6, ipNet)
		}
	}
	for _, group := range [][]*net.IPNet{v4, v6} {
		if len(group) < 2 {
			continue
		}
		_, all, _ := net.ParseCIDR("0.0.0.0/0")
		if group[0].IP.To4() == nil {
			_, all, _ = net.ParseCIDR("::/0")
		}
		if err := cidr.VerifyNoOverlap(group, all); err != nil {
			return nserrors.NewConfigError(nserrors.OverlappingAddress, nodeName, ifaceName, err)
		}
	}
	return nil
}

func parseLinks(section document.Node) ([]Link, error) {
	elems, ok := section.Elements()
	if !ok {
		return nil, nserrors.NewConfigError(nserrors.InvalidYAML, "", section.Path(), nil)
	}
	out := make([]Link, 0, len(elems))
	for _, elem := range elems {
		link, err := parseLink(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

func parseLink(elem document.Node) (Link, error) {
	get := func(field string) (string, error) {
		n, ok := elem.Get(field)
		if !ok {
			return "", nserrors.NewConfigError(nserrors.MissingField, "", field, nil)
		}
		v, ok := n.Scalar()
		if !ok {
			return "", nserrors.NewConfigError(nserrors.InvalidYAML, "", n.Path(), nil)
		}
		return v, nil
	}
	src, err := get("src-device")
	if err != nil {
		return Link{}, err
	}
	srcIface, err := get("src-iface")
	if err != nil {
		return Link{}, err
	}
	dst, err := get("dst-device")
	if err != nil {
		return Link{}, err
	}
	dstIface, err := get("dst-iface")
	if err != nil {
		return Link{}, err
	}
	return Link{SrcDevice: src, SrcIface: srcIface, DstDevice: dst, DstIface: dstIface}, nil
}

// validate enforces the invariants that must hold after parsing, before
// power-on: node-reference integrity and link-pair uniqueness. Node-name and
// interface-name uniqueness are already enforced while building the map.
func validate(t *Topology) error {
	seenPairs := map[[2][2]string]bool{}
	for _, link := range t.Links {
		if _, ok := t.Nodes[link.SrcDevice]; !ok {
			return nserrors.NewConfigError(nserrors.UnknownNodeReference, link.SrcDevice, "", nil)
		}
		if _, ok := t.Nodes[link.DstDevice]; !ok {
			return nserrors.NewConfigError(nserrors.UnknownNodeReference, link.DstDevice, "", nil)
		}
		a, b := link.endpoints()
		key := canonicalPair(a, b)
		if seenPairs[key] {
			return nserrors.NewConfigError(nserrors.DuplicateLink, link.SrcDevice+":"+link.SrcIface+"<->"+link.DstDevice+":"+link.DstIface, "", nil)
		}
		seenPairs[key] = true
	}
	return nil
}

func canonicalPair(a, b [2]string) [2][2]string {
	if a[0] < b[0] || (a[0] == b[0] && a[1] < b[1]) {
		return [2][2]string{a, b}
	}
	return [2][2]string{b, a}
}
