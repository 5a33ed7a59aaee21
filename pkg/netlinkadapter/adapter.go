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

// Package netlinkadapter is a thin, synchronous wrapper over the kernel
// routing netlink, built on github.com/vishvananda/netlink. Every call
// operates against whatever network namespace is current on the calling OS
// thread; callers are responsible for namespace placement (see
// pkg/nsmanage.Manager.Enter).
package netlinkadapter

import (
	"net/netip"
	"strconv"

	"github.com/vishvananda/netlink"

	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

// Adapter is the capability surface the LinkManager and Engine depend on.
// It exists as an interface so tests can substitute a fake in place of real
// kernel calls, the way the teacher fakes command execution.
type Adapter interface {
	BridgeAdd(name string) (ifindex int, err error)
	VethAdd(nameA, nameB string) error
	LinkSetUp(ifindex int) error
	LinkRename(ifindex int, newName string) error
	LinkSetMaster(ifindex, bridgeIfindex int) error
	LinkMoveToNS(ifindex, nsFD int) error
	AddrAdd(ifindex int, prefix netip.Prefix) error
	NameToIfindex(name string) (int, error)
}

// netlinkAdapter is the real Adapter, backed by the host kernel.
type netlinkAdapter struct{}

// New returns the real, kernel-backed Adapter.
func New() Adapter {
	return &netlinkAdapter{}
}

func (a *netlinkAdapter) BridgeAdd(name string) (int, error) {
	br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := netlink.LinkAdd(br); err != nil {
		return 0, nserrors.NewLinkError(nserrors.BridgeCreateFailed, name, err)
	}
	if err := netlink.LinkSetUp(br); err != nil {
		return 0, nserrors.NewLinkError(nserrors.SetUpFailed, name, err)
	}
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, nserrors.NewLinkError(nserrors.NoInterface, name, err)
	}
	return link.Attrs().Index, nil
}

func (a *netlinkAdapter) VethAdd(nameA, nameB string) error {
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: nameA},
		PeerName:  nameB,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return nserrors.NewLinkError(nserrors.VethCreateFailed, nameA+"<->"+nameB, err)
	}
	return nil
}

func (a *netlinkAdapter) LinkSetUp(ifindex int) error {
	link, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.SetUpFailed, indexName(ifindex), err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return nserrors.NewLinkError(nserrors.SetUpFailed, link.Attrs().Name, err)
	}
	return nil
}

func (a *netlinkAdapter) LinkRename(ifindex int, newName string) error {
	link, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.RenameFailed, indexName(ifindex), err)
	}
	if err := netlink.LinkSetName(link, newName); err != nil {
		return nserrors.NewLinkError(nserrors.RenameFailed, newName, err)
	}
	return nil
}

func (a *netlinkAdapter) LinkSetMaster(ifindex, bridgeIfindex int) error {
	link, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.SetMasterFailed, indexName(ifindex), err)
	}
	bridge, err := netlink.LinkByIndex(bridgeIfindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.SetMasterFailed, indexName(bridgeIfindex), err)
	}
	if err := netlink.LinkSetMaster(link, bridge); err != nil {
		return nserrors.NewLinkError(nserrors.SetMasterFailed, link.Attrs().Name, err)
	}
	return nil
}

func (a *netlinkAdapter) LinkMoveToNS(ifindex, nsFD int) error {
	link, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.MoveFailed, indexName(ifindex), err)
	}
	if err := netlink.LinkSetNsFd(link, nsFD); err != nil {
		return nserrors.NewLinkError(nserrors.MoveFailed, link.Attrs().Name, err)
	}
	return nil
}

func (a *netlinkAdapter) AddrAdd(ifindex int, prefix netip.Prefix) error {
	link, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nserrors.NewLinkError(nserrors.AddrAddFailed, indexName(ifindex), err)
	}
	addr, err := netlink.ParseAddr(prefix.String())
	if err != nil {
		return nserrors.NewLinkError(nserrors.AddrAddFailed, link.Attrs().Name, err)
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		return nserrors.NewLinkError(nserrors.AddrAddFailed, link.Attrs().Name, err)
	}
	return nil
}

func (a *netlinkAdapter) NameToIfindex(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, nserrors.NewLinkError(nserrors.NoInterface, name, err)
	}
	return link.Attrs().Index, nil
}

func indexName(ifindex int) string {
	return "ifindex:" + strconv.Itoa(ifindex)
}
