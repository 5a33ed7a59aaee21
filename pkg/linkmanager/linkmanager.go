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

// Package linkmanager realizes one topology.Link end-to-end: it creates a
// veth pair under disambiguated interim names, moves each end across a
// namespace boundary where required, renames it to the user-chosen name,
// brings it up, and — for switch endpoints — attaches it to the bridge.
package linkmanager

import (
	"crypto/rand"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Paul-weqe/netgen-rs/pkg/netlinkadapter"
	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
	"github.com/Paul-weqe/netgen-rs/pkg/nsmanage"
)

// NamespaceEntrant is the subset of pkg/nsmanage.Manager that LinkManager
// needs: the ability to run a closure with the OS thread switched into a
// router's namespace, and to obtain an open fd onto a router's namespace
// anchor for IFLA_NET_NS_FD-style moves.
type NamespaceEntrant interface {
	Enter(kind nsmanage.Kind, device string, fn func() error) error
	OpenNSFd(device string) (fd int, closeFd func(), err error)
}

// Endpoint identifies one side of a link: a device name, whether that device
// is a router (namespaced) or a switch (host-namespace bridge), the
// user-requested final interface name, and — for switches — the bridge's
// kernel ifindex.
type Endpoint struct {
	Device      string
	IsRouter    bool
	FinalName   string
	BridgeIndex int // only meaningful when !IsRouter
}

// Manager realizes links using a netlinkadapter.Adapter for all netlink
// operations and a NamespaceEntrant for crossing into router namespaces.
type Manager struct {
	Netlink   netlinkadapter.Adapter
	Namespace NamespaceEntrant
}

// New returns a Manager.
func New(nl netlinkadapter.Adapter, ns NamespaceEntrant) *Manager {
	return &Manager{Netlink: nl, Namespace: ns}
}

// Realize creates the veth pair for src/dst and wires up both ends per the
// four-step algorithm: interim names in the host namespace, veth_add, then
// per-side move/rename/up (router) or rename/up/set-master (switch).
func (m *Manager) Realize(src, dst Endpoint) error {
	linkName := src.Device + ":" + src.FinalName + "<->" + dst.Device + ":" + dst.FinalName

	tmpA, err := freshInterimName()
	if err != nil {
		return nserrors.NewLinkError(nserrors.VethCreateFailed, linkName, err)
	}
	tmpB, err := freshInterimName()
	if err != nil {
		return nserrors.NewLinkError(nserrors.VethCreateFailed, linkName, err)
	}

	log.WithFields(log.Fields{"link": linkName, "tmp_a": tmpA, "tmp_b": tmpB}).Debug("creating veth pair")
	if err := m.Netlink.VethAdd(tmpA, tmpB); err != nil {
		return err
	}

	if err := m.attach(src, tmpA, linkName); err != nil {
		return err
	}
	if err := m.attach(dst, tmpB, linkName); err != nil {
		return err
	}

	log.WithField("link", linkName).Info("link realized")
	return nil
}

// attach moves/renames/brings-up one endpoint. Router endpoints are moved
// into their namespace first, then renamed and brought up from inside it.
// Switch endpoints are renamed, brought up, and attached to their bridge,
// all in the host namespace.
func (m *Manager) attach(ep Endpoint, interimName, linkName string) error {
	ifindex, err := m.Netlink.NameToIfindex(interimName)
	if err != nil {
		return err
	}

	if ep.IsRouter {
		return m.attachRouter(ep, ifindex, interimName, linkName)
	}
	return m.attachSwitch(ep, ifindex, linkName)
}

func (m *Manager) attachRouter(ep Endpoint, ifindex int, interimName, linkName string) error {
	fd, closeFd, err := m.Namespace.OpenNSFd(ep.Device)
	if err != nil {
		return nserrors.NewLinkError(nserrors.MoveFailed, linkName, err)
	}
	defer closeFd()

	if err := m.Netlink.LinkMoveToNS(ifindex, fd); err != nil {
		return err
	}

	return m.Namespace.Enter(nsmanage.KindRouter, ep.Device, func() error {
		newIfindex, err := m.Netlink.NameToIfindex(interimName)
		if err != nil {
			return err
		}
		if err := m.Netlink.LinkRename(newIfindex, ep.FinalName); err != nil {
			return err
		}
		finalIfindex, err := m.Netlink.NameToIfindex(ep.FinalName)
		if err != nil {
			return err
		}
		return m.Netlink.LinkSetUp(finalIfindex)
	})
}

func (m *Manager) attachSwitch(ep Endpoint, ifindex int, linkName string) error {
	if err := m.Netlink.LinkRename(ifindex, ep.FinalName); err != nil {
		return err
	}
	finalIfindex, err := m.Netlink.NameToIfindex(ep.FinalName)
	if err != nil {
		return err
	}
	if err := m.Netlink.LinkSetUp(finalIfindex); err != nil {
		return err
	}
	if err := m.Netlink.LinkSetMaster(finalIfindex, ep.BridgeIndex); err != nil {
		return err
	}
	return nil
}

// freshInterimName generates an "eth-XXXX" style name with four random
// alphanumeric characters, matching the disambiguation scheme used upstream;
// collisions are expected to be astronomically rare at topology scale but
// callers may retry on a VethCreateFailed error that indicates EEXIST.
func freshInterimName() (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 4)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("eth-%s", out), nil
}
