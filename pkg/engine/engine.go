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

// Package engine drives the topology lifecycle: parse, validate, power on
// (routers, switches, links, addresses in that order), and power off. It
// owns no kernel state of its own; it orchestrates pkg/nsmanage,
// pkg/netlinkadapter and pkg/linkmanager against a pkg/topology.Topology.
package engine

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/Paul-weqe/netgen-rs/pkg/document"
	"github.com/Paul-weqe/netgen-rs/pkg/linkmanager"
	"github.com/Paul-weqe/netgen-rs/pkg/netlinkadapter"
	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
	"github.com/Paul-weqe/netgen-rs/pkg/nsmanage"
	"github.com/Paul-weqe/netgen-rs/pkg/topology"
)

// State is one point in the Engine's linear lifecycle. Transitions never
// roll back; a failure at any step surfaces the typed error and leaves
// partial state for stop to clean up.
type State int

const (
	Parsed State = iota
	RoutersUp
	SwitchesUp
	LinksUp
	Addressed
	Running
	TornDown
)

func (s State) String() string {
	switch s {
	case Parsed:
		return "Parsed"
	case RoutersUp:
		return "RoutersUp"
	case SwitchesUp:
		return "SwitchesUp"
	case LinksUp:
		return "LinksUp"
	case Addressed:
		return "Addressed"
	case Running:
		return "Running"
	case TornDown:
		return "TornDown"
	default:
		return "Unknown"
	}
}

// Engine is the top-level lifecycle driver for one topology invocation.
type Engine struct {
	Topology *topology.Topology
	State    State

	ns *nsmanage.Manager
	nl netlinkadapter.Adapter
	lm *linkmanager.Manager
}

// New loads and validates a topology document into an Engine at state
// Parsed. opts configures the underlying NamespaceManager.
func New(root document.Node, nsRoot string, opts nsmanage.Options) (*Engine, error) {
	topo, err := topology.Parse(root)
	if err != nil {
		return nil, err
	}
	ns := nsmanage.NewManager(nsRoot, opts)
	nl := netlinkadapter.New()
	lm := linkmanager.New(nl, ns)
	return &Engine{Topology: topo, State: Parsed, ns: ns, nl: nl, lm: lm}, nil
}

// PowerOn drives the Engine from Parsed through Running. A concurrent-start
// guard refuses to begin if <root>/main/.pid is already present.
func (e *Engine) PowerOn() error {
	if _, err := os.Stat(e.ns.MainPIDPath()); err == nil {
		return nserrors.NewNamespaceError(nserrors.AlreadyRunning, "main", nil)
	}

	if _, err := e.ns.Create(nsmanage.KindMain, "main"); err != nil {
		return err
	}

	if err := e.bringUpRouters(); err != nil {
		return err
	}
	e.State = RoutersUp

	if err := e.bringUpSwitches(); err != nil {
		return err
	}
	e.State = SwitchesUp

	if err := e.bringUpLinks(); err != nil {
		return err
	}
	e.State = LinksUp

	if err := e.assignAddresses(); err != nil {
		return err
	}
	e.State = Addressed

	e.State = Running
	log.Info("topology is up")
	return nil
}

func (e *Engine) bringUpRouters() error {
	for _, r := range e.Topology.Routers() {
		anchor, err := e.ns.Create(nsmanage.KindRouter, r.Name)
		if err != nil {
			return err
		}
		r.NamespaceAnchor = anchor

		// lo is down by default in a fresh net namespace; bring it up
		// before any link touches this router.
		if err := e.ns.Enter(nsmanage.KindRouter, r.Name, func() error {
			loIndex, err := e.nl.NameToIfindex("lo")
			if err != nil {
				return err
			}
			return e.nl.LinkSetUp(loIndex)
		}); err != nil {
			return err
		}
		log.WithField("router", r.Name).Debug("router namespace up")
	}
	return nil
}

func (e *Engine) bringUpSwitches() error {
	for _, s := range e.Topology.Switches() {
		ifindex, err := e.nl.BridgeAdd(s.Name)
		if err != nil {
			return err
		}
		s.BridgeIndex = ifindex
		log.WithField("switch", s.Name).Debug("bridge up")
	}
	return nil
}

func (e *Engine) bringUpLinks() error {
	for _, link := range e.Topology.Links {
		src := e.endpointFor(link.SrcDevice, link.SrcIface)
		dst := e.endpointFor(link.DstDevice, link.DstIface)
		if err := e.lm.Realize(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) endpointFor(device, iface string) linkmanager.Endpoint {
	node := e.Topology.Nodes[device]
	if node.Kind == topology.RouterNode {
		return linkmanager.Endpoint{Device: device, IsRouter: true, FinalName: iface}
	}
	return linkmanager.Endpoint{Device: device, IsRouter: false, FinalName: iface, BridgeIndex: node.Switch.BridgeIndex}
}

func (e *Engine) assignAddresses() error {
	for _, r := range e.Topology.Routers() {
		r := r
		err := e.ns.Enter(nsmanage.KindRouter, r.Name, func() error {
			for _, iface := range r.Interfaces {
				ifindex, err := e.nl.NameToIfindex(iface.Name)
				if err != nil {
					return err
				}
				for _, addr := range iface.Addresses {
					if err := e.nl.AddrAdd(ifindex, addr); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// PowerOff kills every holder process, unmounts every anchor, and removes
// the filesystem state, tolerating pieces that are already missing. It is
// idempotent: calling it twice, or on state built by a previous process,
// produces the same end state as calling it once.
func (e *Engine) PowerOff() error {
	var firstErr error
	for _, r := range e.Topology.Routers() {
		if err := e.ns.Destroy(nsmanage.KindRouter, r.Name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.ns.Destroy(nsmanage.KindMain, "main"); err != nil && firstErr == nil {
		firstErr = err
	}
	e.State = TornDown
	log.Info("topology torn down")
	return firstErr
}
