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

// Package nserrors defines the tagged error variants returned across the
// topology/namespace/link stack, and maps them onto the process exit codes
// used by cmd/netgen.
package nserrors

import (
	pkgerrors "github.com/pkg/errors"
)

// Causer is an interface to github.com/pkg/errors error's Cause() wrapping.
type Causer interface {
	Cause() error
}

// StackTracer is an interface to github.com/pkg/errors error's StackTrace().
type StackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// StackTrace returns the deepest StackTrace in a Cause chain.
// https://github.com/pkg/errors/issues/173
func StackTrace(err error) pkgerrors.StackTrace {
	var stackErr error
	for {
		if _, ok := err.(StackTracer); ok {
			stackErr = err
		}
		if causerErr, ok := err.(Causer); ok {
			err = causerErr.Cause()
		} else {
			break
		}
	}
	if stackErr != nil {
		return stackErr.(StackTracer).StackTrace()
	}
	return nil
}

// ExitCoder is implemented by every error family defined in this package.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitCodeFor walks the Cause() chain looking for the deepest ExitCoder,
// and returns 2 (generic runtime error) if none is found, or 0 if err is nil.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var coded ExitCoder
	for {
		if c, ok := err.(ExitCoder); ok {
			coded = c
		}
		if causerErr, ok := err.(Causer); ok {
			err = causerErr.Cause()
		} else {
			break
		}
	}
	if coded != nil {
		return coded.ExitCode()
	}
	return 2
}

// ConfigKind discriminates ConfigError variants.
type ConfigKind int

const (
	// InvalidYAML means a value in the document tree has the wrong shape
	// (e.g. a mapping, sequence or scalar was expected and something else
	// was found).
	InvalidYAML ConfigKind = iota
	// UnknownNodeReference means a link referenced a node not declared in
	// routers/switches.
	UnknownNodeReference
	// DuplicateNodeName means two routers/switches share a name.
	DuplicateNodeName
	// DuplicateLink means the same unordered endpoint pair
	// {(device, iface), (device, iface)} appears twice.
	DuplicateLink
	// InvalidAddress means an interface address failed to parse as a CIDR.
	InvalidAddress
	// OverlappingAddress means two addresses of the same family on one
	// interface have overlapping prefixes. This is an enrichment over the original
	// implementation, not present upstream.
	OverlappingAddress
	// MissingField means a required mapping key was absent.
	MissingField
	// DuplicateInterface means two interfaces on the same node share a name.
	DuplicateInterface
	// TopologyFileMissing means the topology document could not be read
	// from disk (the file is absent, unreadable, or a directory).
	TopologyFileMissing
	// YamlSyntax means the topology document's bytes could not be
	// tokenized as YAML, or held no document at all, before any
	// topology-specific validation.
	YamlSyntax
)

// ConfigError reports a problem found while parsing or validating a
// topology document, before any kernel state has been touched.
type ConfigError struct {
	Kind  ConfigKind
	Node  string
	Field string
	cause error
}

func (e *ConfigError) Error() string {
	msg := "invalid topology configuration"
	switch e.Kind {
	case InvalidYAML:
		msg = "document is not a valid topology tree"
	case UnknownNodeReference:
		msg = "link references unknown node " + e.Node
	case DuplicateNodeName:
		msg = "duplicate node name " + e.Node
	case DuplicateLink:
		msg = "duplicate link for node pair " + e.Node
	case InvalidAddress:
		msg = "invalid address at " + e.Field
	case OverlappingAddress:
		msg = "overlapping address on " + e.Node + "." + e.Field
	case MissingField:
		msg = "missing required field " + e.Field + " on " + e.Node
	case DuplicateInterface:
		msg = "duplicate interface name " + e.Field + " on " + e.Node
	case TopologyFileMissing:
		msg = "could not read topology file " + e.Field
	case YamlSyntax:
		msg = "topology document is not valid yaml"
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Cause implements Causer.
func (e *ConfigError) Cause() error { return e.cause }

// ExitCode implements ExitCoder. Config errors never touch the kernel, so
// they always map to exit code 1.
func (e *ConfigError) ExitCode() int { return 1 }

// NewConfigError builds a ConfigError of the given kind.
func NewConfigError(kind ConfigKind, node, field string, cause error) *ConfigError {
	return &ConfigError{Kind: kind, Node: node, Field: field, cause: cause}
}

// NamespaceKind discriminates NamespaceError variants.
type NamespaceKind int

const (
	// CreateFailed means unshare/bind-mount/holder-spawn failed.
	CreateFailed NamespaceKind = iota
	// EnterFailed means setns into an existing namespace failed.
	EnterFailed
	// DestroyFailed means unmount or holder-kill failed.
	DestroyFailed
	// AlreadyRunning means a live anchor for "main" was found (concurrent
	// instance guard).
	AlreadyRunning
	// AnchorMissing means an expected anchor path/pid file was absent.
	AnchorMissing
	// FileOpen means opening an anchor file for setns/IFLA_NET_NS_FD failed.
	FileOpen
)

// NamespaceError reports a failure manipulating a persistent network
// namespace (the holder process, its bind mount, or its pid file).
type NamespaceError struct {
	Kind   NamespaceKind
	Device string
	cause  error
}

func (e *NamespaceError) Error() string {
	msg := "namespace operation failed"
	switch e.Kind {
	case CreateFailed:
		msg = "failed to create namespace for " + e.Device
	case EnterFailed:
		msg = "failed to enter namespace for " + e.Device
	case DestroyFailed:
		msg = "failed to destroy namespace for " + e.Device
	case AlreadyRunning:
		msg = "netgen instance already running (main namespace anchor present)"
	case AnchorMissing:
		msg = "namespace anchor missing for " + e.Device
	case FileOpen:
		msg = "failed to open namespace anchor for " + e.Device
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Cause implements Causer.
func (e *NamespaceError) Cause() error { return e.cause }

// ExitCode implements ExitCoder. AlreadyRunning gets its own exit code (3);
// all other namespace failures are runtime errors (2).
func (e *NamespaceError) ExitCode() int {
	if e.Kind == AlreadyRunning {
		return 3
	}
	return 2
}

// NewNamespaceError builds a NamespaceError of the given kind.
func NewNamespaceError(kind NamespaceKind, device string, cause error) *NamespaceError {
	return &NamespaceError{Kind: kind, Device: device, cause: cause}
}

// LinkKind discriminates LinkError variants.
type LinkKind int

const (
	// VethCreateFailed means the netlink veth-add call failed.
	VethCreateFailed LinkKind = iota
	// BridgeCreateFailed means the netlink bridge-add call failed.
	BridgeCreateFailed
	// MoveFailed means moving one end into a namespace failed.
	MoveFailed
	// RenameFailed means renaming an interface inside its namespace failed.
	RenameFailed
	// SetUpFailed means bringing an interface up failed.
	SetUpFailed
	// SetMasterFailed means attaching an interface to a bridge failed.
	SetMasterFailed
	// AddrAddFailed means assigning an address to an interface failed.
	AddrAddFailed
	// NoInterface means a name-to-ifindex lookup found nothing.
	NoInterface
)

// LinkError reports a failure realizing one Link between two nodes.
type LinkError struct {
	Kind  LinkKind
	Link  string
	cause error
}

func (e *LinkError) Error() string {
	msg := "link operation failed"
	switch e.Kind {
	case VethCreateFailed:
		msg = "failed to create veth pair for link " + e.Link
	case BridgeCreateFailed:
		msg = "failed to create bridge " + e.Link
	case MoveFailed:
		msg = "failed to move interface into namespace for link " + e.Link
	case RenameFailed:
		msg = "failed to rename interface for link " + e.Link
	case SetUpFailed:
		msg = "failed to bring up interface for link " + e.Link
	case SetMasterFailed:
		msg = "failed to attach interface to bridge for link " + e.Link
	case AddrAddFailed:
		msg = "failed to assign address for link " + e.Link
	case NoInterface:
		msg = "no such interface: " + e.Link
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Cause implements Causer.
func (e *LinkError) Cause() error { return e.cause }

// ExitCode implements ExitCoder. Link failures always happen after kernel
// state has started changing, so they are runtime errors (2).
func (e *LinkError) ExitCode() int { return 2 }

// NewLinkError builds a LinkError of the given kind.
func NewLinkError(kind LinkKind, link string, cause error) *LinkError {
	return &LinkError{Kind: kind, Link: link, cause: cause}
}
