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

// Package nsmanage creates, enters, and destroys the persistent network
// namespaces that back each router and the controlling "main" process. A
// namespace is kept alive by a paused holder process and given a
// filesystem-visible identity by bind-mounting its /proc/self/ns/net onto an
// anchor file; see Manager.Create.
package nsmanage

import "path/filepath"

// Kind discriminates the two namespace roles this package manages.
type Kind int

const (
	// KindMain is the controlling process's own namespace anchor. It always
	// unshares both net and pid namespaces.
	KindMain Kind = iota
	// KindRouter is a per-router namespace. It unshares net only by
	// default; see Options.UnsharePID.
	KindRouter
)

// DefaultRoot is the well-known filesystem root for namespace anchors, used
// unless the caller supplies a different one.
const DefaultRoot = "/tmp/netgen-rs/ns"

// anchor names the filesystem paths backing one namespace: the home
// directory, the bind-mount file inside it, and the holder's pid file.
// Mirrors the DeviceDetails helper in the original implementation.
type anchor struct {
	name string
	home string
}

func newMainAnchor(root string) anchor {
	return anchor{name: "main", home: filepath.Join(root, "main")}
}

func newRouterAnchor(root, device string) anchor {
	return anchor{name: device, home: filepath.Join(root, "devices", device)}
}

func (a anchor) netnsPath() string { return filepath.Join(a.home, "net") }
func (a anchor) pidPath() string   { return filepath.Join(a.home, ".pid") }
