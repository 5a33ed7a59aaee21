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

package nsmanage

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/moby/sys/reexec"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

// Options configures a Manager's behavior on the Open Questions the design
// leaves switchable.
type Options struct {
	// UnsharePID additionally unshares a PID namespace per router. Default
	// false: routers are net-only, matching the documented default.
	UnsharePID bool
	// ReadinessTimeout bounds how long Create waits for a holder process to
	// report it has bind-mounted its namespace (the pid file is written by
	// Create itself).
	ReadinessTimeout time.Duration
}

// Manager creates, enters, and destroys the persistent network namespaces
// anchored under Root.
type Manager struct {
	Root    string
	Options Options
}

// NewManager returns a Manager rooted at root, or DefaultRoot if root is empty.
func NewManager(root string, opts Options) *Manager {
	if root == "" {
		root = DefaultRoot
	}
	if opts.ReadinessTimeout == 0 {
		opts.ReadinessTimeout = 5 * time.Second
	}
	return &Manager{Root: root, Options: opts}
}

func (m *Manager) anchorFor(kind Kind, device string) anchor {
	if kind == KindMain {
		return newMainAnchor(m.Root)
	}
	return newRouterAnchor(m.Root, device)
}

// MainPIDPath returns the path Engine checks at start to refuse a concurrent
// invocation (spec: a guard checks for <root>/main/.pid).
func (m *Manager) MainPIDPath() string {
	return newMainAnchor(m.Root).pidPath()
}

// Create forks (via self-re-exec) a holder process that unshares a net
// namespace (and, for main or when Options.UnsharePID, a pid namespace too),
// bind-mounts its own /proc/self/ns/net onto a well-known anchor path, and
// pauses. The parent writes the pid file using its own, host-namespace view
// of the child's pid. Create returns once the holder has signaled readiness
// through a pipe, avoiding a fixed sleep.
func (m *Manager) Create(kind Kind, device string) (string, error) {
	a := m.anchorFor(kind, device)
	if err := os.MkdirAll(a.home, 0o755); err != nil {
		return "", nserrors.NewNamespaceError(nserrors.CreateFailed, a.name, err)
	}

	// token lets the holder prove it is the process that wrote to the
	// readiness pipe and not some unrelated fd 3 inherited by accident; the
	// parent generates it since it, not the child, is the trusted side.
	token := uuid.New().String()

	cmd := reexec.Command(holderCommandName)
	cmd.Env = append(os.Environ(),
		envAnchorPath+"="+a.netnsPath(),
		envReadyToken+"="+token,
	)

	cloneFlags := uintptr(syscall.CLONE_NEWNET)
	if kind == KindMain || m.Options.UnsharePID {
		cloneFlags |= syscall.CLONE_NEWPID
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Cloneflags: cloneFlags}

	readyR, readyW, err := os.Pipe()
	if err != nil {
		return "", nserrors.NewNamespaceError(nserrors.CreateFailed, a.name, err)
	}
	cmd.ExtraFiles = []*os.File{readyW}

	if err := cmd.Start(); err != nil {
		_ = readyR.Close()
		_ = readyW.Close()
		return "", nserrors.NewNamespaceError(nserrors.CreateFailed, a.name, err)
	}
	_ = readyW.Close()

	// The holder runs inside its own fresh pid namespace once CLONE_NEWPID
	// is set (always true for main, optionally for a router), so its own
	// getpid() would be 1 there; only the parent, still in the host pid
	// namespace, knows the pid that Destroy must later signal.
	if err := os.WriteFile(a.pidPath(), []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
		_ = cmd.Process.Kill()
		return "", nserrors.NewNamespaceError(nserrors.CreateFailed, a.name, err)
	}

	if err := waitReady(readyR, m.Options.ReadinessTimeout, token); err != nil {
		_ = cmd.Process.Kill()
		return "", nserrors.NewNamespaceError(nserrors.CreateFailed, a.name, err)
	}

	log.WithField("device", a.name).WithField("pid", cmd.Process.Pid).Debug("namespace holder ready")
	return a.netnsPath(), nil
}

func waitReady(r *os.File, timeout time.Duration, token string) error {
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, len(token))
		if _, err := io.ReadFull(r, buf); err != nil {
			done <- err
			return
		}
		if string(buf) != token {
			done <- nserrors.NewNamespaceError(nserrors.CreateFailed, "", nil)
			return
		}
		done <- nil
	}()
	select {
	case err := <-done:
		_ = r.Close()
		return err
	case <-time.After(timeout):
		_ = r.Close()
		return nserrors.NewNamespaceError(nserrors.CreateFailed, "", nil)
	}
}

// Enter runs fn with the calling OS thread switched into device's network
// namespace, then restores the original namespace. The caller must not
// migrate other work onto this goroutine while fn runs; Enter locks the OS
// thread for the duration of the call to enforce that.
func (m *Manager) Enter(kind Kind, device string, fn func() error) error {
	a := m.anchorFor(kind, device)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		return nserrors.NewNamespaceError(nserrors.EnterFailed, a.name, err)
	}
	defer func() {
		if restoreErr := netns.Set(orig); restoreErr != nil {
			log.WithError(restoreErr).WithField("device", a.name).Error("failed to restore original namespace")
		}
		_ = orig.Close()
	}()

	target, err := netns.GetFromPath(a.netnsPath())
	if err != nil {
		return nserrors.NewNamespaceError(nserrors.EnterFailed, a.name, err)
	}
	defer target.Close()

	if err := netns.Set(target); err != nil {
		return nserrors.NewNamespaceError(nserrors.EnterFailed, a.name, err)
	}

	return fn()
}

// OpenNSFd opens device's namespace anchor and returns its fd, suitable for
// passing to netlinkadapter's LinkMoveToNS (IFLA_NET_NS_FD). The caller must
// invoke the returned closeFd once done with the fd.
func (m *Manager) OpenNSFd(device string) (int, func(), error) {
	a := m.anchorFor(KindRouter, device)
	f, err := os.Open(a.netnsPath())
	if err != nil {
		return 0, nil, nserrors.NewNamespaceError(nserrors.FileOpen, a.name, err)
	}
	return int(f.Fd()), func() { _ = f.Close() }, nil
}

// Destroy kills the device's holder process, unmounts its anchor, and
// removes its home directory. Missing pieces are tolerated: Destroy is
// idempotent, matching the teardown-resilience property (a manually deleted
// .pid file does not cause stop to fail, only to skip the kill step).
func (m *Manager) Destroy(kind Kind, device string) error {
	a := m.anchorFor(kind, device)

	if pid, err := readPID(a.pidPath()); err == nil {
		if killErr := unix.Kill(pid, unix.SIGKILL); killErr != nil && killErr != unix.ESRCH {
			log.WithError(killErr).WithField("device", a.name).Warn("failed to signal holder process")
		}
	} else if !os.IsNotExist(err) {
		log.WithError(err).WithField("device", a.name).Warn("could not read holder pid file")
	}

	if err := unix.Unmount(a.netnsPath(), 0); err != nil && err != unix.ENOENT && err != unix.EINVAL {
		return nserrors.NewNamespaceError(nserrors.DestroyFailed, a.name, err)
	}

	if err := os.RemoveAll(a.home); err != nil {
		return nserrors.NewNamespaceError(nserrors.DestroyFailed, a.name, err)
	}
	return nil
}

func readPID(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, os.ErrNotExist
	}
	return strconv.Atoi(strings.TrimSpace(scanner.Text()))
}
