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
	"os"
	"os/signal"
	"syscall"

	"github.com/moby/sys/reexec"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	envAnchorPath = "NETGEN_HOLDER_ANCHOR_PATH"
	envReadyToken = "NETGEN_HOLDER_READY_TOKEN"
	readinessFD   = 3
)

func init() {
	reexec.Register(holderCommandName, holderMain)
}

const holderCommandName = "netgen-holder"

// holderMain is the re-exec entrypoint for the paused child that keeps one
// namespace alive. It runs already inside its own net (and, for main or
// with Options.UnsharePID, pid) namespace because the parent requested CLONE_NEWNET/CLONE_NEWPID at
// clone(2) time via SysProcAttr.Cloneflags; this function only has to make
// that namespace observable and then sit still. The pid file is written by
// the parent, not here: inside a fresh pid namespace this process's own
// getpid() would be 1, not the host-visible pid Destroy needs to signal.
func holderMain() {
	anchorPath := os.Getenv(envAnchorPath)
	token := os.Getenv(envReadyToken)

	signalReady := os.NewFile(uintptr(readinessFD), "readiness")

	if err := bindMountSelfNetns(anchorPath); err != nil {
		log.WithError(err).Error("holder: bind mount failed")
		os.Exit(1)
	}

	if _, err := signalReady.Write([]byte(token)); err != nil {
		log.WithError(err).Error("holder: readiness signal failed")
		os.Exit(1)
	}
	_ = signalReady.Close()

	pause()
}

func bindMountSelfNetns(anchorPath string) error {
	f, err := os.OpenFile(anchorPath, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return err
	}
	_ = f.Close()
	return unix.Mount("/proc/self/ns/net", anchorPath, "", unix.MS_BIND, "")
}

// pause blocks the holder process forever, exiting 0 on SIGINT/SIGTERM (the
// signal sent by destroy via SIGKILL never reaches here since SIGKILL cannot
// be caught; this path exists for a graceful shutdown during development and
// to mirror the pause/signal-loop idiom).
func pause() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	for sig := range ch {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			os.Exit(0)
		}
	}
}
