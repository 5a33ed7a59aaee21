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

package main

import (
	"os"

	"github.com/alessio/shellescape"
	"github.com/moby/sys/reexec"
	log "github.com/sirupsen/logrus"

	netgencmd "github.com/Paul-weqe/netgen-rs/pkg/cmd/netgen"
	"github.com/Paul-weqe/netgen-rs/pkg/nserrors"
)

func main() {
	// reexec re-invokes this same binary under a registered command name to
	// spawn the namespace holder process (see pkg/nsmanage). That path must
	// be handled before cobra ever sees argv.
	if reexec.Init() {
		return
	}

	c := netgencmd.NewCommand()
	if err := c.Execute(); err != nil {
		logError(err)
		os.Exit(nserrors.ExitCodeFor(err))
	}
}

func logError(err error) {
	log.Errorf("ERROR: %v", err)
	if trace := nserrors.StackTrace(err); trace != nil && log.GetLevel() >= log.DebugLevel {
		log.Errorf("Stack Trace: %+v", trace)
	}
	log.Debugf("invoked as: %s", shellescape.QuoteCommand(os.Args))
}
