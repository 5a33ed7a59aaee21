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

// Package netgen implements the root netgen cobra command and its start/stop
// subcommands.
package netgen

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type flagpole struct {
	Verbosity int32
	Quiet     bool
}

// NewCommand returns the root cobra.Command for netgen.
func NewCommand() *cobra.Command {
	flags := &flagpole{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Use:   "netgen",
		Short: "netgen builds and tears down virtual network topologies",
		Long:  "netgen materializes a declarative network topology into live network namespaces, veth pairs, and bridges, and reverses the process on stop.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyLogLevel(flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().Int32VarP(&flags.Verbosity, "verbosity", "v", 0, "log verbosity, higher value produces more output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "silence all non-error output")

	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newStopCommand())
	return cmd
}

func applyLogLevel(flags *flagpole) error {
	if flags.Quiet {
		log.SetLevel(log.ErrorLevel)
		return nil
	}
	switch {
	case flags.Verbosity >= 2:
		log.SetLevel(log.TraceLevel)
	case flags.Verbosity == 1:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	return nil
}
