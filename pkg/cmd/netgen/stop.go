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

package netgen

import (
	"github.com/spf13/cobra"

	"github.com/Paul-weqe/netgen-rs/pkg/engine"
	"github.com/Paul-weqe/netgen-rs/pkg/nsmanage"
)

type stopFlagpole struct {
	Topo   string
	NSRoot string
}

func newStopCommand() *cobra.Command {
	flags := &stopFlagpole{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "tear down a previously started topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(flags)
		},
	}
	cmd.Flags().StringVar(&flags.Topo, "topo", "", "path to the topology document")
	cmd.Flags().StringVar(&flags.NSRoot, "ns-root", nsmanage.DefaultRoot, "filesystem root for namespace anchors")
	_ = cmd.MarkFlagRequired("topo")
	return cmd
}

func runStop(flags *stopFlagpole) error {
	root, err := loadDocument(flags.Topo)
	if err != nil {
		return err
	}
	e, err := engine.New(root, flags.NSRoot, nsmanage.Options{})
	if err != nil {
		return err
	}
	return e.PowerOff()
}
