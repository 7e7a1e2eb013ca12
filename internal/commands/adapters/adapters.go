// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adapters

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tombee/nodekit/internal/commands/shared"
	"github.com/tombee/nodekit/internal/integration"
	"github.com/tombee/nodekit/internal/node"
)

// AdapterInfo is the JSON form of one adapter.
type AdapterInfo struct {
	Name           string               `json:"name"`
	CredentialType string               `json:"credential_type"`
	Operations     []node.OperationInfo `json:"operations"`
	OptionLoaders  []string             `json:"option_loaders,omitempty"`
}

// NewCommand creates the adapters command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "Inspect built-in adapters",
	}
	cmd.AddCommand(newListCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List adapters with their resources and operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := describe()
			if err != nil {
				return err
			}
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), infos)
			}
			render(cmd.OutOrStdout(), infos)
			return nil
		},
	}
}

func describe() ([]AdapterInfo, error) {
	var infos []AdapterInfo
	for _, name := range integration.Names() {
		a, err := integration.New(name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s adapter: %w", name, err)
		}
		info := AdapterInfo{
			Name:           a.Name(),
			CredentialType: a.CredentialType(),
			Operations:     a.Operations(),
		}
		if loader, ok := a.(node.OptionLoader); ok {
			info.OptionLoaders = loader.OptionLoaders()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

var (
	nameCol = lipgloss.NewStyle().Width(12)
	opCol   = lipgloss.NewStyle().Width(24)
)

func render(w io.Writer, infos []AdapterInfo) {
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", shared.Header.Render(info.Name),
			shared.RenderLabel("("+info.CredentialType+")"))
		for _, op := range info.Operations {
			id := op.Name
			if op.Resource != "" {
				id = op.Resource + "." + op.Name
			}
			fmt.Fprintf(w, "  %s%s\n", opCol.Render(id), shared.Muted.Render(op.Description))
		}
		if len(info.OptionLoaders) > 0 {
			fmt.Fprintf(w, "  %s%v\n", nameCol.Render("options"), info.OptionLoaders)
		}
	}
}
