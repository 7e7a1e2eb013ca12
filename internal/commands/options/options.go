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

package options

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/nodekit/internal/commands/shared"
	"github.com/tombee/nodekit/internal/integration"
	"github.com/tombee/nodekit/internal/node"
)

// NewCommand creates the options command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "options <adapter> <loader>",
		Short: "List the values of a dropdown option loader",
		Example: `  nodekit options halopsa sites
  nodekit options halopsa clients --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(cmd, args[0], args[1])
		},
	}
}

func runOptions(cmd *cobra.Command, name, loaderName string) error {
	rt, err := shared.NewRuntime(shared.RuntimeOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background(), "") }()

	adapter, err := integration.New(name, rt.Provider)
	if err != nil {
		return shared.NewInvalidInputError("failed to create adapter", err)
	}
	loader, ok := adapter.(node.OptionLoader)
	if !ok {
		return shared.NewInvalidInputError(fmt.Sprintf("adapter %q has no option loaders", name), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := loader.LoadOptions(ctx, loaderName, rt.Credentials)
	if err != nil {
		return err
	}

	if shared.GetJSON() {
		if opts == nil {
			opts = []node.Option{}
		}
		return shared.EmitJSON(cmd.OutOrStdout(), opts)
	}
	for _, o := range opts {
		fmt.Fprintf(cmd.OutOrStdout(), "%v\t%s\n", o.Value, o.Name)
	}
	return nil
}
