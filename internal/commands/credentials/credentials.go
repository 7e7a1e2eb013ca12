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

package credentials

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/nodekit/internal/commands/shared"
	"github.com/tombee/nodekit/internal/integration"
	"github.com/tombee/nodekit/internal/node"
)

// NewCommand creates the credentials command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Inspect and test configured credentials",
	}
	cmd.AddCommand(newListCommand(), newTestCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured credential types and their fields",
		Long:  `List prints credential types and field names. Secret values are never shown.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := shared.NewRuntime(shared.RuntimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.Background(), "") }()

			listing := map[string][]string{}
			for credType, fields := range rt.Config.Credentials {
				names := make([]string, 0, len(fields))
				for f := range fields {
					names = append(names, f)
				}
				sort.Strings(names)
				listing[credType] = names
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), listing)
			}
			types := make([]string, 0, len(listing))
			for t := range listing {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", shared.Header.Render(t),
					shared.RenderLabel(strings.Join(listing[t], ", ")))
			}
			return nil
		},
	}
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <adapter>",
		Short: "Verify an adapter's credential against its API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, args[0])
		},
	}
}

func runTest(cmd *cobra.Command, name string) error {
	rt, err := shared.NewRuntime(shared.RuntimeOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background(), "") }()

	adapter, err := integration.New(name, rt.Provider)
	if err != nil {
		return shared.NewInvalidInputError("failed to create adapter", err)
	}
	tester, ok := adapter.(node.CredentialTester)
	if !ok {
		return shared.NewInvalidInputError(fmt.Sprintf("adapter %q does not support credential tests", name), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cred, err := rt.Credentials.Credential(ctx, adapter.CredentialType())
	if err != nil {
		return &shared.ExitError{Code: shared.ExitAuthError, Message: "failed to resolve credential", Cause: err}
	}

	result := tester.TestCredential(ctx, cred)
	if shared.GetJSON() {
		if err := shared.EmitJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if result.Status == node.CredentialStatusOK {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(result.Message))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderError(result.Message))
	}

	if result.Status != node.CredentialStatusOK {
		return &shared.ExitError{Code: shared.ExitAuthError, Message: "credential test failed"}
	}
	return nil
}
