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

package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/nodekit/internal/commands/shared"
	"github.com/tombee/nodekit/internal/integration"
	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/node"
)

type options struct {
	resource        string
	operation       string
	itemsPath       string
	paramsPath      string
	itemParamsPath  string
	continueOnFail  bool
	metricsTextfile string
	trace           bool
	baseURL         string
}

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run <adapter>",
		Short: "Run one adapter operation over a list of items",
		Long: `Run executes one adapter operation for every input item and prints the
output items as a JSON array.

Items are read from --items (a JSON array, "-" for stdin); without it a
single empty item is used. Parameters come from a YAML or JSON file.`,
		Example: `  nodekit run fetias --operation create --items items.json --params params.yaml
  nodekit run halopsa --resource tickets --operation getAll --params limit.yaml --continue-on-fail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdapter(cmd, args[0], opts)
		},
	}

	addFlags(cmd.Flags(), opts)
	_ = cmd.MarkFlagRequired("operation")

	return cmd
}

func addFlags(f *pflag.FlagSet, opts *options) {
	f.StringVarP(&opts.operation, "operation", "o", "", "Operation to run (required)")
	f.StringVarP(&opts.resource, "resource", "r", "", "Resource the operation applies to")
	f.StringVarP(&opts.itemsPath, "items", "i", "", "Input items JSON file, or - for stdin")
	f.StringVarP(&opts.paramsPath, "params", "p", "", "Parameters file shared by all items")
	f.StringVar(&opts.itemParamsPath, "item-params", "", "Parameters file with per-item overrides")
	f.BoolVar(&opts.continueOnFail, "continue-on-fail", false, "Record failed items as {error} and keep going")
	f.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	f.BoolVar(&opts.trace, "trace", false, "Print a span per API request to stderr")
	f.StringVar(&opts.baseURL, "base-url", "", "Override the adapter's API base URL")
	_ = f.MarkHidden("base-url")
}

func runAdapter(cmd *cobra.Command, name string, opts *options) error {
	items, err := loadItems(opts.itemsPath, cmd.InOrStdin())
	if err != nil {
		return shared.NewInvalidInputError("failed to read items", err)
	}
	params, err := loadParams(opts.paramsPath, opts.itemParamsPath, cmd.InOrStdin())
	if err != nil {
		return shared.NewInvalidInputError("failed to read params", err)
	}

	rt, err := shared.NewRuntime(shared.RuntimeOptions{
		Metrics:     opts.metricsTextfile != "",
		Trace:       opts.trace,
		TraceOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	provider := rt.Provider
	if opts.baseURL != "" {
		provider.BaseURL = opts.baseURL
	}
	adapter, err := integration.New(name, provider)
	if err != nil {
		return shared.NewInvalidInputError("failed to create adapter", err)
	}

	runID := uuid.NewString()
	logger := log.WithRunContext(rt.Logger, runID, name)
	logger.Info("run started",
		slog.String(log.EventKey, "run_started"),
		slog.String(log.ResourceKey, opts.resource),
		slog.String(log.OperationKey, opts.operation),
		slog.Int("items", len(items)))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	out, runErr := adapter.Execute(ctx, &node.Execution{
		Resource:    opts.resource,
		Operation:   opts.operation,
		Items:       items,
		Params:      params,
		Credentials: rt.Credentials,
		Policy:      node.Policy{ContinueOnFail: opts.continueOnFail},
		Logger:      logger,
	})

	if closeErr := rt.Close(context.WithoutCancel(ctx), opts.metricsTextfile); closeErr != nil {
		logger.Warn("run cleanup failed", log.Error(closeErr))
	}

	if runErr != nil {
		logger.Error("run failed",
			slog.String(log.EventKey, "run_failed"),
			slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
			log.Error(runErr))
		return runErr
	}

	logger.Info("run completed",
		slog.String(log.EventKey, "run_completed"),
		slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
		slog.Int("output_items", len(out)))

	if out == nil {
		out = []node.Item{}
	}
	return shared.EmitJSON(cmd.OutOrStdout(), out)
}
