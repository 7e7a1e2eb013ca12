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

package shared

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/nodekit/internal/config"
	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/metrics"
	"github.com/tombee/nodekit/internal/node/api"
	"github.com/tombee/nodekit/internal/node/transport"
	"github.com/tombee/nodekit/internal/secrets"
	"github.com/tombee/nodekit/internal/tracing"
)

// KeychainService is the keychain service name secrets are looked up under.
const KeychainService = "nodekit"

// RuntimeOptions selects the optional collaborators of a Runtime.
type RuntimeOptions struct {
	// Metrics enables the Prometheus recorder.
	Metrics bool

	// Trace enables console span export to TraceOutput (default stderr).
	Trace       bool
	TraceOutput io.Writer

	// LogOutput overrides where logs are written. Default: stderr
	LogOutput io.Writer
}

// Runtime is everything a command needs to instantiate and run adapters.
type Runtime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Credentials *credential.Resolver
	Provider    *api.ProviderConfig
	Metrics     *metrics.Recorder
	Tracing     *tracing.Provider
}

// NewRuntime loads the configuration and builds the shared collaborators.
func NewRuntime(opts RuntimeOptions) (*Runtime, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewInvalidInputError("failed to load config", err)
	}

	logCfg := log.FromEnv()
	if os.Getenv("NODEKIT_DEBUG") == "" && os.Getenv("NODEKIT_LOG_LEVEL") == "" {
		logCfg.Level = cfg.Log.Level
	}
	if os.Getenv("LOG_FORMAT") == "" {
		logCfg.Format = log.Format(cfg.Log.Format)
	}
	if GetVerbose() {
		logCfg.Level = "debug"
	}
	if opts.LogOutput != nil {
		logCfg.Output = opts.LogOutput
	}
	logger := log.New(logCfg)

	tr := transport.NewHTTPTransport(transport.HTTPConfig{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: userAgent(),
	})
	if limiter := transport.NewRateLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst); limiter != nil {
		tr.SetRateLimiter(limiter)
	}

	var recorder *metrics.Recorder
	if opts.Metrics {
		recorder = metrics.NewRecorder()
	}

	v, _, _ := GetVersion()
	traceOut := opts.TraceOutput
	if traceOut == nil {
		traceOut = os.Stderr
	}
	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:        opts.Trace,
		ServiceName:    "nodekit",
		ServiceVersion: v,
		Writer:         traceOut,
		PrettyPrint:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	rt := &Runtime{
		Config:      cfg,
		Logger:      logger,
		Credentials: credential.NewResolver(cfg.Credentials, secrets.NewDefaultRegistry(KeychainService)),
		Metrics:     recorder,
		Tracing:     tp,
		Provider: &api.ProviderConfig{
			Transport: tr,
			Logger:    logger,
			Metrics:   recorder,
			Tracer:    tp.Tracer(),
			MaxPages:  cfg.HTTP.MaxPages,
		},
	}
	return rt, nil
}

// Close flushes spans and, when path is set, writes the metrics textfile.
func (r *Runtime) Close(ctx context.Context, metricsPath string) error {
	var errs []error
	if metricsPath != "" && r.Metrics != nil {
		if err := r.Metrics.WriteTextfile(metricsPath); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if r.Tracing != nil {
		if err := r.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}

func userAgent() string {
	v, _, _ := GetVersion()
	return "nodekit/" + v
}
