package apirequest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	nodelog "github.com/tombee/nodekit/internal/log"
	"github.com/tombee/nodekit/internal/metrics"
	"github.com/tombee/nodekit/internal/node/transport"
	"github.com/tombee/nodekit/internal/tracing"
)

// Observer carries the logging, metrics and tracing hooks for Send.
type Observer struct {
	Adapter string
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Tracer  trace.Tracer
}

// Send performs the request a descriptor describes. Failures are returned as
// API errors; nothing is retried. Adapters with their own authentication
// (e.g. OAuth2 bearer tokens) build descriptors themselves and call Send.
func Send(ctx context.Context, tr transport.Transport, d *Descriptor, obs Observer) ([]byte, error) {
	if obs.Logger == nil {
		obs.Logger = nodelog.Discard()
	}

	target, err := d.FullURL()
	if err != nil {
		return nil, wrapError(err)
	}
	payload, err := d.EncodeBody()
	if err != nil {
		return nil, wrapError(err)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	logReq := &nodelog.APIRequest{Method: d.Method, URL: d.URL, HasBody: payload != nil}
	nodelog.LogAPIRequest(obs.Logger, logReq)
	if payload != nil {
		nodelog.Trace(obs.Logger, "api request body", slog.String("body", string(payload)))
	}

	ctx, span := tracing.StartRequestSpan(ctx, obs.Tracer, obs.Adapter, d.Method, d.URL)
	start := time.Now()

	resp, err := tr.Execute(ctx, &transport.Request{
		Method:  d.Method,
		URL:     target,
		Headers: d.Headers,
		Body:    payload,
	})
	elapsed := time.Since(start)

	status, requestID := 0, ""
	var terr *transport.TransportError
	if resp != nil {
		status, requestID = resp.StatusCode, resp.RequestID
	} else if errors.As(err, &terr) {
		status, requestID = terr.StatusCode, terr.RequestID
	}

	obs.Metrics.RecordRequest(obs.Adapter, d.Method, status, elapsed)
	tracing.EndRequestSpan(span, status, err)
	nodelog.LogAPIResponse(obs.Logger, logReq, &nodelog.APIResponse{
		StatusCode: status,
		RequestID:  requestID,
		Duration:   elapsed,
		Err:        err,
	})

	if err != nil {
		return nil, wrapError(err)
	}
	if resp == nil {
		return nil, nil
	}
	nodelog.Trace(obs.Logger, "api response body", slog.String("body", string(resp.Body)))
	return resp.Body, nil
}
