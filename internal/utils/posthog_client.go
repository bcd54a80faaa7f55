// posthog_client.go wraps posthog.Client so callers never need to care
// whether analytics is configured. Besides request analytics, this is the
// counted error channel for reconciliation drift and companion-operation
// failures.
package utils

import (
	"log/slog"

	"github.com/posthog/posthog-go"
)

// Ops event names emitted by the reconciliation engine.
const (
	EventReconciliationDrift = "reconciliation_drift"
	EventCompanionFailure    = "companion_operation_failed"
)

type PosthogClientWrapper struct {
	posthogClient posthog.Client
	logger        *slog.Logger
}

func InitializePosthogClient(apiKey, endpoint string, logger *slog.Logger) *PosthogClientWrapper {
	if apiKey == "" {
		if logger != nil {
			logger.Warn("Posthog API key is empty, not initializing posthog client.")
		}
		return &PosthogClientWrapper{}
	}
	wrapper := PosthogClientWrapper{}
	wrapper.posthogClient, _ = posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	wrapper.logger = logger
	return &wrapper
}

func (w *PosthogClientWrapper) IsInitialized() bool {
	return w.posthogClient != nil
}

func (w *PosthogClientWrapper) Enqueue(distinctId string, event string, properties map[string]any) {
	if w.posthogClient == nil {
		return
	}
	if w.logger != nil {
		w.logger.Debug("Enqueueing event", slog.String("distinct_id", distinctId), slog.String("event", event))
	}
	w.posthogClient.Enqueue(posthog.Capture{
		DistinctId: distinctId,
		Event:      event,
		Properties: properties,
	})
}

func (w *PosthogClientWrapper) Close() {
	if w.posthogClient == nil {
		return
	}
	w.posthogClient.Close()
}
