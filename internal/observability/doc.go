// Package observability provides logging and metrics support for the
// citation service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for citations, catalog lookups, and sources
//   - Context helpers for propagating request identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("citation generated")
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("citation_service")
//
// Record metrics:
//
//	metrics.CitationsGenerated.WithLabelValues("MLA").Inc()
//	metrics.LookupRequests.WithLabelValues("google_books").Inc()
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
