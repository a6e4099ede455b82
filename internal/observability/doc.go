// Package observability provides logging and metrics support for the
// CORD-19 explorer.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for scans, reports, charts, and the dashboard
//   - Context helpers for propagating observability data
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
//	logger.Info().Str("run_id", runID).Msg("scan started")
//
// Add run context to logger:
//
//	logger = observability.WithRunContext(logger, runID, sourcePath)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("cord19")
//
// Record metrics:
//
//	metrics.RecordScanStarted()
//	metrics.RecordFieldParseFailure("publish_time")
//	metrics.RecordChartRendered("years", elapsed.Seconds())
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithRunID(ctx, runID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	runID := observability.RunIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the explorer:
//
//   - request_id: HTTP request identifier
//   - run_id: Analysis run identifier
//   - source: Metadata file being read
//   - mode: Dataset variant (sample, full)
//   - axis: Aggregation axis (year, journal, source, word)
//   - chart: Chart being rendered
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
