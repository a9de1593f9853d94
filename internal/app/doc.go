// Package app wires the KPI web host: configuration, logging and
// telemetry, the analysis pipeline, the HTTP router and its middleware,
// and graceful shutdown.
//
// Initialization order:
//
//  1. Load configuration from defaults, YAML file and environment
//  2. Initialize logging and OpenTelemetry
//  3. Build the analysis service (catalog, stages, cache)
//  4. Set up handlers and middleware
//  5. Serve until SIGINT or SIGTERM, then drain in-flight requests
//
// Errors are returned to the caller; the package never calls os.Exit.
// BuildAnalysisService is shared with the batch processor so both hosts
// run the same pipeline.
package app
