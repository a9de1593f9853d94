// Package middleware holds the HTTP middleware chain of the web host:
// request IDs, structured request logging, panic recovery, rate limiting,
// request deadlines, tracing and request envelope checks.
//
// Order matters. RequestID must run first so every later log line and
// problem document carries the trace ID.
package middleware
