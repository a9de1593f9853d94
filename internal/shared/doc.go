// Package shared holds helpers used across packages that belong to no
// single layer. Today that is testutil, a slog capture handler for tests
// that assert on log output.
package shared
