// Package logging assembles the structured slog loggers used across Glacia.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes the standard attribute keys so components tag
// log lines consistently. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
