// Package logging provides structured logging configuration for mockforce.
//
// This package wraps log/slog so every component logs the same way. The
// level and format come from the config file or the CLI flags:
//
//	logger := logging.FromStrings("debug", "json", os.Stderr)
//	store := virtual.NewStore(virtual.WithObserver(virtual.NewLogObserver(logger)))
//
// Components accept a *slog.Logger through their options. If none is
// provided they use logging.Nop().
package logging
