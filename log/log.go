// Package log provides the *zap.SugaredLogger this module's decoder,
// instantiator, and test harness log through, defaulting to a no-op
// logger so importing tinywasm as a library stays silent (grounded on
// wippyai-wasm-runtime's engine.Logger).
package log

import "go.uber.org/zap"

var logger = zap.NewNop().Sugar()

// Set installs l as the package-wide logger. cmd/tinywasm calls this with
// a real zap.Logger when --verbose is passed; library code never calls it.
func Set(l *zap.Logger) {
	logger = l.Sugar()
}

// Get returns the current *zap.SugaredLogger.
func Get() *zap.SugaredLogger {
	return logger
}
