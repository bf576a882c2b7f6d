package logger

import "go.uber.org/zap"

// New returns the process logger. Production JSON encoding by default;
// callers pass the logger down explicitly instead of using zap globals.
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewNop returns a discard logger for tests and optional wiring.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
