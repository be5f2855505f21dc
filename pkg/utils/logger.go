package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger named "cvsearch". When debug is true it uses the
// development config (human-readable, debug level); otherwise the production config
// (JSON, info level). Both write to stderr so command output on stdout stays clean.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("cvsearch"), nil
}
