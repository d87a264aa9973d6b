package kit

import "go.uber.org/zap"

// NewLogger builds the service logger. env "development" switches to the
// human-readable console encoder; anything else logs production JSON.
func NewLogger(service, env string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}
	l, _ := cfg.Build()
	return l
}
