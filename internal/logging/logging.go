// Package logging builds the process-wide zap logger.
package logging

import "go.uber.org/zap"

// New returns a production logger, or a human-readable development logger
// when development is set.
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
