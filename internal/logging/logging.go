// Package logging configures the process-wide structured logger.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

func New(level string) *log.Logger {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           parsed,
	})
}
