package tvws

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tingold/orb-tvws/config"
)

// NewLogger builds the engine logger from cfg, writing to w. An unknown
// level falls back to info.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	if strings.EqualFold(cfg.Format, "json") {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
		Formatter:       formatter,
	})
}
