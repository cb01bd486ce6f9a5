package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type levelStyle struct {
	level log.Level
	key   string
	icon  string
	color lipgloss.AdaptiveColor
}

var levelStyles = []levelStyle{
	{log.ErrorLevel, "error", "ERR", lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}},
	{log.WarnLevel, "warn", "WRN", lipgloss.AdaptiveColor{Light: "#C77700", Dark: "#FFB347"}},
	{log.InfoLevel, "info", "INF", lipgloss.AdaptiveColor{Light: "#0B7A75", Dark: "#04B575"}},
	{log.DebugLevel, "debug", "DBG", lipgloss.AdaptiveColor{Light: "#5E35B1", Dark: "#9575CD"}},
}

func consoleStyles() *log.Styles {
	styles := log.DefaultStyles()
	for _, ls := range levelStyles {
		styles.Levels[ls.level] = lipgloss.NewStyle().
			SetString(ls.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(ls.color)
		styles.Keys[ls.key] = lipgloss.NewStyle().Foreground(ls.color)
		styles.Values[ls.key] = lipgloss.NewStyle().Bold(true)
	}
	muted := lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	for _, k := range []string{"service", "component", "action", "key", "prefix"} {
		styles.Keys[k] = lipgloss.NewStyle().Foreground(muted)
	}
	return styles
}

func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}
	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(consoleStyles())
	return slog.New(logger)
}

// setupLogger builds the process logger and makes it the slog default.
func setupLogger(cfg *config.Log) *slog.Logger {
	slogger := newLogger(os.Stdout, cfg)
	slog.SetDefault(slogger)
	return slogger
}
