package cli

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger: short timestamps, level labels in the
// CLI palette and key names dimmed.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})

	styles := log.DefaultStyles()
	for lvl, color := range map[log.Level]lipgloss.Color{
		log.DebugLevel: colorDim,
		log.InfoLevel:  colorCyan,
		log.WarnLevel:  colorAmber,
		log.ErrorLevel: colorRed,
	} {
		styles.Levels[lvl] = lipgloss.NewStyle().
			SetString(strings.ToUpper(lvl.String())).
			Bold(true).
			MaxWidth(4).
			Foreground(color)
	}
	styles.Key = lipgloss.NewStyle().Foreground(colorGray)
	l.SetStyles(styles)
	return l
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 2 artifact(s) (120ms)".
func (p *progress) done(msg string) {
	p.logger.Info(msg, "took", time.Since(p.start).Round(time.Millisecond))
}
